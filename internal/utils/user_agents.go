package utils

import (
	"fmt"

	"github.com/avct/uasurfer"
)

func UserAgentVersionToString(v uasurfer.Version) string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// DescribeUserAgent returns short browser and OS labels for audit log lines.
func DescribeUserAgent(userAgent string) (browser string, os string) {
	ua := uasurfer.Parse(userAgent)

	browser = ua.Browser.Name.StringTrimPrefix()
	if ua.Browser.Version.Major > 0 {
		browser = fmt.Sprintf("%s %s", browser, UserAgentVersionToString(ua.Browser.Version))
	}

	os = ua.OS.Name.StringTrimPrefix()
	return browser, os
}

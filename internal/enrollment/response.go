package enrollment

import (
	"errors"
	"regexp"
)

var ErrNoRetrievalLink = errors.New("certificate retrieval link not found")

var reRetrievalLink = regexp.MustCompile(`(?s)function handleGetCert\(\) \{\s*location\.href\s*=\s*"([^"]+)";`)

// ParseRetrievalLink extracts the relative certnew.cer link from the page
// certfnsh.asp returns after a successful submission.
func ParseRetrievalLink(body []byte) (string, error) {
	m := reRetrievalLink.FindSubmatch(body)
	if m == nil {
		return "", ErrNoRetrievalLink
	}
	return string(m[1]), nil
}

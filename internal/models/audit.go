package models

import (
	"time"
)

// ArtifactDownload is the audit record written for every file handed out
// from the artifacts directory.
type ArtifactDownload struct {
	File         string
	Kind         string
	Username     string
	IPAddress    string
	UserAgent    string
	BrowserName  string
	OSName       string
	DownloadedAt time.Time
}

// LogAttrs flattens the record into slog key/value pairs.
func (d ArtifactDownload) LogAttrs() []any {
	return []any{
		"file", d.File,
		"kind", d.Kind,
		"username", d.Username,
		"client_ip", d.IPAddress,
		"user_agent", d.UserAgent,
		"browser", d.BrowserName,
		"os", d.OSName,
		"downloaded_at", d.DownloadedAt,
	}
}

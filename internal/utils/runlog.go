package utils

import (
	"fmt"
	"strings"
	"time"
)

// RunLog is the user-visible narrative of a generation or enrollment run.
// Every line is prefixed with a timestamp.
type RunLog struct {
	b   strings.Builder
	now func() time.Time
}

func NewRunLog(now func() time.Time) *RunLog {
	if now == nil {
		now = time.Now
	}
	return &RunLog{now: now}
}

func (l *RunLog) Printf(format string, args ...any) {
	fmt.Fprintf(&l.b, "[%s] ", l.now().Format(time.DateTime))
	fmt.Fprintf(&l.b, format, args...)
	l.b.WriteByte('\n')
}

func (l *RunLog) Errorf(format string, args ...any) {
	l.Printf("ERROR: "+format, args...)
}

// Section appends an untimestamped header followed by a block of text taken
// verbatim from another log.
func (l *RunLog) Section(title, body string) {
	fmt.Fprintf(&l.b, "\n--- %s ---\n", title)
	l.b.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		l.b.WriteByte('\n')
	}
}

// Append copies already formatted log text.
func (l *RunLog) Append(text string) {
	l.b.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		l.b.WriteByte('\n')
	}
}

func (l *RunLog) String() string {
	return l.b.String()
}

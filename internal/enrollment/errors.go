package enrollment

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInput is returned when the request cannot be sent at all.
var ErrInput = errors.New("invalid enrollment request")

// TransportError is a connection, TLS, authentication or timeout failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is a response the client could not work with. StatusCode is
// set when the CA answered with something other than 200.
type ProtocolError struct {
	Op         string
	StatusCode int
	Snippet    string
	Reason     string
}

func (e *ProtocolError) Error() string {
	if e.HTTPStatus() {
		return fmt.Sprintf("%s failed with HTTP status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// HTTPStatus reports whether the error is an unexpected HTTP status rather
// than an unparseable body.
func (e *ProtocolError) HTTPStatus() bool {
	return e.StatusCode != 0 && e.StatusCode != http.StatusOK
}

type VerificationError struct {
	ExitCode int
	Output   string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("certificate verification failed with exit code %d", e.ExitCode)
}

// ConfigurationError covers local problems such as an unwritable certificate
// directory.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Package certdir is the restricted directory holding keys, CSRs, request
// configs, certificates and host configuration documents.
package certdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidName  = errors.New("invalid name")
	ErrNotDirectory = errors.New("not a directory")
)

var (
	reValidName  = regexp.MustCompile(`^[A-Za-z0-9_\-.*]+$`)
	reNameStrip  = regexp.MustCompile(`[^a-zA-Z0-9_\-.]`)
	fileModeKey  = os.FileMode(0o600)
	fileModeFile = os.FileMode(0o644)
)

const (
	SuffixKey           = ".key"
	SuffixCSR           = ".csr"
	SuffixCertificate   = ".crt"
	SuffixTemporaryCert = ".crt.tmp"
	SuffixRequestConfig = "-openssl.cnf"
	SuffixHostConfig    = ".conf"
)

type Dir struct {
	path string
}

// Open creates the directory when missing and checks it is writable.
func Open(path string) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("certificate directory path is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve certificate directory: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("could not create certificate directory: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}

	d := &Dir{path: abs}
	if err := d.CheckWritable(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Dir) Path() string {
	return d.path
}

// CheckWritable probes the directory with a throwaway file.
func (d *Dir) CheckWritable() error {
	f, err := os.CreateTemp(d.path, ".probe-*")
	if err != nil {
		return fmt.Errorf("certificate directory is not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// File resolves a basename inside the directory. Any directory components in
// name are rejected.
func (d *Dir) File(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(d.path, name), nil
}

func (d *Dir) Exists(name string) bool {
	p, err := d.File(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func (d *Dir) ReadFile(name string) ([]byte, error) {
	p, err := d.File(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// WriteFile replaces name atomically. Private keys get owner-only permissions.
func (d *Dir) WriteFile(name string, data []byte) error {
	p, err := d.File(name)
	if err != nil {
		return err
	}

	mode := fileModeFile
	if strings.HasSuffix(name, SuffixKey) {
		mode = fileModeKey
	}

	tmp, err := os.CreateTemp(d.path, "."+name+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, p)
}

func (d *Dir) Remove(name string) error {
	p, err := d.File(name)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ValidateName accepts plain file names made of host name characters.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains a parent reference", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q is hidden", ErrInvalidName, name)
	case !reValidName.MatchString(name):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SanitizeName strips every character outside [a-zA-Z0-9_\-.].
func SanitizeName(name string) string {
	return reNameStrip.ReplaceAllString(name, "")
}

// BaseName drops directory components the way a download request is cleaned.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	return filepath.Base(filepath.Clean("/" + name))
}

// StaleTemporaryFiles lists <name>.crt.tmp files last modified before cutoff.
func (d *Dir) StaleTemporaryFiles(cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), SuffixTemporaryCert) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, e.Name())
		}
	}
	return stale, nil
}

func KeyFile(cn string) string           { return cn + SuffixKey }
func CSRFile(cn string) string           { return cn + SuffixCSR }
func CertificateFile(cn string) string   { return cn + SuffixCertificate }
func TemporaryCertFile(cn string) string { return cn + SuffixTemporaryCert }
func RequestConfigFile(cn string) string { return cn + SuffixRequestConfig }
func HostConfigFile(cn string) string    { return cn + SuffixHostConfig }

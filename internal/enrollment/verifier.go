package enrollment

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/globalsign/pemfile"

	"certer/internal/config"
	"certer/internal/utils"
)

// Verification is the outcome of checking a retrieved certificate. ExitCode
// zero means the certificate chains to a trusted root.
type Verification struct {
	ExitCode int
	Output   string
}

func (v Verification) OK() bool {
	return v.ExitCode == 0
}

type Verifier interface {
	Verify(ctx context.Context, certFile string) Verification
}

// NewVerifier builds the verifier selected in the CA configuration.
func NewVerifier(cfg config.VerifierConfig) (Verifier, error) {
	switch cfg.Type {
	case "", "openssl":
		return &OpenSSLVerifier{Path: cfg.OpenSSLPath, CAFile: cfg.CAFile}, nil
	case "native":
		return NewX509Verifier(cfg.CAFile)
	default:
		return nil, fmt.Errorf("unknown verifier type %q", cfg.Type)
	}
}

// OpenSSLVerifier shells out to `openssl verify -verbose`.
type OpenSSLVerifier struct {
	Path   string
	CAFile string
}

func (v *OpenSSLVerifier) Verify(ctx context.Context, certFile string) Verification {
	path := v.Path
	if path == "" {
		path = "openssl"
	}

	args := []string{"verify", "-verbose"}
	if v.CAFile != "" {
		args = append(args, "-CAfile", v.CAFile)
	}
	args = append(args, certFile)

	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	output := strings.TrimRight(string(out), "\n")

	if err == nil {
		return Verification{ExitCode: 0, Output: output}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Verification{ExitCode: exitErr.ExitCode(), Output: output}
	}

	if output != "" {
		output += "\n"
	}
	return Verification{ExitCode: -1, Output: output + err.Error()}
}

// X509Verifier checks the chain in-process. The file may carry intermediates
// after the leaf.
type X509Verifier struct {
	Roots *x509.CertPool
}

// NewX509Verifier trusts the certificates in caFile, or the system pool when
// caFile is empty.
func NewX509Verifier(caFile string) (*X509Verifier, error) {
	if caFile == "" {
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("failed to load system roots: %w", err)
		}
		return &X509Verifier{Roots: pool}, nil
	}

	certs, err := pemfile.ReadCerts(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read verifier CA file: %w", err)
	}

	pool := x509.NewCertPool()
	for _, c := range certs {
		pool.AddCert(c)
	}

	return &X509Verifier{Roots: pool}, nil
}

func (v *X509Verifier) Verify(ctx context.Context, certFile string) Verification {
	data, err := os.ReadFile(certFile)
	if err != nil {
		return Verification{ExitCode: 1, Output: fmt.Sprintf("unable to load certificate: %v", err)}
	}

	certs, err := utils.ParseCertificateBundle(data)
	if err != nil {
		return Verification{ExitCode: 1, Output: fmt.Sprintf("unable to load certificate: %v", err)}
	}

	intermediates := x509.NewCertPool()
	for _, c := range certs[1:] {
		intermediates.AddCert(c)
	}

	_, err = certs[0].Verify(x509.VerifyOptions{
		Roots:         v.Roots,
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return Verification{
			ExitCode: 2,
			Output:   fmt.Sprintf("CN = %s\nerror %s: verification failed: %v", certs[0].Subject.CommonName, certFile, err),
		}
	}

	return Verification{ExitCode: 0, Output: certFile + ": OK"}
}

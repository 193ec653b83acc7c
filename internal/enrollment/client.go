// Package enrollment submits CSRs to a Windows CA through the certsrv web
// enrollment pages and retrieves the issued certificate.
package enrollment

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"github.com/globalsign/pemfile"

	"certer/internal/certdir"
	"certer/internal/config"
	"certer/internal/metrics"
	"certer/internal/models"
	"certer/internal/utils"
)

const (
	submitPath   = "/certsrv/certfnsh.asp"
	refererPath  = "/certsrv/certrqxt.asp"
	retrievePath = "/certsrv/"

	headerAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	headerAcceptLanguage = "en-US,en;q=0.5"
	headerContentType    = "application/x-www-form-urlencoded"

	snippetLength = 500
	maxBodyBytes  = 1 << 20
)

const (
	outcomeSuccess       = "success"
	outcomeInput         = "input_error"
	outcomeTransport     = "transport_error"
	outcomeProtocol      = "protocol_error"
	outcomeVerification  = "verification_error"
	outcomeConfiguration = "configuration_error"
)

type Request struct {
	CSR string
	// Name is the basename used for the temporary certificate file.
	Name string
}

// Result is the outcome of one enrollment. Err is nil exactly when Status is
// success.
type Result struct {
	Status             models.EnrollmentStatus
	Certificate        []byte
	VerificationOutput string
	ExitCode           int
	Log                string
	Message            string
	Err                error
}

func (r *Result) Succeeded() bool {
	return r != nil && r.Status == models.EnrollmentSuccess
}

func (r *Result) Model() models.EnrollmentResult {
	return models.EnrollmentResult{
		Status:             r.Status,
		Certificate:        string(r.Certificate),
		VerificationOutput: r.VerificationOutput,
		Log:                r.Log,
		Message:            r.Message,
	}
}

type Client struct {
	cfg        config.CAConfig
	httpClient *http.Client
	dir        *certdir.Dir
	verifier   Verifier
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient builds an NTLM capable client for the configured CA.
func NewClient(cfg config.CAConfig, dir *certdir.Dir, verifier Verifier, logger *slog.Logger) (*Client, error) {
	tlsConfig, err := newTLSConfig(cfg.TLS)
	if err != nil {
		return nil, &ConfigurationError{Reason: "failed to build CA TLS configuration", Err: err}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultCAConfig.Timeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: ntlmssp.Negotiator{RoundTripper: transport},
		},
		dir:      dir,
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func newTLSConfig(cfg config.CATLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if !cfg.Verify {
		tlsConfig.InsecureSkipVerify = true //nolint:gosec
		return tlsConfig, nil
	}

	if cfg.RootCAFile != "" {
		certs, err := pemfile.ReadCerts(cfg.RootCAFile)
		if err != nil {
			return nil, err
		}

		pool := x509.NewCertPool()
		for _, c := range certs {
			pool.AddCert(c)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

func (c *Client) Host() string {
	return c.cfg.Host
}

// Enroll submits the CSR, follows the retrieval link, stores the body as
// <name>.crt.tmp and runs the verifier on it. The temporary file is removed
// before Enroll returns. There are no retries.
func (c *Client) Enroll(ctx context.Context, req Request) *Result {
	start := time.Now()
	runLog := utils.NewRunLog(c.now)
	result := &Result{Status: models.EnrollmentError, ExitCode: -1}

	logger := c.logger.With("ca_host", c.cfg.Host, "name", req.Name)

	defer func() {
		result.Log = runLog.String()

		outcome := outcomeFor(result.Err)
		metrics.EnrollmentsTotal.WithLabelValues(outcome).Inc()
		metrics.EnrollmentDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

		if result.Err != nil {
			logger.Warn("certificate enrollment failed", "error", result.Err, "duration", time.Since(start))
		} else {
			logger.Info("certificate enrollment succeeded", "duration", time.Since(start))
		}
	}()

	fail := func(message string, err error) *Result {
		result.Message = message
		result.Err = err
		runLog.Errorf("%s", message)
		return result
	}

	if strings.TrimSpace(req.CSR) == "" {
		return fail("No CSR content provided.", fmt.Errorf("%w: empty CSR", ErrInput))
	}
	if err := certdir.ValidateName(req.Name); err != nil {
		return fail("Invalid certificate name.", fmt.Errorf("%w: %w", ErrInput, err))
	}

	runLog.Printf("Requesting certificate from CA for %s", req.Name)
	runLog.Printf("Certificate template: %s", c.cfg.Template)

	submitURL := "https://" + c.cfg.Host + submitPath
	runLog.Printf("Submitting request to %s", submitURL)

	body, err := c.do(ctx, http.MethodPost, submitURL, strings.NewReader(submissionBody(req.CSR, c.cfg.Template)))
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) {
			perr.Op = "CA request"
			runLog.Printf("Response snippet: %s", perr.Snippet)
			return fail("Failed to submit certificate request to CA.", perr)
		}
		return fail("Error requesting certificate from CA: "+err.Error(), &TransportError{Op: "submit certificate request", Err: err})
	}
	runLog.Printf("CA submission successful (HTTP 200), parsing response for retrieval link")

	link, err := ParseRetrievalLink(body)
	if err != nil {
		snippet := utils.Truncate(string(body), snippetLength)
		runLog.Printf("Response snippet: %s", snippet)
		return fail("Failed to parse CA response for certificate link.", &ProtocolError{
			Op:         "parse CA response",
			StatusCode: http.StatusOK,
			Snippet:    snippet,
			Reason:     "failed to parse CA response for certificate link",
		})
	}

	certURL := "https://" + c.cfg.Host + retrievePath + link
	runLog.Printf("Certificate retrieval link found: %s", certURL)

	certData, err := c.do(ctx, http.MethodGet, certURL, nil)
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) {
			perr.Op = "CA retrieval"
			runLog.Printf("Response snippet: %s", perr.Snippet)
			return fail("Failed to retrieve certificate from CA.", perr)
		}
		return fail("Error retrieving certificate: "+err.Error(), &TransportError{Op: "retrieve certificate", Err: err})
	}
	result.Certificate = certData
	runLog.Printf("Certificate data retrieved from CA (%d bytes)", len(certData))

	tmpName := certdir.TemporaryCertFile(req.Name)
	if err := c.dir.WriteFile(tmpName, certData); err != nil {
		return fail(fmt.Sprintf("Server error: could not save certificate to %s for verification.", tmpName),
			&ConfigurationError{Reason: "could not write temporary certificate", Err: err})
	}
	defer func() {
		if err := c.dir.Remove(tmpName); err != nil {
			logger.Error("failed to remove temporary certificate", "file", tmpName, "error", err)
			return
		}
		runLog.Printf("Temporary certificate file removed")
	}()
	runLog.Printf("Certificate saved temporarily for verification: %s", tmpName)

	tmpPath, err := c.dir.File(tmpName)
	if err != nil {
		return fail("Invalid certificate name.", fmt.Errorf("%w: %w", ErrInput, err))
	}

	verification := c.verifier.Verify(ctx, tmpPath)
	result.ExitCode = verification.ExitCode
	result.VerificationOutput = verification.Output
	runLog.Section("Verification output", verification.Output)

	if !verification.OK() {
		return fail(
			fmt.Sprintf("Certificate verification failed. Verifier exit code: %d. Output: %s", verification.ExitCode, verification.Output),
			&VerificationError{ExitCode: verification.ExitCode, Output: verification.Output},
		)
	}

	runLog.Printf("Certificate verification successful")
	result.Status = models.EnrollmentSuccess
	return result
}

// do performs one CA round trip. A non-200 answer is returned as a
// *ProtocolError, anything below HTTP as a plain error.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", headerAccept)
	req.Header.Set("Accept-Language", headerAcceptLanguage)
	req.Header.Set("Referer", "https://"+c.cfg.Host+refererPath)
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Content-Type", headerContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if len(data) > maxBodyBytes {
		return nil, &ProtocolError{
			StatusCode: resp.StatusCode,
			Snippet:    utils.Truncate(string(data), snippetLength),
			Reason:     fmt.Sprintf("response body exceeds %d bytes", maxBodyBytes),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProtocolError{
			StatusCode: resp.StatusCode,
			Snippet:    utils.Truncate(string(data), snippetLength),
		}
	}

	return data, nil
}

func (c *Client) userAgent() string {
	if c.cfg.UserAgent != "" {
		return c.cfg.UserAgent
	}
	return config.DefaultCAConfig.UserAgent
}

func outcomeFor(err error) string {
	var (
		transportErr     *TransportError
		protocolErr      *ProtocolError
		verificationErr  *VerificationError
		configurationErr *ConfigurationError
	)

	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrInput):
		return outcomeInput
	case errors.As(err, &transportErr):
		return outcomeTransport
	case errors.As(err, &protocolErr):
		return outcomeProtocol
	case errors.As(err, &verificationErr):
		return outcomeVerification
	case errors.As(err, &configurationErr):
		return outcomeConfiguration
	default:
		return outcomeTransport
	}
}

package enrollment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certer/internal/certdir"
	"certer/internal/config"
	"certer/internal/models"
)

const (
	testCSR = "-----BEGIN CERTIFICATE REQUEST-----\nMIIB+xyz/ab==\n-----END CERTIFICATE REQUEST-----\n"
	testCRT = "-----BEGIN CERTIFICATE-----\nMIIC\n-----END CERTIFICATE-----\n"

	submitPage = `<html><script>
function handleGetCert() {
    location.href = "certnew.cer?ReqID=7&Enc=b64";
}
</script></html>`
)

type fakeVerifier struct {
	result   Verification
	calls    int
	contents string
	path     string
}

func (v *fakeVerifier) Verify(ctx context.Context, certFile string) Verification {
	v.calls++
	v.path = certFile
	data, _ := os.ReadFile(certFile)
	v.contents = string(data)
	return v.result
}

type fakeCA struct {
	submitStatus   int
	submitBody     string
	retrieveStatus int
	retrieveBody   string

	submits   atomic.Int32
	retrieves atomic.Int32

	certRequest string
	certAttrib  string
	headers     http.Header
}

func (ca *fakeCA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != "svc" || pass != "secret" {
		w.Header().Set("WWW-Authenticate", `Basic realm="certsrv"`)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/certsrv/certfnsh.asp":
		ca.submits.Add(1)
		ca.headers = r.Header.Clone()
		if err := r.ParseForm(); err == nil {
			ca.certRequest = r.PostForm.Get("CertRequest")
			ca.certAttrib = r.PostForm.Get("CertAttrib")
		}
		w.WriteHeader(ca.submitStatus)
		_, _ = w.Write([]byte(ca.submitBody))
	case r.Method == http.MethodGet && r.URL.Path == "/certsrv/certnew.cer":
		ca.retrieves.Add(1)
		if r.URL.Query().Get("ReqID") != "7" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(ca.retrieveStatus)
		_, _ = w.Write([]byte(ca.retrieveBody))
	default:
		http.NotFound(w, r)
	}
}

func newHappyCA() *fakeCA {
	return &fakeCA{
		submitStatus:   http.StatusOK,
		submitBody:     submitPage,
		retrieveStatus: http.StatusOK,
		retrieveBody:   testCRT,
	}
}

func newTestClient(t *testing.T, ca http.Handler, verifier Verifier) (*Client, *certdir.Dir, *httptest.Server) {
	t.Helper()

	srv := httptest.NewTLSServer(ca)
	t.Cleanup(srv.Close)

	dir, err := certdir.Open(t.TempDir())
	require.NoError(t, err)

	client, err := NewClient(config.CAConfig{
		Host:     strings.TrimPrefix(srv.URL, "https://"),
		Username: "svc",
		Password: "secret",
		Template: "WebServer",
		Timeout:  5 * time.Second,
	}, dir, verifier, nil)
	require.NoError(t, err)

	return client, dir, srv
}

func TestClient_EnrollSuccess(t *testing.T) {
	ca := newHappyCA()
	verifier := &fakeVerifier{result: Verification{ExitCode: 0, Output: "srv1.crt.tmp: OK"}}
	client, dir, _ := newTestClient(t, ca, verifier)

	result := client.Enroll(context.Background(), Request{CSR: testCSR, Name: "srv1"})

	require.NoError(t, result.Err)
	assert.Equal(t, models.EnrollmentSuccess, result.Status)
	assert.True(t, result.Succeeded())
	assert.Equal(t, testCRT, string(result.Certificate))
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "srv1.crt.tmp: OK", result.VerificationOutput)

	assert.Equal(t, int32(1), ca.submits.Load())
	assert.Equal(t, int32(1), ca.retrieves.Load())

	assert.Equal(t, "-----BEGIN+CERTIFICATE+REQUEST-----MIIB+xyz/ab==-----END+CERTIFICATE+REQUEST-----", ca.certRequest)
	assert.Equal(t, "CertificateTemplate:WebServer\r\n", ca.certAttrib)

	assert.Equal(t, headerAccept, ca.headers.Get("Accept"))
	assert.Equal(t, headerAcceptLanguage, ca.headers.Get("Accept-Language"))
	assert.Equal(t, headerContentType, ca.headers.Get("Content-Type"))
	assert.Equal(t, config.DefaultCAConfig.UserAgent, ca.headers.Get("User-Agent"))
	assert.Equal(t, "https://"+client.Host()+"/certsrv/certrqxt.asp", ca.headers.Get("Referer"))

	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, testCRT, verifier.contents)
	assert.True(t, strings.HasSuffix(verifier.path, "srv1.crt.tmp"))
	assert.False(t, dir.Exists("srv1.crt.tmp"))

	assert.Contains(t, result.Log, "Certificate retrieval link found")
	assert.Contains(t, result.Log, "Temporary certificate file removed")
	assert.Contains(t, result.Log, "Certificate verification successful")
}

func TestClient_EnrollSubmitHTTPError(t *testing.T) {
	ca := newHappyCA()
	ca.submitStatus = http.StatusServiceUnavailable
	ca.submitBody = strings.Repeat("x", 800)
	verifier := &fakeVerifier{}
	client, _, _ := newTestClient(t, ca, verifier)

	result := client.Enroll(context.Background(), Request{CSR: testCSR, Name: "srv1"})

	assert.Equal(t, models.EnrollmentError, result.Status)
	assert.Equal(t, "Failed to submit certificate request to CA.", result.Message)

	var perr *ProtocolError
	require.True(t, errors.As(result.Err, &perr))
	assert.True(t, perr.HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.Len(t, perr.Snippet, 500)

	assert.Equal(t, int32(0), ca.retrieves.Load())
	assert.Equal(t, 0, verifier.calls)
}

func TestClient_EnrollMissingRetrievalLink(t *testing.T) {
	ca := newHappyCA()
	ca.submitBody = "<html>Certificate Pending</html>"
	verifier := &fakeVerifier{}
	client, _, _ := newTestClient(t, ca, verifier)

	result := client.Enroll(context.Background(), Request{CSR: testCSR, Name: "srv1"})

	assert.Equal(t, models.EnrollmentError, result.Status)
	assert.Equal(t, "Failed to parse CA response for certificate link.", result.Message)

	var perr *ProtocolError
	require.True(t, errors.As(result.Err, &perr))
	assert.False(t, perr.HTTPStatus())
	assert.Equal(t, "<html>Certificate Pending</html>", perr.Snippet)
	assert.Contains(t, result.Err.Error(), "failed to parse CA response for certificate link")
	assert.Equal(t, int32(0), ca.retrieves.Load())
}

func TestClient_EnrollRetrievalHTTPError(t *testing.T) {
	ca := newHappyCA()
	ca.retrieveStatus = http.StatusNotFound
	ca.retrieveBody = "gone"
	verifier := &fakeVerifier{}
	client, dir, _ := newTestClient(t, ca, verifier)

	result := client.Enroll(context.Background(), Request{CSR: testCSR, Name: "srv1"})

	assert.Equal(t, "Failed to retrieve certificate from CA.", result.Message)

	var perr *ProtocolError
	require.True(t, errors.As(result.Err, &perr))
	assert.Equal(t, http.StatusNotFound, perr.StatusCode)
	assert.Equal(t, "CA retrieval", perr.Op)
	assert.Equal(t, 0, verifier.calls)
	assert.False(t, dir.Exists("srv1.crt.tmp"))
}

func TestClient_EnrollRejectsOversizedCertificate(t *testing.T) {
	ca := newHappyCA()
	ca.retrieveBody = testCRT + strings.Repeat("A", maxBodyBytes)
	verifier := &fakeVerifier{}
	client, dir, _ := newTestClient(t, ca, verifier)

	result := client.Enroll(context.Background(), Request{CSR: testCSR, Name: "srv1"})

	assert.Equal(t, models.EnrollmentError, result.Status)
	assert.Equal(t, "Failed to retrieve certificate from CA.", result.Message)
	assert.Empty(t, result.Certificate)

	var perr *ProtocolError
	require.True(t, errors.As(result.Err, &perr))
	assert.Equal(t, "CA retrieval", perr.Op)
	assert.Contains(t, perr.Error(), "exceeds")
	assert.Equal(t, 0, verifier.calls)
	assert.False(t, dir.Exists("srv1.crt.tmp"))
}

func TestClient_EnrollVerificationFailure(t *testing.T) {
	ca := newHappyCA()
	verifier := &fakeVerifier{result: Verification{ExitCode: 2, Output: "error 20 at 0 depth lookup: unable to get local issuer certificate"}}
	client, dir, _ := newTestClient(t, ca, verifier)

	result := client.Enroll(context.Background(), Request{CSR: testCSR, Name: "srv1"})

	assert.Equal(t, models.EnrollmentError, result.Status)
	assert.Equal(t, testCRT, string(result.Certificate))
	assert.Equal(t, 2, result.ExitCode)
	assert.Contains(t, result.Message, "Verifier exit code: 2")

	var verr *VerificationError
	require.True(t, errors.As(result.Err, &verr))
	assert.Equal(t, 2, verr.ExitCode)
	assert.Contains(t, verr.Output, "unable to get local issuer certificate")

	assert.False(t, dir.Exists("srv1.crt.tmp"))
}

func TestClient_EnrollInvalidInput(t *testing.T) {
	ca := newHappyCA()
	client, _, _ := newTestClient(t, ca, &fakeVerifier{})

	tests := []struct {
		name string
		req  Request
	}{
		{name: "empty csr", req: Request{CSR: "  \n", Name: "srv1"}},
		{name: "bad name", req: Request{CSR: testCSR, Name: "../srv1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := client.Enroll(context.Background(), tt.req)
			assert.ErrorIs(t, result.Err, ErrInput)
			assert.Equal(t, models.EnrollmentError, result.Status)
		})
	}

	assert.Equal(t, int32(0), ca.submits.Load())
}

func TestClient_EnrollTransportError(t *testing.T) {
	client, _, srv := newTestClient(t, newHappyCA(), &fakeVerifier{})
	srv.Close()

	result := client.Enroll(context.Background(), Request{CSR: testCSR, Name: "srv1"})

	var terr *TransportError
	require.True(t, errors.As(result.Err, &terr))
	assert.Contains(t, result.Message, "Error requesting certificate from CA")
	assert.Equal(t, outcomeTransport, outcomeFor(result.Err))
}

func TestClient_EnrollCancelledContext(t *testing.T) {
	client, _, _ := newTestClient(t, newHappyCA(), &fakeVerifier{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := client.Enroll(ctx, Request{CSR: testCSR, Name: "srv1"})

	var terr *TransportError
	require.True(t, errors.As(result.Err, &terr))
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestResult_Model(t *testing.T) {
	r := &Result{
		Status:             models.EnrollmentSuccess,
		Certificate:        []byte(testCRT),
		VerificationOutput: "OK",
		Log:                "log",
	}

	m := r.Model()
	assert.Equal(t, models.EnrollmentSuccess, m.Status)
	assert.Equal(t, testCRT, m.Certificate)
	assert.Equal(t, "OK", m.VerificationOutput)
}

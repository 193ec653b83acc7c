package handlers

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"software.sslmate.com/src/go-pkcs12"

	"certer/internal/certdir"
	"certer/internal/csrgen"
	"certer/internal/metrics"
	"certer/internal/middlewares"
	"certer/internal/models"
	"certer/internal/utils"
)

const minPassphraseLength = 12

type P12Request struct {
	Passphrase string `json:"passphrase"`
}

// GETFile serves one artifact from the certificate directory. Only the base
// name of the requested path is used.
func GETFile(ctx *middlewares.AppContext) {
	name := certdir.BaseName(chi.URLParam(ctx.Request, "name"))
	if err := certdir.ValidateName(name); err != nil {
		ctx.SetJSONError(http.StatusBadRequest, "Invalid file name")
		return
	}

	data, err := ctx.Artifacts.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		ctx.SetJSONError(http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	if err != nil {
		ctx.Logger.Error("failed to read artifact", "file", name, "error", err)
		ctx.SetJSONError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	auditDownload(ctx, name, artifactKind(name))

	writeAttachment(ctx, name, "application/octet-stream", data)
}

// POSTFileP12 bundles <cn>.key and <cn>.crt into a passphrase protected
// PKCS#12 file.
func POSTFileP12(ctx *middlewares.AppContext) {
	cn := certdir.BaseName(chi.URLParam(ctx.Request, "name"))
	if err := certdir.ValidateName(cn); err != nil {
		ctx.SetJSONError(http.StatusBadRequest, "Invalid file name")
		return
	}

	var req P12Request
	body := http.MaxBytesReader(ctx.Response, ctx.Request.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		ctx.SetJSONError(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if len(req.Passphrase) < minPassphraseLength {
		ctx.SetJSONError(http.StatusBadRequest, fmt.Sprintf("passphrase must be at least %d characters", minPassphraseLength))
		return
	}

	if !ctx.Artifacts.Exists(certdir.KeyFile(cn)) || !ctx.Artifacts.Exists(certdir.CertificateFile(cn)) {
		ctx.SetJSONError(http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}

	p12, err := buildP12(ctx.Artifacts, cn, req.Passphrase)
	if err != nil {
		ctx.Logger.Error("failed to generate P12", "hostname", cn, "error", err)
		ctx.SetJSONError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	auditDownload(ctx, cn+".p12", "p12")

	writeAttachment(ctx, cn+".p12", "application/x-pkcs12", p12)
}

func buildP12(dir *certdir.Dir, cn, passphrase string) ([]byte, error) {
	keyPath, err := dir.File(certdir.KeyFile(cn))
	if err != nil {
		return nil, err
	}

	key, err := csrgen.LoadPrivateKey(keyPath)
	if err != nil {
		return nil, err
	}

	certPEM, err := dir.ReadFile(certdir.CertificateFile(cn))
	if err != nil {
		return nil, err
	}

	certs, err := utils.ParseCertificateBundle(certPEM)
	if err != nil {
		return nil, err
	}

	var chain []*x509.Certificate
	if len(certs) > 1 {
		chain = certs[1:]
	}

	p12, err := pkcs12.Modern.Encode(key, certs[0], chain, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to encode PKCS12: %w", err)
	}

	return p12, nil
}

func auditDownload(ctx *middlewares.AppContext, name, kind string) {
	username, _ := ctx.SessionManager.GetUsername(ctx)
	browser, os := utils.DescribeUserAgent(ctx.Request.UserAgent())

	record := models.ArtifactDownload{
		File:         name,
		Kind:         kind,
		Username:     username,
		IPAddress:    middlewares.ClientIP(ctx.Request),
		UserAgent:    ctx.Request.UserAgent(),
		BrowserName:  browser,
		OSName:       os,
		DownloadedAt: time.Now(),
	}
	ctx.Logger.Info("artifact downloaded", record.LogAttrs()...)

	metrics.DownloadsTotal.WithLabelValues(kind).Inc()
}

func artifactKind(name string) string {
	switch {
	case strings.HasSuffix(name, certdir.SuffixKey):
		return "key"
	case strings.HasSuffix(name, certdir.SuffixCSR):
		return "csr"
	case strings.HasSuffix(name, certdir.SuffixCertificate):
		return "certificate"
	case strings.HasSuffix(name, certdir.SuffixRequestConfig):
		return "request_config"
	case strings.HasSuffix(name, certdir.SuffixHostConfig):
		return "host_config"
	default:
		return "other"
	}
}

func writeAttachment(ctx *middlewares.AppContext, name, contentType string, data []byte) {
	ctx.Response.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	ctx.Response.Header().Set("Content-Type", contentType)
	ctx.Response.Header().Set("Content-Length", strconv.Itoa(len(data)))
	ctx.Response.Header().Set("X-Content-Type-Options", "nosniff")

	if _, err := ctx.Response.Write(data); err != nil {
		ctx.Logger.Error("failed to write artifact", "file", name, "error", err)
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"certer/internal/certdir"
	"certer/internal/enrollment"
	"certer/internal/middlewares"
)

const maxCSRFormBytes = 1 << 20

type CertificateRequestResponse struct {
	Status             string `json:"status"`
	Certificate        string `json:"certificate"`
	VerificationOutput string `json:"verification_output"`
}

type CertificateRequestError struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	Details           string `json:"details,omitempty"`
	VerificationError string `json:"verification_error,omitempty"`
	VerifierExitCode  *int   `json:"verifier_exit_code,omitempty"`
}

// POSTCertificateRequest submits a caller supplied CSR to the CA without
// going through the wizard. Form fields: csr_content, cert_name (optional).
func POSTCertificateRequest(ctx *middlewares.AppContext) {
	if ctx.Request.Method != http.MethodPost {
		ctx.Response.Header().Set("Allow", http.MethodPost)
		ctx.WriteJSON(http.StatusMethodNotAllowed, CertificateRequestError{
			Status:  "error",
			Message: "Invalid request method. Only POST is allowed.",
		})
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Response, ctx.Request.Body, maxCSRFormBytes)

	csr := strings.TrimSpace(ctx.Request.FormValue("csr_content"))
	if csr == "" {
		ctx.WriteJSON(http.StatusBadRequest, CertificateRequestError{
			Status:  "error",
			Message: "CSR content is missing.",
		})
		return
	}

	name := certdir.SanitizeName(ctx.Request.FormValue("cert_name"))
	if name == "" {
		name = "cert_" + uuid.New().String()
	}

	if err := ctx.Artifacts.CheckWritable(); err != nil {
		ctx.Logger.Error("certificate directory is not writable", "error", err)
		ctx.WriteJSON(http.StatusInternalServerError, CertificateRequestError{
			Status:  "error",
			Message: "Certificate directory is not writable.",
		})
		return
	}

	result := ctx.Enroller.Enroll(ctx, enrollment.Request{CSR: csr, Name: name})

	if result.Succeeded() {
		ctx.Logger.Info("standalone certificate request succeeded", "name", name)
		ctx.WriteJSON(http.StatusOK, CertificateRequestResponse{
			Status:             "success",
			Certificate:        string(result.Certificate),
			VerificationOutput: result.VerificationOutput,
		})
		return
	}

	status, body := certificateRequestFailure(result)
	ctx.Logger.Warn("standalone certificate request failed", "name", name, "status", status, "error", result.Err)
	ctx.WriteJSON(status, body)
}

func certificateRequestFailure(result *enrollment.Result) (int, CertificateRequestError) {
	body := CertificateRequestError{
		Status:  "error",
		Message: result.Message,
	}
	if result.Err != nil {
		body.Details = result.Err.Error()
	}

	var verificationErr *enrollment.VerificationError
	var protocolErr *enrollment.ProtocolError

	switch {
	case errors.Is(result.Err, enrollment.ErrInput):
		return http.StatusBadRequest, body
	case errors.As(result.Err, &verificationErr):
		exitCode := verificationErr.ExitCode
		body.VerificationError = verificationErr.Output
		body.VerifierExitCode = &exitCode
		return http.StatusUnprocessableEntity, body
	case errors.As(result.Err, &protocolErr) && protocolErr.HTTPStatus():
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

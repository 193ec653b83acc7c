package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certer/internal/middlewares"
	"certer/internal/models"
	"certer/internal/utils"
	"certer/internal/workflow"
)

// WorkflowResponse is what the wizard UI renders for the current step.
type WorkflowResponse struct {
	Step            models.WorkflowStep        `json:"step"`
	StepName        string                     `json:"step_name"`
	Draft           *models.SubjectProfile     `json:"draft,omitempty"`
	KeyExists       bool                       `json:"key_exists"`
	Submitted       *models.SubjectProfile     `json:"submitted,omitempty"`
	ForceRegenerate bool                       `json:"force_regenerate"`
	Status          models.GenerationStatus    `json:"status,omitempty"`
	GeneratedFiles  []string                   `json:"generated_files,omitempty"`
	Log             string                     `json:"log,omitempty"`
	Enrollment      *models.EnrollmentResult   `json:"enrollment,omitempty"`
	Certificate     *models.CertificateDetails `json:"certificate,omitempty"`
	CanReset        bool                       `json:"can_reset"`
}

func newWorkflowResponse(ctx *middlewares.AppContext, s workflow.State) WorkflowResponse {
	resp := WorkflowResponse{
		Step:            s.Step,
		StepName:        s.Step.String(),
		Draft:           s.Draft,
		KeyExists:       s.KeyExists,
		Submitted:       s.Submitted,
		ForceRegenerate: s.ForceRegenerate,
		Status:          s.Status,
		GeneratedFiles:  s.GeneratedFiles,
		Log:             s.Log,
		Enrollment:      s.Enrollment,
		CanReset:        s.Failed(),
	}

	if s.Enrollment != nil && s.Enrollment.Status == models.EnrollmentSuccess {
		details, err := utils.ParseCertificateDetails([]byte(s.Enrollment.Certificate))
		if err != nil {
			ctx.Logger.Warn("failed to parse issued certificate", "error", err)
		} else {
			resp.Certificate = details
		}
	}

	return resp
}

func currentState(ctx *middlewares.AppContext) workflow.State {
	if state, ok := ctx.SessionManager.GetWorkflowState(ctx); ok {
		return state
	}
	return workflow.Fresh()
}

// GETWorkflow returns the state to render. Reading consumes the one-shot
// completion marker, so the stored state is written back.
func GETWorkflow(ctx *middlewares.AppContext) {
	state := workflow.Observe(currentState(ctx))
	ctx.SessionManager.SetWorkflowState(ctx, state)

	ctx.WriteJSON(http.StatusOK, newWorkflowResponse(ctx, state))
}

func POSTWorkflowAction(ctx *middlewares.AppContext) {
	action, ok := workflow.ParseAction(chi.URLParam(ctx.Request, "action"))
	if !ok {
		ctx.SetJSONError(http.StatusNotFound, "Unknown workflow action")
		return
	}

	var in workflow.Input
	body := http.MaxBytesReader(ctx.Response, ctx.Request.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		ctx.SetJSONError(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}
	in.Action = action

	state := currentState(ctx)

	next, err := ctx.Workflow.Apply(ctx, state, in)
	switch {
	case errors.Is(err, workflow.ErrInvalidInput):
		ctx.SetJSONError(http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, workflow.ErrInvalidTransition):
		ctx.SetJSONError(http.StatusConflict, err.Error())
		return
	case err != nil:
		ctx.Logger.Error("workflow action failed", "action", action, "error", err)
		ctx.SetJSONError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	ctx.SessionManager.SetWorkflowState(ctx, next)

	if action == workflow.ActionSubmit && next.Submitted != nil {
		username, _ := ctx.SessionManager.GetUsername(ctx)
		ctx.Logger.Info("certificate run finished",
			"username", username,
			"hostname", next.Submitted.CommonName,
			"status", next.Status)
	}

	ctx.WriteJSON(http.StatusOK, newWorkflowResponse(ctx, next))
}

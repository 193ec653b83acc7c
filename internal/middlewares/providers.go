package middlewares

import (
	"context"

	"certer/internal/enrollment"
	"certer/internal/workflow"
)

//go:generate mockgen -source=providers.go -destination=../mocks/providers.go -package=mocks

// WorkflowEngine applies one wizard action to a session's state.
type WorkflowEngine interface {
	Apply(ctx context.Context, state workflow.State, in workflow.Input) (workflow.State, error)
}

// CertificateEnroller submits a CSR to the CA and returns the verified result.
type CertificateEnroller interface {
	Enroll(ctx context.Context, req enrollment.Request) *enrollment.Result
}

package middlewares

import (
	"net/http"
	"time"

	"certer/internal/workflow"
)

//go:generate mockgen -source=session_provider.go -destination=../mocks/session.go -package=mocks

type SessionProvider interface {
	SetAuthenticated(ctx *AppContext, username string)
	IsAuthenticated(ctx *AppContext) bool
	GetUsername(ctx *AppContext) (string, bool)
	GetLoginAt(ctx *AppContext) (time.Time, bool)
	GetWorkflowState(ctx *AppContext) (workflow.State, bool)
	SetWorkflowState(ctx *AppContext, state workflow.State)
	RenewToken(ctx *AppContext) error
	Logout(ctx *AppContext) error

	LoadAndSave(next http.Handler) http.Handler
}

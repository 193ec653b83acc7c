package auth

type SessionKey string

const (
	SessionKeyAuthenticated SessionKey = "authenticated"
	SessionKeyUsername      SessionKey = "username"
	SessionKeyLoginAt       SessionKey = "login_at"
	SessionKeyWorkflow      SessionKey = "workflow_state"
)

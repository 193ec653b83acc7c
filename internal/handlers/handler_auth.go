package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"certer/internal/auth"
	"certer/internal/middlewares"
)

const maxJSONBodyBytes = 64 << 10

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthStatusResponse struct {
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	LoginAt       *time.Time `json:"login_at,omitempty"`
}

func POSTLogin(ctx *middlewares.AppContext) {
	var req LoginRequest
	body := http.MaxBytesReader(ctx.Response, ctx.Request.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		ctx.SetJSONError(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	err := auth.CheckCredentials(ctx.Config.Auth, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		ctx.Logger.Warn("login failed", "username", req.Username, "client_ip", middlewares.ClientIP(ctx.Request))
		ctx.SetJSONError(http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		ctx.Logger.Error("failed to check credentials", "error", err)
		ctx.SetJSONError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	if err := ctx.SessionManager.RenewToken(ctx); err != nil {
		ctx.Logger.Error("failed to renew session token", "error", err)
		ctx.SetJSONError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	ctx.SessionManager.SetAuthenticated(ctx, req.Username)
	ctx.Logger.Info("user logged in", "username", req.Username)

	ctx.WriteJSON(http.StatusOK, AuthStatusResponse{
		Authenticated: true,
		Username:      req.Username,
	})
}

func GETAuthStatus(ctx *middlewares.AppContext) {
	if !ctx.SessionManager.IsAuthenticated(ctx) {
		ctx.WriteJSON(http.StatusUnauthorized, AuthStatusResponse{Authenticated: false})
		return
	}

	response := AuthStatusResponse{Authenticated: true}
	response.Username, _ = ctx.SessionManager.GetUsername(ctx)
	if at, ok := ctx.SessionManager.GetLoginAt(ctx); ok {
		response.LoginAt = &at
	}

	ctx.WriteJSON(http.StatusOK, response)
}

func POSTLogout(ctx *middlewares.AppContext) {
	if !ctx.SessionManager.IsAuthenticated(ctx) {
		ctx.SetJSONError(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	username, _ := ctx.SessionManager.GetUsername(ctx)

	if err := ctx.SessionManager.Logout(ctx); err != nil {
		ctx.Logger.Error("Failed to logout user", "error", err)
		ctx.SetJSONError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	ctx.Logger.Info("User logged out", "username", username)
	ctx.SetJSONStatus(http.StatusOK, "OK")
}

package handlers

import (
	"net/http"

	"certer/internal/middlewares"
)

func GETHealth(ctx *middlewares.AppContext) {
	if ctx.Artifacts != nil {
		if err := ctx.Artifacts.CheckWritable(); err != nil {
			ctx.Logger.Warn("health check failed", "error", err)
			ctx.SetJSONStatus(http.StatusServiceUnavailable, "certificate directory not writable")
			return
		}
	}

	ctx.SetJSONStatus(http.StatusOK, "OK")
}

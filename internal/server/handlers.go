package server

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"certer/internal/handlers"
	"certer/internal/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// enrollmentTimeout must stay above ca.timeout.
const enrollmentTimeout = 120 * time.Second

func setupRouter(ctx *middlewares.AppContext) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middlewares.ClientIPMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.MetricsMiddleware)
	r.Use(middleware.Timeout(enrollmentTimeout))

	r.Use(ctx.SessionManager.LoadAndSave)

	r.Use(middlewares.AppContextMiddleware(ctx))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ctx.Config.CORS.AllowedOrigins,
		AllowedMethods:   ctx.Config.CORS.AllowedMethods,
		AllowedHeaders:   ctx.Config.CORS.AllowedHeaders,
		ExposedHeaders:   ctx.Config.CORS.ExposedHeaders,
		AllowCredentials: ctx.Config.CORS.AllowCredentials,
		MaxAge:           ctx.Config.CORS.MaxAgeSeconds,
	}))

	r.Use(middleware.Compress(5))

	static := ctx.Config.Server.StaticDir
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(filepath.Join(static, "assets")))))
	r.Handle("/favicon.ico", http.FileServer(http.Dir(static)))

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(static, "index.html"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/status", ctx.HandlerFunc(handlers.GETAuthStatus))
			r.Post("/login", ctx.HandlerFunc(handlers.POSTLogin))
			r.Post("/logout", ctx.HandlerFunc(handlers.POSTLogout))
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireAuth)

			r.Route("/workflow", func(r chi.Router) {
				r.Get("/", ctx.HandlerFunc(handlers.GETWorkflow))
				r.Post("/{action}", ctx.HandlerFunc(handlers.POSTWorkflowAction))
			})

			r.Handle("/certificates/request", ctx.HandlerFunc(handlers.POSTCertificateRequest))

			r.Route("/files/{name}", func(r chi.Router) {
				r.Get("/", ctx.HandlerFunc(handlers.GETFile))
				r.Post("/p12", ctx.HandlerFunc(handlers.POSTFileP12))
			})
		})

		r.Route("/v1", func(r chi.Router) {
			r.Get("/health", ctx.HandlerFunc(handlers.GETHealth))
		})
	})

	return r
}

func setupDebugRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/debug", middleware.Profiler())

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

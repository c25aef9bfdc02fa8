package handlers

import (
	"net/http"

	"financeflow/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts all routes and the middleware chain.
//
// Public:
//
//	GET  /login   GET  /signup   POST /login   POST /signup   POST /logout
//	GET  /static/*
//
// Authenticated (RequireUser resolves the token once per request):
//
//	GET  /             dashboard
//	POST /transactions add record
//	GET  /export.csv   ledger download
func NewRouter(h *Handlers, staticDir string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogging(log))

	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/signup", h.SignupForm)
	r.Post("/signup", h.Signup)
	r.Post("/logout", h.Logout)

	fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
	r.Get("/static/*", fileServer.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireUser)
		r.Get("/", h.Dashboard)
		r.Post("/transactions", h.AddTransaction)
		r.Get("/export.csv", h.ExportCSV)
	})

	return r
}

// Package handlers serves the web pages over the core services: the
// session/identity service for authentication and the storage layer for
// the ledger. All dependencies arrive through NewHandlers; nothing here
// reaches for ambient globals.
package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"financeflow/internal/auth"
	"financeflow/internal/models"
	"financeflow/internal/session"
	"financeflow/internal/storage"

	"go.uber.org/zap"
)

// Context key type to avoid collisions.
type contextKey string

// userContextKey is the context key for the resolved user.
const userContextKey contextKey = "user"

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store       *storage.DB
	sessions    *session.Service
	templateDir string
	log         *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *storage.DB, sessions *session.Service, templateDir string, log *zap.Logger) *Handlers {
	return &Handlers{store: store, sessions: sessions, templateDir: templateDir, log: log}
}

// UserFromContext retrieves the resolved user from request context.
func UserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// RequireUser resolves the persisted session token once per request and
// routes anonymous visitors to the login page.
func (h *Handlers) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.sessions.Resolve(r.Context(), session.TokenFromRequest(r))
		if err != nil {
			h.log.Error("resolve session", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthViewModel holds data for the login and signup pages.
type AuthViewModel struct {
	Error  string
	Notice string
}

// LoginForm renders the login page, skipping straight to the dashboard
// when the visitor already resolves to a user.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if user, err := h.sessions.Resolve(r.Context(), session.TokenFromRequest(r)); err == nil && user != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, "login.html", AuthViewModel{})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", AuthViewModel{Error: "Invalid form submission."})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.render(w, "login.html", AuthViewModel{Error: "Username and password are required."})
		return
	}

	token, err := h.sessions.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			h.render(w, "login.html", AuthViewModel{Error: err.Error()})
			return
		}
		h.log.Error("login", zap.Error(err))
		h.render(w, "login.html", AuthViewModel{Error: "An error occurred. Please try again."})
		return
	}

	h.sessions.IssueCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

// SignupForm renders the account creation page.
func (h *Handlers) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "signup.html", AuthViewModel{})
}

// Signup handles the account creation form submission.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "signup.html", AuthViewModel{Error: "Invalid form submission."})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm")

	if username == "" || password == "" {
		h.render(w, "signup.html", AuthViewModel{Error: "Username and password are required."})
		return
	}
	if password != confirm {
		h.render(w, "signup.html", AuthViewModel{Error: "Passwords do not match."})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		h.render(w, "signup.html", AuthViewModel{Error: "An error occurred. Please try again."})
		return
	}

	if _, err := h.store.CreateUser(r.Context(), username, hash); err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			h.render(w, "signup.html", AuthViewModel{Error: err.Error()})
			return
		}
		h.log.Error("create user", zap.Error(err))
		h.render(w, "signup.html", AuthViewModel{Error: "An error occurred. Please try again."})
		return
	}

	h.render(w, "login.html", AuthViewModel{Notice: "Account created! Please sign in."})
}

// Logout destroys the persisted token. Idempotent: logging out while
// already anonymous is a no-op.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) render(w http.ResponseWriter, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		h.log.Error("parse template", zap.String("view", viewName), zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		h.log.Error("execute template", zap.String("view", viewName), zap.Error(err))
	}
}

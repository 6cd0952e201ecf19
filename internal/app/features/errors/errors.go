// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"

	"github.com/dmoreira/cobrafacil/internal/app/system/auth"
)

// pageData is the basic view model for error pages.
type pageData struct {
	Title      string
	IsLoggedIn bool
	Role       string
	UserName   string
	Message    string
	BackURL    string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "Você não tem permissão para ver esta página.", "/")
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, "/login")
}

// RenderUnauthorized shows a friendly "sign in required" page with a 401.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	renderPage(w, r, http.StatusUnauthorized,
		"Entre para continuar", "Faça login para acessar esta página.", backURL)
}

// RenderForbidden shows a friendly access error page with a 403.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	renderPage(w, r, http.StatusForbidden, "Acesso negado", msg, backURL)
}

// renderPage writes the status and the shared error page. The status goes
// out before the template so a render failure cannot turn an error into a
// 200.
func renderPage(w http.ResponseWriter, r *http.Request, code int, title, msg, backURL string) {
	data := pageData{
		Title:   title,
		Message: msg,
		BackURL: backURL,
	}
	fillUser(r, &data)
	w.WriteHeader(code)
	templates.Render(w, r, "error_forbidden", data)
}

func fillUser(r *http.Request, data *pageData) {
	if tok, ok := auth.CurrentToken(r); ok {
		data.IsLoggedIn = true
		data.Role = tok.Role
		data.UserName = tok.Name
	}
}

package web

import (
	"log/slog"
	"net/http"

	"github.com/amavi/catalogo/internal/auth"
)

// LoginPage handles GET /admin/login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	session := GetSession(r.Context())
	if session.Authenticated() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &PageData{Title: "Login", Session: session})
}

// LoginSubmit handles POST /admin/login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if !s.Credentials.Verify(username, password) {
		slog.Warn("failed login attempt", "username", username)
		plainText(w, http.StatusUnauthorized, msgBadLogin)
		return
	}

	token, err := auth.GenerateToken(s.SessionSecret, s.Credentials.Username())
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		plainText(w, http.StatusInternalServerError, "Erro ao iniciar a sessão.")
		return
	}

	setSessionCookie(w, token, s.SecureCookies)
	slog.Info("admin logged in", "username", username)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Logout handles POST /admin/logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

package web

import (
	"context"
	"net/http"

	"github.com/amavi/catalogo/internal/auth"
)

// SessionState is the access level of a request.
type SessionState int

const (
	Anonymous SessionState = iota
	Authenticated
)

// Session is the session attached to every request.
type Session struct {
	State    SessionState
	Username string
}

// Authenticated reports whether the session is logged in.
func (s Session) Authenticated() bool {
	return s.State == Authenticated
}

type webContextKey string

const sessionKey webContextKey = "session"

const sessionCookie = "catalogo_session"

// SessionMiddleware resolves the session cookie into a Session on the
// request context. Invalid cookies are cleared and yield Anonymous.
func SessionMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := Session{State: Anonymous}

			if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
				claims, err := auth.ValidateToken(secret, cookie.Value)
				if err != nil {
					clearSessionCookie(w)
				} else {
					session = Session{State: Authenticated, Username: claims.Username}
				}
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the request session, Anonymous if none was attached.
func GetSession(ctx context.Context) Session {
	session, _ := ctx.Value(sessionKey).(Session)
	return session
}

// RequireAdmin redirects anonymous requests to the login page.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetSession(r.Context()).Authenticated() {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminJSON rejects anonymous requests with a JSON 401.
func RequireAdminJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetSession(r.Context()).Authenticated() {
			jsonMessage(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.SessionExpiry.Seconds()),
	})
}

// clearSessionCookie clears the session cookie with consistent attributes.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

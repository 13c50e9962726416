package routes

import (
	"fmt"
	"net/http"

	"github.com/haguru/choji/internal/apperror"
)

// sessionToken returns the session cookie value, or "" when there is none.
func (r *Route) sessionToken(req *http.Request) string {
	cookie, err := req.Cookie(r.Cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// requireUser returns the logged in user id or apperror.ErrAuthentication.
func (r *Route) requireUser(req *http.Request) (int64, error) {
	userID, ok, err := r.Sessions.CurrentUser(req.Context(), r.sessionToken(req))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperror.ErrAuthentication
	}
	return userID, nil
}

// startSession binds a fresh session to userID and sets its cookie.
func (r *Route) startSession(w http.ResponseWriter, req *http.Request, userID int64) error {
	token, err := r.Sessions.Start(req.Context(), r.sessionToken(req), userID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrFailedToStartSession, err)
	}
	http.SetCookie(w, r.sessionCookie(token))
	return nil
}

func (r *Route) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     r.Cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (r *Route) expiredCookie() *http.Cookie {
	cookie := r.sessionCookie("")
	cookie.MaxAge = -1
	return cookie
}

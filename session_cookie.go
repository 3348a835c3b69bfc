package via

import (
	"net/http"

	"github.com/google/uuid"
)

func newSessionID() string { return uuid.NewString() }

// sessionID reads and verifies the via_session_id cookie, returning
// ("", false) if absent or if its signature doesn't verify.
func (app *Application) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	var id string
	if err := app.cookies.Decode(SessionCookieName, cookie.Value, &id); err != nil {
		return "", false
	}
	return id, true
}

// ensureSession returns the verified session id from r, minting and
// setting a fresh signed cookie on w if none was present, per spec.md
// §6 ("Sets session cookie via_session_id ... if absent").
func (app *Application) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id, ok := app.sessionID(r); ok {
		return id
	}

	id := newSessionID()
	encoded, err := app.cookies.Encode(SessionCookieName, id)
	if err != nil {
		logf("failed to sign session cookie: %v", err)
		return id
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(SessionCookieTTL.Seconds()),
		HttpOnly: true,
	})
	return id
}

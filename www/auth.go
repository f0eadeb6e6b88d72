package www

import (
	"context"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"prodflow/access"
	"prodflow/config"
)

// sessionName is the cookie the surrounding app issues at login.
const sessionName = "prodflow-session"

// newSessionStore keys the cookie store with secret. The shipped placeholder
// is replaced by a random per-process key, so no cookie signed with a
// well-known secret is ever accepted.
func newSessionStore(secret string, logFn func(format string, args ...any)) *sessions.CookieStore {
	key := []byte(secret)
	if secret == "" || secret == config.DefaultSessionSecret {
		logFn("www: WARNING no session secret configured, session cookies will not verify across restarts")
		key = securecookie.GenerateRandomKey(32)
	}
	s := sessions.NewCookieStore(key)
	s.Options.HttpOnly = true
	s.Options.Secure = false
	s.Options.SameSite = http.SameSiteLaxMode
	return s
}

type actorKey struct{}

// identify resolves the caller from trusted gateway headers or the session
// cookie and stores it on the request context. An unknown caller gets the
// zero Actor, which resolves to no access.
func (h *Handlers) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := h.actorFromRequest(r)
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) actorFromRequest(r *http.Request) access.Actor {
	if h.trustHeaders {
		if id := r.Header.Get("X-User-Id"); id != "" {
			return access.Actor{UserID: id, Role: r.Header.Get("X-User-Role")}
		}
	}
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return access.Actor{}
	}
	userID, _ := session.Values["user_id"].(string)
	role, _ := session.Values["role"].(string)
	return access.Actor{UserID: userID, Role: role}
}

func actorFrom(r *http.Request) access.Actor {
	a, _ := r.Context().Value(actorKey{}).(access.Actor)
	return a
}

// requireIdentity rejects mutating calls from anonymous callers.
func (h *Handlers) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actorFrom(r).UserID == "" {
			h.jsonError(w, "authentication required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

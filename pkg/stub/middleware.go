package stub

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
)

type ctxKeyAuthor struct{}

var authorKey = ctxKeyAuthor{}

// getAuthor returns the session identity the auth middleware stored on the
// request context, empty for unauthenticated requests.
func getAuthor(r *http.Request) string {
	if v, ok := r.Context().Value(authorKey).(string); ok {
		return v
	}
	return ""
}

func (api *API) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			if id, err := uuid.NewV4(); err == nil {
				reqID = id.String()
			}
		}

		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r)
	})
}

func (api *API) headerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// authMiddleware resolves the bearer token to a session identity. Everything
// except /auth runs behind it.
func (api *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "No token provided")
			log.Debugf("[authMiddleware] missing token from %v", r.RemoteAddr)
			return
		}

		author, ok := api.db.Author(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			log.Debugf("[authMiddleware] unknown token from %v", r.RemoteAddr)
			return
		}

		ctx := context.WithValue(r.Context(), authorKey, author)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

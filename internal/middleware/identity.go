package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mentorlink/backend/internal/identity"
	"github.com/mentorlink/backend/pkg/utils"
)

type contextKey string

const actorKey contextKey = "actor"

// Identity builds the acting identity from the headers set by the
// upstream authentication layer. The booking core never sees a request
// without a resolved actor.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			utils.RespondError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		role, ok := identity.ParseRole(r.Header.Get("X-User-Role"))
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "X-User-Role must be student or mentor")
			return
		}

		actor := identity.Actor{ID: userID, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

// ActorFrom extracts the acting identity injected by Identity.
func ActorFrom(ctx context.Context) (identity.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(identity.Actor)
	return actor, ok
}

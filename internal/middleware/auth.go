package middleware

import (
	"net/http"
	"strings"

	"github.com/sediba-fin/sediba-core/internal/auth"
	"github.com/sediba-fin/sediba-core/internal/handler"
	"github.com/sediba-fin/sediba-core/internal/logging"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithActor(r.Context(), auth.Actor{ID: claims.ActorID, Role: claims.Role})
			logger := logging.FromContext(ctx).With("actor_id", claims.ActorID, "actor_role", claims.Role)
			ctx = logging.WithLogger(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TellerOnly guards the teller-facing operations: opening accounts,
// counter deposits and withdrawals, closures and the interest trigger.
func TellerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFromContext(r.Context())
		if !ok || actor.Role != auth.RoleTeller {
			handler.RespondAppError(w, handler.ErrTellerOnly, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

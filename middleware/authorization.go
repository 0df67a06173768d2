package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
)

// UserLookup loads the current state of an account.
type UserLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticate resolves the JWT subject to an active user on every request,
// so role changes and deactivation take effect immediately. It must run
// after JWTMiddleware.
func Authenticate(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r)
			if claims == nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			id, err := uuid.Parse(claims.UserID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid token subject")
				return
			}
			u, err := users.Get(r.Context(), id)
			if err != nil {
				if !errors.Is(err, services.ErrNotFound) {
					zap.L().Error("load user for request", zap.String("user_id", claims.UserID), zap.Error(err))
				}
				writeJSONError(w, http.StatusUnauthorized, "user not found")
				return
			}
			if !u.IsActive {
				writeJSONError(w, http.StatusUnauthorized, "account disabled")
				return
			}

			actor := services.Actor{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
			if info := requestInfoFrom(r.Context()); info != nil {
				info.UserID = u.ID.String()
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability rejects callers whose stored role lacks capability.
func RequireCapability(capability models.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !actor.Can(capability) {
				zap.L().Warn("capability denied",
					zap.String("user", actor.Label()),
					zap.String("role", string(actor.Role)),
					zap.String("capability", string(capability)),
					zap.String("path", r.URL.Path))
				writeJSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorFrom returns the authenticated caller stored by Authenticate.
func ActorFrom(ctx context.Context) (services.Actor, bool) {
	a, ok := ctx.Value(actorKey).(services.Actor)
	return a, ok
}

// WithActor stores actor in ctx. Used by tests and internal callers.
func WithActor(ctx context.Context, actor services.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

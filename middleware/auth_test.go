package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrensetiawan/form-service/models"
	"github.com/andrensetiawan/form-service/services"
)

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, services.ErrNotFound
}

func newUser(role models.Role, active bool) *models.User {
	return &models.User{ID: uuid.New(), Name: "Rina", Email: "rina@example.com", Role: role, IsActive: active}
}

func okHandler(t *testing.T, seen *services.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		require.True(t, ok)
		*seen = actor
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	u := newUser(models.RoleStaff, true)

	token, err := issuer.GenerateToken(u)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, "staff", claims.Role)

	_, err = NewTokenIssuer("other", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredAndForeignAlgorithms(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Parse(signed)
	assert.Error(t, err)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: uuid.NewString()})
	signed, err = hs512.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Parse(signed)
	assert.Error(t, err)
}

func TestAuthenticateChain(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	active := newUser(models.RoleTeknisi, true)
	disabled := newUser(models.RoleAdmin, false)
	ghost := newUser(models.RoleAdmin, true)
	users := fakeUsers{active.ID: active, disabled.ID: disabled}

	// Tokens claim admin; the stored role must win.
	tokenFor := func(u *models.User) string {
		tok, err := issuer.GenerateToken(&models.User{ID: u.ID, Email: u.Email, Role: models.RoleAdmin})
		require.NoError(t, err)
		return tok
	}

	var seen services.Actor
	chain := issuer.JWTMiddleware(Authenticate(users)(okHandler(t, &seen)))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"unknown user", "Bearer " + tokenFor(ghost), http.StatusUnauthorized},
		{"disabled user", "Bearer " + tokenFor(disabled), http.StatusUnauthorized},
		{"active user", "Bearer " + tokenFor(active), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			chain.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, active.ID, seen.UserID)
	assert.Equal(t, models.RoleTeknisi, seen.Role)
}

func TestRequireCapability(t *testing.T) {
	handler := RequireCapability(models.CapDPDelete)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(ctx context.Context) int {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/dp-payments/x", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()))
	assert.Equal(t, http.StatusForbidden,
		serve(WithActor(context.Background(), services.Actor{UserID: uuid.New(), Role: models.RoleManager})))
	assert.Equal(t, http.StatusNoContent,
		serve(WithActor(context.Background(), services.Actor{UserID: uuid.New(), Role: models.RoleAdmin})))
}

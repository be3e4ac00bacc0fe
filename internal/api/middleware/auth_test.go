package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adnan-tnd/flow-core/internal/auth"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWT(secret string, expiry time.Duration) *auth.JWTService {
	return auth.NewJWTService(secret, expiry, time.Hour)
}

func TestAuth_ValidToken_AuthorizationHeader(t *testing.T) {
	jwtService := newJWT("test-secret", 24*time.Hour)

	userID := uuid.New()
	email := "test@example.com"
	role := string(models.RoleManager)

	token, err := jwtService.GenerateToken(userID, email, role)
	require.NoError(t, err)

	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userID, GetUserID(r.Context()))
		assert.Equal(t, email, GetUserEmail(r.Context()))
		assert.Equal(t, role, GetUserRole(r.Context()))
		assert.Equal(t, policy.Actor{ID: userID, Role: models.RoleManager}, GetActor(r.Context()))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest("GET", "/api/v1/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAuth_Rejects(t *testing.T) {
	jwtService := newJWT("test-secret", 24*time.Hour)
	userID := uuid.New()

	resetToken, err := jwtService.GenerateResetToken(userID, "test@example.com")
	require.NoError(t, err)

	otherSecret, err := newJWT("secret-2", 24*time.Hour).GenerateToken(userID, "test@example.com", "ceo")
	require.NoError(t, err)

	expired, err := newJWT("test-secret", time.Nanosecond).GenerateToken(userID, "test@example.com", "ceo")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	valid, err := jwtService.GenerateToken(userID, "test@example.com", "ceo")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"malformed", "Bearer invalid-token"},
		{"not bearer", "Basic " + valid},
		{"reset token", "Bearer " + resetToken},
		{"different secret", "Bearer " + otherSecret},
		{"expired", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("Handler should not be called")
			}))

			req := httptest.NewRequest("GET", "/api/v1/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
		})
	}
}

func TestAuth_IgnoresCookie(t *testing.T) {
	jwtService := newJWT("test-secret", 24*time.Hour)
	token, err := jwtService.GenerateToken(uuid.New(), "test@example.com", "member")
	require.NoError(t, err)

	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/v1/test", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContextGetters_Empty(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, uuid.Nil, GetUserID(ctx))
	assert.Equal(t, "", GetUserEmail(ctx))
	assert.Equal(t, "", GetUserRole(ctx))
	assert.Equal(t, policy.Actor{}, GetActor(ctx))
}

func TestRequireRole(t *testing.T) {
	jwtService := newJWT("test-secret", 24*time.Hour)

	tests := []struct {
		name           string
		userRole       models.Role
		requiredRoles  []models.Role
		expectedStatus int
	}{
		{
			name:           "ceo_has_access",
			userRole:       models.RoleCEO,
			requiredRoles:  []models.Role{models.RoleCEO, models.RoleManager},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "manager_has_access",
			userRole:       models.RoleManager,
			requiredRoles:  []models.Role{models.RoleCEO, models.RoleManager},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "member_denied",
			userRole:       models.RoleMember,
			requiredRoles:  []models.Role{models.RoleCEO, models.RoleManager},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwtService.GenerateToken(uuid.New(), "test@example.com", string(tt.userRole))
			require.NoError(t, err)

			handler := Auth(jwtService)(RequireRole(tt.requiredRoles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))

			req := httptest.NewRequest("GET", "/api/v1/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

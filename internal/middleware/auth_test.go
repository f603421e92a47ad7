package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "jwt-test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, secret string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(method, Claims{
		ChannelID: "storefront",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "shop-frontend",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestRequireAuth_ValidToken(t *testing.T) {
	var clientID, channelID string
	handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, _ = GetClientID(r.Context())
		channelID, _ = GetChannelID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/1/payments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, testSecret, time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shop-frontend", clientID)
	assert.Equal(t, "storefront", channelID)
}

func TestRequireAuth_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "auth_required"},
		{"basic scheme", "Basic dXNlcjpwYXNz", "auth_invalid_scheme"},
		{"garbage token", "Bearer not-a-jwt", "auth_invalid"},
		{"wrong secret", "Bearer " + signToken(t, jwt.SigningMethodHS256, "other", time.Hour), "auth_invalid"},
		{"expired", "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, -time.Minute), "auth_invalid"},
		{"other algorithm", "Bearer " + signToken(t, jwt.SigningMethodHS512, testSecret, time.Hour), "auth_invalid"},
	}

	handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("handler must not be reached")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/1/finalize", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tt.code+`"`)
		})
	}
}

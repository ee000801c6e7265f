package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	_, err := NewAuthenticator("", time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestTokenRoundTrip(t *testing.T) {
	a, err := NewAuthenticator("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := a.GenerateToken("u-ana")
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "u-ana", claims.UserID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateTokenRejects(t *testing.T) {
	a, err := NewAuthenticator("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewAuthenticator("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.GenerateToken("u-ana")
	require.NoError(t, err)
	_, err = a.ValidateToken(foreign)
	require.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "u-ana",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = a.ValidateToken(signed)
	require.Error(t, err)

	_, err = a.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	a, err := NewAuthenticator("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := a.GenerateToken("u-ana")
	require.NoError(t, err)

	var seen string
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				require.Equal(t, "u-ana", seen)
			} else {
				require.Empty(t, seen)
			}
		})
	}
}

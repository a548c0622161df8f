package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return iss
}

func TestNewIssuerValidation(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = NewIssuer("s", 0)
	assert.Error(t, err)
}

func TestIssueVerify(t *testing.T) {
	iss := newTestIssuer(t)
	token, err := iss.Issue("u1", "a@b.com")
	require.NoError(t, err)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyRejects(t *testing.T) {
	iss := newTestIssuer(t)
	other, err := NewIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("u1", "a@b.com")
	require.NoError(t, err)

	expired, err := iss.Issue("u1", "a@b.com")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: issuerName, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	fresh, err := iss.Issue("u1", "a@b.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"alg none", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Verify(tt.token)
			assert.ErrorIs(t, err, errInvalidToken)
		})
	}

	_, err = iss.Verify(fresh)
	assert.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	iss := newTestIssuer(t)
	t1, _ := iss.Issue("u1", "a@b.com")
	t2, _ := iss.Issue("u1", "a@b.com")

	iss.Revoke(t1)
	_, err := iss.Verify(t1)
	assert.ErrorIs(t, err, errRevoked)
	_, err = iss.Verify(t2)
	assert.NoError(t, err, "revocation is per token")

	iss.Revoke("garbage")
	assert.Len(t, iss.revoked, 1)
}

func TestMiddleware(t *testing.T) {
	iss := newTestIssuer(t)
	token, _ := iss.Issue("u1", "a@b.com")

	var seen string
	h := Middleware(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"no header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer " + token, http.StatusOK, "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, seen)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
}

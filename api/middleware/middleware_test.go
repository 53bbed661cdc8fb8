package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/shoppingcart/pkg/auth"
	"github.com/angelmondragon/shoppingcart/pkg/config"
	"github.com/angelmondragon/shoppingcart/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "shoppingcart"}

func captureIdentity(t *testing.T, cfg config.JWTConfig, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var identifier string
	handler := CartIdentity(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := CartIdentifier(r.Context())
		require.NoError(t, err)
		identifier = id
		w.WriteHeader(http.StatusNoContent)
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp, identifier
}

func TestCartIdentityUsesUserToken(t *testing.T) {
	token, err := pkgAuth.MintUserToken(testJWT, time.Now(), "42", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(SessionHeader, "guest-session-1")

	resp, identifier := captureIdentity(t, testJWT, req)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "user_42", identifier)
	assert.Empty(t, resp.Header().Get(SessionHeader))
}

func TestCartIdentityRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")

	resp, identifier := captureIdentity(t, testJWT, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, identifier)
}

func TestCartIdentityRejectsTokenWhenAuthDisabled(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")

	resp, _ := captureIdentity(t, config.JWTConfig{}, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCartIdentityKeepsGuestSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "guest-session-1")

	resp, identifier := captureIdentity(t, testJWT, req)
	assert.Equal(t, "guest-session-1", identifier)
	assert.Equal(t, "guest-session-1", resp.Header().Get(SessionHeader))
}

func TestCartIdentityIssuesSessionWhenMissingOrMalformed(t *testing.T) {
	for _, header := range []string{"", "bad id!", "short"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(SessionHeader, header)
		}
		resp, identifier := captureIdentity(t, testJWT, req)
		issued := resp.Header().Get(SessionHeader)
		assert.NotEmpty(t, issued)
		assert.NotEqual(t, header, issued)
		assert.Equal(t, issued, identifier)
	}
}

func TestCartIdentityGuestCannotClaimUserCart(t *testing.T) {
	for _, header := range []string{"user_1234", "USER_1234abcd", "user_42"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionHeader, header)

		resp, identifier := captureIdentity(t, testJWT, req)
		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.NotEqual(t, header, identifier)
		assert.False(t, strings.HasPrefix(strings.ToLower(identifier), "user_"), identifier)
		assert.Equal(t, identifier, resp.Header().Get(SessionHeader))
	}
}

func TestCartIdentifierWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := CartIdentifier(req.Context())
	assert.Error(t, err)

	id, err := CartIdentifier(WithCartIdentifier(req.Context(), "user_7"))
	require.NoError(t, err)
	assert.Equal(t, "user_7", id)
}

func TestRequestIDPropagatesHeader(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, "req-1", resp.Header().Get(RequestIDHeader))

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, resp.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "has spaces\tand tabs")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.NotEqual(t, "has spaces\tand tabs", resp.Header().Get(RequestIDHeader))
}

func TestLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("info"), Output: &buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/cart", nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "request.complete", entry["message"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.Equal(t, "/api/cart", entry["path"])
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "INTERNAL")
}

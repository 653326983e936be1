package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/receivinggo/internal/utils"
)

func protected(secret string) http.Handler {
	return AuthMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func serve(h http.Handler, authHeader string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/backlog", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthMiddleware(t *testing.T) {
	h := protected("s3cret")
	token, err := utils.GenerateOperatorToken("operator", "s3cret", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(h, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Token "+token))
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer nope"))
	assert.Equal(t, http.StatusNoContent, serve(h, "Bearer "+token))
}

func TestAuthMiddleware_OpenWithoutSecret(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, serve(protected(""), ""))
}

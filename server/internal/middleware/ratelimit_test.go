package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/middleware"
)

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 2)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(caller, remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/protocol", nil)
		req.RemoteAddr = remote
		if caller != "" {
			req = req.WithContext(context.WithValue(req.Context(), middleware.CallerKey, caller))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do("wallet1", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("wallet1", "10.0.0.2:1000"))
	assert.Equal(t, http.StatusTooManyRequests, do("wallet1", "10.0.0.3:1000"), "лимит по адресу вызывающего")

	// Анонимные запросы считаются по IP без учета порта.
	assert.Equal(t, http.StatusOK, do("", "10.0.0.9:1"))
	assert.Equal(t, http.StatusOK, do("", "10.0.0.9:2"))
	assert.Equal(t, http.StatusTooManyRequests, do("", "10.0.0.9:3"))

	assert.Equal(t, http.StatusOK, do("wallet2", "10.0.0.9:4"))
	assert.Zero(t, rl.Cleanup(), "свежие лимитеры не удаляются")
}

package graceful

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProbes struct {
	readiness error
}

func (s stubProbes) Liveness(context.Context) error  { return nil }
func (s stubProbes) Readiness(context.Context) error { return s.readiness }

func TestRoutes(t *testing.T) {
	testCases := []struct {
		name         string
		path         string
		readiness    error
		expectStatus int
		expectBody   string
	}{
		{name: "liveness", path: "/healthz", expectStatus: http.StatusOK, expectBody: `"status":"ok"`},
		{name: "ready", path: "/readyz", expectStatus: http.StatusOK, expectBody: `"status":"ok"`},
		{name: "not ready", path: "/readyz", readiness: errors.New("redis: down"), expectStatus: http.StatusServiceUnavailable, expectBody: `"error":"redis: down"`},
		{name: "metrics", path: "/metrics", expectStatus: http.StatusOK, expectBody: "go_goroutines"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			handler := Routes(stubProbes{readiness: tc.readiness})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, tc.expectStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.expectBody)
		})
	}
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	srv := NewServer(nil, &http.Server{Addr: addr, Handler: Routes(stubProbes{})}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"fxcache/internal/config"

	"github.com/stretchr/testify/require"
)

func TestSeconds(t *testing.T) {
	require.Equal(t, 7*time.Second, seconds(7, time.Second))
	require.Equal(t, time.Second, seconds(0, time.Second))
	require.Equal(t, time.Second, seconds(-3, time.Second))
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	// grab a free port, then release it for the server
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	go func() {
		errCh <- Start(ctx, config.HTTPServer{Port: strconv.Itoa(port), ShutdownTimeoutSeconds: 1}, handler)
	}()

	require.Eventually(t, func() bool {
		resp, getErr := http.Get("http://127.0.0.1:" + strconv.Itoa(port))
		if getErr != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err = <-errCh:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestStart_ListenError(t *testing.T) {
	err := Start(context.Background(), config.HTTPServer{Port: "not-a-port"}, http.NotFoundHandler())
	require.Error(t, err)
}

package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dart-digest/pkg/config"
	"github.com/wonny/dart-digest/pkg/logger"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	cfg := &config.Config{Port: "0", Env: "test", Store: config.StoreConfig{Driver: "badger"}}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := New(cfg, logger.NewNop(), mux)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	var addr net.Addr
	select {
	case addr = <-server.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}

func TestServer_StartFailsOnBadAddr(t *testing.T) {
	server := New(&config.Config{Port: "not-a-port"}, logger.NewNop(), http.NewServeMux())
	assert.Error(t, server.Start())
}

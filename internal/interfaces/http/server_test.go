package http

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/testutil"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestNewServer_Addr(t *testing.T) {
	s := NewServer(config.ServerConfig{Host: "0.0.0.0", Port: 8080}, http.NewServeMux(), testutil.NewNopLogger())
	assert.Equal(t, "0.0.0.0:8080", s.Addr())
}

func TestServer_RunAndShutdown(t *testing.T) {
	cfg := config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            freePort(t),
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
	s := NewServer(cfg, NewRouter(RouterConfig{}), testutil.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + s.Addr() + "/nope")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunFailsOnBusyPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := config.ServerConfig{Host: "127.0.0.1", Port: l.Addr().(*net.TCPAddr).Port, ShutdownTimeout: time.Second}
	err = NewServer(cfg, http.NewServeMux(), testutil.NewNopLogger()).Run(context.Background())
	assert.Error(t, err)
}

func TestSetMode(t *testing.T) {
	SetMode("bogus")
	SetMode("test")
}

//Personal.AI order the ending

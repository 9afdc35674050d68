package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/cropyield/internal/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRunRequiresStorage(t *testing.T) {
	a := New(config.Config{}, zap.NewNop().Sugar())
	if err := a.Run(context.Background()); err == nil {
		t.Error("expected an error without storage.sqlite-path")
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	port := freePort(t)
	cfg := config.Config{
		Storage: config.StorageConfig{SQLitePath: filepath.Join(t.TempDir(), "runs.db")},
		Server:  config.ServerConfig{ListenAddr: "127.0.0.1", Port: port},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(cfg, zap.NewNop().Sugar()).Run(ctx) }()

	url := "http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(port)) + "/runs"
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from an empty store, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

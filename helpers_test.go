package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// fakeSource reports refresh number n as core values n, n+0.5, n+1, ...
type fakeSource struct {
	cores int

	mu        sync.Mutex
	refreshes int
	failOn    map[int]bool
	current   []float64
}

func newFakeSource(cores int) *fakeSource {
	return &fakeSource{cores: cores, failOn: make(map[int]bool)}
}

func (f *fakeSource) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.failOn[f.refreshes] {
		return errors.New("counters unavailable")
	}
	f.current = make([]float64, f.cores)
	for i := range f.current {
		f.current[i] = float64(f.refreshes) + float64(i)*0.5
	}
	return nil
}

func (f *fakeSource) PerCore() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeSource) failRefresh(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[n] = true
}

// syncBuffer is a bytes.Buffer safe for concurrent log writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func receive(t *testing.T, f *Feed) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-f.C():
		require.True(t, ok, "feed closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func assertEmpty(t *testing.T, f *Feed) {
	t.Helper()
	select {
	case snap := <-f.C():
		t.Fatalf("unexpected snapshot %v", snap.Cores())
	default:
	}
}

func newTestConnPair(t *testing.T) (server *websocket.Conn, client *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ready := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ready <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	serverConn := <-ready
	t.Cleanup(func() { serverConn.Close() })
	return serverConn, clientConn
}

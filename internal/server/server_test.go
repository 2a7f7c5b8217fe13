package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/treexfer/internal/config"
	"github.com/danmuck/treexfer/internal/protocol"
	"github.com/danmuck/treexfer/internal/protocol/session"
	"github.com/danmuck/treexfer/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, once bool) (*Server, string) {
	t.Helper()
	dest := t.TempDir()
	cfg := config.ServerConfig{Host: "127.0.0.1", Dest: dest, Once: once}
	sess := session.DefaultConfig()
	sess.ReadTimeout = 5 * time.Second
	return New(cfg, sess, zerolog.Nop()), dest
}

func listenLoopback(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return ln
}

func sendPath(t *testing.T, addr, path string) session.Result {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	res, err := (&session.Sender{}).Send(conn, path)
	if err != nil {
		t.Fatalf("send %s: %v", path, err)
	}
	return res
}

func TestServeOnceReceivesDirectory(t *testing.T) {
	testlog.Start(t)
	srv, dest := newTestServer(t, true)
	ln := listenLoopback(t)

	src := filepath.Join(t.TempDir(), "pkg")
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "b.bin"), []byte{0, 1, 2, 255}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln) }()

	sendPath(t, ln.Addr().String(), src)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return in once mode")
	}

	got, err := os.ReadFile(filepath.Join(dest, "pkg", "sub", "b.bin"))
	if err != nil {
		t.Fatalf("read received file: %v", err)
	}
	if string(got) != string([]byte{0, 1, 2, 255}) {
		t.Fatalf("unexpected contents: %x", got)
	}

	st, ok := srv.LastStatus()
	if !ok {
		t.Fatalf("expected last status")
	}
	if st.Error != "" || st.Result.Kind != protocol.TagDir || st.Result.Files != 2 || st.Result.Dirs != 2 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestServeKeepsAcceptingUntilCancelled(t *testing.T) {
	testlog.Start(t)
	srv, dest := newTestServer(t, false)
	ln := listenLoopback(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	srcDir := t.TempDir()
	for _, name := range []string{"first.txt", "second.txt"} {
		p := filepath.Join(srcDir, name)
		if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		sendPath(t, ln.Addr().String(), p)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err1 := os.Stat(filepath.Join(dest, "first.txt"))
		_, err2 := os.Stat(filepath.Join(dest, "second.txt"))
		if err1 == nil && err2 == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("files not received: %v %v", err1, err2)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve after cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop on cancel")
	}
}

// cancelOnAccept cancels the serve context after a connection is accepted
// but before Serve sees it.
type cancelOnAccept struct {
	net.Listener
	cancel context.CancelFunc
}

func (l *cancelOnAccept) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err == nil {
		l.cancel()
		time.Sleep(50 * time.Millisecond)
	}
	return conn, err
}

func TestServeCancelledDuringAcceptClosesConn(t *testing.T) {
	testlog.Start(t)
	srv, _ := newTestServer(t, false)
	srv.session.ReadTimeout = 0
	ln := listenLoopback(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, &cancelOnAccept{Listener: ln, cancel: cancel}) }()

	idle, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer idle.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve after cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve still blocked after cancel with an idle conn")
	}

	_ = idle.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := idle.Read(make([]byte, 1)); err == nil {
		t.Fatalf("expected accepted conn to be closed")
	}
}

func TestServeOnceReturnsProtocolError(t *testing.T) {
	testlog.Start(t)
	srv, _ := newTestServer(t, true)
	ln := listenLoopback(t)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := conn.Write([]byte{0x07, 0, 0, 0, 0}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.Close()

	select {
	case err := <-done:
		if !errors.Is(err, protocol.ErrProtocol) {
			t.Fatalf("expected ErrProtocol, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return")
	}
	st, ok := srv.LastStatus()
	if !ok || st.Error == "" {
		t.Fatalf("expected failed status, got %+v ok=%v", st, ok)
	}
}

func TestCheckDest(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	if err := CheckDest(dir); err != nil {
		t.Fatalf("dir dest: %v", err)
	}
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := CheckDest(file); !errors.Is(err, protocol.ErrNotADirectory) {
		t.Fatalf("file dest: expected ErrNotADirectory, got %v", err)
	}
	if err := CheckDest(filepath.Join(dir, "missing")); !errors.Is(err, protocol.ErrNotADirectory) {
		t.Fatalf("missing dest: expected ErrNotADirectory, got %v", err)
	}
}

func TestRunRejectsBadDest(t *testing.T) {
	testlog.Start(t)
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 0, Dest: filepath.Join(t.TempDir(), "nope"), Once: true}
	srv := New(cfg, session.DefaultConfig(), zerolog.Nop())
	if err := srv.Run(context.Background()); !errors.Is(err, protocol.ErrNotADirectory) {
		t.Fatalf("expected ErrNotADirectory, got %v", err)
	}
}

func TestHTTPRoutes(t *testing.T) {
	testlog.Start(t)
	srv, _ := newTestServer(t, true)
	router := srv.HTTPRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status=%d", rec.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", health)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transfers/last", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("last before transfer status=%d", rec.Code)
	}

	srv.record("10.0.0.1:5000", session.Result{Kind: protocol.TagFile, Path: "x", Files: 1, Bytes: 12}, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transfers/last", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("last status=%d", rec.Code)
	}
	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Remote != "10.0.0.1:5000" || st.Result.Files != 1 || st.Result.Kind != protocol.TagFile {
		t.Fatalf("unexpected status: %+v", st)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rec.Code)
	}
}

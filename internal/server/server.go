// Package server receives transfers over TCP, one connection at a time.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danmuck/treexfer/internal/config"
	"github.com/danmuck/treexfer/internal/observability"
	"github.com/danmuck/treexfer/internal/progress"
	"github.com/danmuck/treexfer/internal/protocol"
	"github.com/danmuck/treexfer/internal/protocol/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Status is the outcome of the most recent transfer.
type Status struct {
	Remote string         `json:"remote"`
	At     time.Time      `json:"at"`
	Result session.Result `json:"result"`
	Error  string         `json:"error,omitempty"`
}

type Server struct {
	cfg     config.ServerConfig
	session session.Config
	logger  zerolog.Logger

	// ProgressOut receives the progress bar; nil disables it.
	ProgressOut io.Writer

	router   *gin.Engine
	appeared time.Time

	mu      sync.Mutex
	last    *Status
	handled int
}

func New(cfg config.ServerConfig, sess session.Config, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:      cfg,
		session:  sess,
		logger:   logger,
		router:   r,
		appeared: time.Now(),
	}
	r.Use(observability.HTTPMiddleware(logger, "recv", s))
	if cfg.Progress {
		s.ProgressOut = os.Stderr
	}
	s.registerRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Run checks the destination, listens on the configured address and serves
// until ctx ends or, in once mode, the first transfer completes.
func (s *Server) Run(ctx context.Context) error {
	if err := CheckDest(s.cfg.Dest); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.ListenAddr(), err)
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Str("dest", s.cfg.Dest).Msg("listening")

	if s.cfg.MetricsAddr != "" {
		stop, err := s.startHTTP(s.cfg.MetricsAddr)
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer stop()
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln and handles each connection to completion before
// accepting the next.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	var (
		activeMu sync.Mutex
		active   net.Conn
	)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
			return
		}
		_ = ln.Close()
		activeMu.Lock()
		if active != nil {
			_ = active.Close()
		}
		activeMu.Unlock()
	}()

	for {
		s.logger.Debug().Msg("awaiting connection")
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		activeMu.Lock()
		if ctx.Err() != nil {
			// The watcher may already have run and found no active conn.
			activeMu.Unlock()
			_ = conn.Close()
			return nil
		}
		active = conn
		activeMu.Unlock()

		_, err = s.HandleConn(conn)

		activeMu.Lock()
		active = nil
		activeMu.Unlock()

		if ctx.Err() != nil {
			return nil
		}
		if s.cfg.Once {
			return err
		}
	}
}

// HandleConn runs one receive session on conn and closes it.
func (s *Server) HandleConn(conn net.Conn) (session.Result, error) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	s.logger.Info().Str("remote", remote).Msg("accepted connection")

	var bar *progress.Bar
	rc := &session.Receiver{
		OnEnvelope: func(env session.Envelope) {
			s.logger.Debug().
				Str("kind", env.Kind.String()).
				Int32("total_size", env.TotalSize).
				Msg("received envelope")
			bar = progress.New(s.ProgressOut, "Receiving", int64(env.TotalSize))
		},
		OnFileReceived: func(path string) {
			size := fileSize(path)
			s.logger.Debug().Str("path", path).Int64("size", size).Msg("file received")
			if bar != nil {
				bar.Add(size)
			}
		},
	}

	res, err := rc.Receive(session.NewDeadlineConn(conn, s.session), s.cfg.Dest)
	if bar != nil && err == nil {
		bar.Finish()
	}
	s.record(remote, res, err)

	kind := kindLabel(res)
	observability.RecordTransfer(observability.DirectionReceive, kind, res.Files, res.Bytes, res.Duration, err == nil)
	if err != nil {
		s.logger.Error().Err(err).Str("remote", remote).Int("files", res.Files).Msg("receive failed")
		return res, err
	}
	s.logger.Info().
		Str("remote", remote).
		Str("kind", kind).
		Str("path", res.Path).
		Int("files", res.Files).
		Int("dirs", res.Dirs).
		Int64("bytes", res.Bytes).
		Dur("duration", res.Duration).
		Msg("finished receiving")
	return res, nil
}

// LastStatus returns the most recent transfer outcome, if any.
func (s *Server) LastStatus() (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Status{}, false
	}
	return *s.last, true
}

// TransferSummary reports how many connections were handled and the remote
// of the latest one.
func (s *Server) TransferSummary() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return s.handled, ""
	}
	return s.handled, s.last.Remote
}

func (s *Server) record(remote string, res session.Result, err error) {
	st := Status{Remote: remote, At: time.Now(), Result: res}
	if err != nil {
		st.Error = err.Error()
	}
	s.mu.Lock()
	s.last = &st
	s.handled++
	s.mu.Unlock()
}

func (s *Server) startHTTP(addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: metrics listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("metrics endpoint stopped")
		}
	}()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("metrics endpoint listening")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// CheckDest reports whether dest can receive transfers.
func CheckDest(dest string) error {
	info, err := os.Stat(dest)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", protocol.ErrNotADirectory, dest)
	}
	return nil
}

func kindLabel(res session.Result) string {
	if res.Kind == protocol.TagEnd {
		return "unknown"
	}
	return res.Kind.String()
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

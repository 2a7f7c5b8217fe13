// Package client pushes a file or directory to a treexfer server.
package client

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/treexfer/internal/config"
	"github.com/danmuck/treexfer/internal/observability"
	"github.com/danmuck/treexfer/internal/progress"
	"github.com/danmuck/treexfer/internal/protocol/session"
	"github.com/rs/zerolog"
)

type Client struct {
	cfg     config.ClientConfig
	session session.Config
	logger  zerolog.Logger

	// ProgressOut receives the progress bar; nil disables it.
	ProgressOut io.Writer
}

func New(cfg config.ClientConfig, sess session.Config, logger zerolog.Logger) *Client {
	return &Client{cfg: cfg, session: sess.WithDefaults(), logger: logger}
}

// Send dials the server and transfers path over a fresh connection.
func (c *Client) Send(ctx context.Context, path string) (session.Result, error) {
	if err := config.ValidateHost(c.cfg.Host, false); err != nil {
		return session.Result{}, fmt.Errorf("client: %w", err)
	}
	addr := c.cfg.Addr()
	c.logger.Debug().Str("addr", addr).Msg("connecting to server")
	conn, err := session.Dial(ctx, addr, c.session)
	if err != nil {
		return session.Result{}, err
	}
	defer conn.Close()
	c.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("connected to server")

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	var bar *progress.Bar
	sender := &session.Sender{
		OnEnvelope: func(env session.Envelope) {
			c.logger.Debug().
				Str("kind", env.Kind.String()).
				Int32("total_size", env.TotalSize).
				Msg("sending envelope")
			bar = progress.New(c.ProgressOut, "Sending", int64(env.TotalSize))
		},
		OnFileSent: func(p string, size int64) {
			c.logger.Debug().Str("path", p).Int64("size", size).Msg("file sent")
			if bar != nil {
				bar.Add(size)
			}
		},
	}

	res, err := sender.Send(session.NewDeadlineConn(conn, c.session), path)
	if bar != nil && err == nil {
		bar.Finish()
	}
	observability.RecordTransfer(observability.DirectionSend, res.Kind.String(), res.Files, res.Bytes, res.Duration, err == nil)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		c.logger.Error().Err(err).Str("path", path).Int("files", res.Files).Msg("send failed")
		return res, err
	}
	c.logger.Info().
		Str("path", path).
		Str("kind", res.Kind.String()).
		Int("files", res.Files).
		Int64("bytes", res.Bytes).
		Dur("duration", res.Duration).
		Msg("finished sending")
	return res, nil
}

// CheckSource reports whether path can be sent.
func CheckSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("client: %s is neither file nor directory", path)
	}
	return nil
}

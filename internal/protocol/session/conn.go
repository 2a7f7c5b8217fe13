package session

import (
	"io"
	"net"
	"sync/atomic"
	"time"
)

// deadlineConn refreshes an idle deadline before every read and write.
type deadlineConn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewDeadlineConn wraps conn so each Read and Write must make progress within
// the configured timeouts. With both timeouts zero conn is returned as is.
func NewDeadlineConn(conn net.Conn, cfg Config) net.Conn {
	if cfg.ReadTimeout <= 0 && cfg.WriteTimeout <= 0 {
		return conn
	}
	return &deadlineConn{Conn: conn, readTimeout: cfg.ReadTimeout, writeTimeout: cfg.WriteTimeout}
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(p)
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

type countingWriter struct {
	w io.Writer
	n atomic.Int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n.Add(int64(n))
	return n, err
}

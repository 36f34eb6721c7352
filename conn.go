package ftp

import (
	"io"
	"net"
	"time"

	"github.com/ftpmanager/ftp/internal/ratelimit"
)

// deadlineConn wraps a net.Conn and sets a read/write deadline before every operation.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (n int, err error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (n int, err error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}

// limitedConn throttles both directions of a data connection through a
// shared token bucket.
type limitedConn struct {
	net.Conn
	r io.Reader
	w io.Writer
}

func newLimitedConn(conn net.Conn, l *ratelimit.Limiter) *limitedConn {
	return &limitedConn{
		Conn: conn,
		r:    ratelimit.NewReader(conn, l),
		w:    ratelimit.NewWriter(conn, l),
	}
}

func (c *limitedConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}

func (c *limitedConn) Write(b []byte) (int, error) {
	return c.w.Write(b)
}

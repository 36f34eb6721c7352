package ftp

import (
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ftpmanager/ftp/internal/metrics"
)

// Option is a functional option for configuring an FTP client.
type Option func(*Client) error

// WithLogger enables debug logging using the provided logger.
// All FTP commands and replies are logged at debug level; passwords are
// redacted.
//
// Example:
//
//	logger, _ := zap.NewDevelopment()
//	client, _ := ftp.DialURL("ftp://ftp.example.com", ftp.WithLogger(logger))
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for the control and data connections.
// A dialer without a timeout gets Config.ConnectTimeout.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Client) error {
		if dialer == nil {
			return errors.New("nil dialer")
		}
		c.dialer = dialer
		return nil
	}
}

// WithMonitor installs the monitor that bounds line reads and directory
// crawls, replacing the one built from Config.OperationTimeout. A nil
// monitor disables the bound.
func WithMonitor(m Monitor) Option {
	return func(c *Client) error {
		c.monitor = m
		return nil
	}
}

// WithMetrics registers the client's Prometheus collectors on reg. Clients
// sharing a registerer share the collectors.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) error {
		c.metrics = metrics.New(reg)
		return nil
	}
}

// WithClock replaces time.Now for the liveness check, transfer timestamps
// and "HH:MM" listing dates.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		if now == nil {
			return errors.New("nil clock")
		}
		c.now = now
		return nil
	}
}

// WithIgnoreRestFailure lets resumed transfers proceed when the server
// rejects REST. The transfer then starts at offset zero.
func WithIgnoreRestFailure() Option {
	return func(c *Client) error {
		c.ignoreRestFailure = true
		return nil
	}
}

// WithActiveMode selects active (PORT) data connections. Active mode is not
// implemented: every data operation then fails with
// ErrActiveModeUnsupported.
func WithActiveMode() Option {
	return func(c *Client) error {
		c.cfg.Mode = ActiveMode
		return nil
	}
}

// WithKeepAlive sends NOOP on the control connection whenever the session
// has been idle for the given duration, keeping both the server's idle
// timer and Config.LiveTimeout from expiring. The keep-alive starts with
// Connect and stops with Quit or Close.
func WithKeepAlive(idle time.Duration) Option {
	return func(c *Client) error {
		if idle < 0 {
			return errors.New("negative keep-alive interval")
		}
		c.keepAliveIdle = idle
		return nil
	}
}

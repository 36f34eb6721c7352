package ftp

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrOperationAborted is wrapped into the error of an operation that the
// monitor cut short.
var ErrOperationAborted = errors.New("ftp: operation aborted by monitor")

// Monitor bounds long-running operations (line reads and directory
// crawls). Start is called when the operation begins; abort closes the
// session's sockets so that blocking I/O fails. The returned stop function
// is called when the operation ends, whatever the outcome.
type Monitor interface {
	Start(op string, abort func()) (stop func())
}

// MonitorFunc adapts a function to the Monitor interface.
type MonitorFunc func(op string, abort func()) (stop func())

func (f MonitorFunc) Start(op string, abort func()) func() {
	return f(op, abort)
}

// TimeoutMonitor aborts any operation running longer than Timeout.
type TimeoutMonitor struct {
	Timeout time.Duration
}

func NewTimeoutMonitor(timeout time.Duration) *TimeoutMonitor {
	return &TimeoutMonitor{Timeout: timeout}
}

func (m *TimeoutMonitor) Start(op string, abort func()) func() {
	if m == nil || m.Timeout <= 0 {
		return func() {}
	}
	t := time.AfterFunc(m.Timeout, abort)
	return func() { t.Stop() }
}

// monitored starts the monitor for op. The caller holds opMu and must call
// the returned function with the operation's error. The abort callback and
// the returned function settle the outcome under c.mu: an abort arriving
// after the operation finished is ignored, and an operation that finishes
// after an abort always reports it.
func (c *Client) monitored(op string) func(err error) error {
	if c.monitor == nil {
		return func(err error) error { return err }
	}

	var finished, aborted bool
	stop := c.monitor.Start(op, func() {
		c.mu.Lock()
		if finished {
			c.mu.Unlock()
			return
		}
		aborted = true
		conn, data := c.conn, c.activeDataConn
		c.state = StateDisconnected
		c.mu.Unlock()

		c.logger.Warn("operation timed out, closing session", zap.String("op", op))
		if data != nil {
			_ = data.Close()
		}
		if conn != nil {
			_ = conn.Close()
		}
	})

	return func(err error) error {
		stop()
		c.mu.Lock()
		finished = true
		wasAborted := aborted
		c.mu.Unlock()

		if !wasAborted {
			return err
		}
		// the sockets are gone; release whatever is left
		c.teardown()
		if err != nil {
			return fmt.Errorf("%w (%s): %w", ErrOperationAborted, op, err)
		}
		return fmt.Errorf("%w (%s)", ErrOperationAborted, op)
	}
}

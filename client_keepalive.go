package ftp

import (
	"time"

	"go.uber.org/zap"
)

// startKeepAlive starts a goroutine that sends NOOP whenever the session
// has been idle for keepAliveIdle. A running operation is never interrupted:
// ticks that find the operation lock taken are skipped. Any previous
// keep-alive goroutine is stopped first.
func (c *Client) startKeepAlive() {
	c.stopKeepAlive()
	if c.keepAliveIdle <= 0 {
		return
	}

	quit := make(chan struct{})
	c.mu.Lock()
	c.keepAliveQuit = quit
	c.mu.Unlock()

	// tick at half the idle time so a NOOP goes out before the server's
	// own idle timer fires
	ticker := time.NewTicker(max(c.keepAliveIdle/2, time.Millisecond))

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.keepAlive()
			case <-quit:
				return
			}
		}
	}()
}

func (c *Client) keepAlive() {
	if !c.opMu.TryLock() {
		return
	}
	defer c.opMu.Unlock()

	c.mu.Lock()
	last := c.lastActivity
	c.mu.Unlock()

	if c.now().Sub(last) < c.keepAliveIdle || !c.isLive() {
		return
	}
	c.logger.Debug("sending keep-alive NOOP")
	if _, err := c.sendCommand("NOOP"); err != nil {
		c.logger.Debug("keep-alive failed", zap.Error(err))
	}
}

func (c *Client) stopKeepAlive() {
	c.mu.Lock()
	quit := c.keepAliveQuit
	c.keepAliveQuit = nil
	c.mu.Unlock()

	if quit != nil {
		close(quit)
	}
}

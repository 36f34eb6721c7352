package ftp

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// commandLine renders a command for logs and errors. Passwords never leave
// this function.
func commandLine(verb string, args ...string) string {
	if strings.EqualFold(verb, "PASS") {
		return "PASS ****"
	}
	if len(args) == 0 {
		return verb
	}
	return verb + " " + strings.Join(args, " ")
}

// sendCommand writes one command and reads its reply. The caller holds opMu.
// Only transport failures and a dead session are errors; the reply code is
// left to the caller.
func (c *Client) sendCommand(verb string, args ...string) (*Response, error) {
	if !c.isLive() {
		return nil, ErrNotConnected
	}

	display := commandLine(verb, args...)
	c.mu.Lock()
	c.lastCommand = display
	c.mu.Unlock()

	c.logger.Debug("ftp command", zap.String("cmd", display))

	line := verb
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	wire, err := encodeString(c.enc, line)
	if err != nil {
		return nil, &ProtocolError{Command: display, Err: err}
	}

	if err := c.writeLine(wire); err != nil {
		c.teardown()
		return nil, &ProtocolError{Command: display, Err: err}
	}

	resp, err := c.readReply(display)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveCommand(verb, resp.Code)
	return resp, nil
}

func (c *Client) writeLine(line string) error {
	if c.cfg.IOTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.IOTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}
	if _, err := c.writer.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

// readReply reads one complete reply and records the activity. A read
// failure tears the session down.
func (c *Client) readReply(command string) (*Response, error) {
	if c.cfg.IOTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.IOTimeout)); err != nil {
			c.teardown()
			return nil, &ProtocolError{Command: command, Err: err}
		}
	}

	resp, err := readResponse(c.reader)
	if err != nil {
		c.teardown()
		return nil, &ProtocolError{Command: command, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	c.touch()

	c.logger.Debug("ftp response", zap.Int("code", resp.Code), zap.String("message", resp.Message))
	return resp, nil
}

// expectSuccess sends a command and turns a failure reply into a
// *ProtocolError.
func (c *Client) expectSuccess(verb string, args ...string) (*Response, error) {
	resp, err := c.sendCommand(verb, args...)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return resp, replyError(commandLine(verb, args...), resp)
	}
	return resp, nil
}

// exec runs a single command under the operation lock.
func (c *Client) exec(verb string, args ...string) (*Response, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.expectSuccess(verb, args...)
}

package ftp

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// pasvRegex matches the PASV reply tuple: 227 Entering Passive Mode (h1,h2,h3,h4,p1,p2)
var pasvRegex = regexp.MustCompile(`\((\d+),(\d+),(\d+),(\d+),(\d+),(\d+)\)`)

// parsePASV parses a PASV reply and returns the host and port.
// Example: "Entering Passive Mode (192,168,1,1,195,149)"
// Returns: "192.168.1.1", 50069 (195*256 + 149)
func parsePASV(text string) (string, int, error) {
	matches := pasvRegex.FindStringSubmatch(text)
	if len(matches) != 7 {
		return "", 0, fmt.Errorf("%w: %s", ErrMalformedPASV, text)
	}

	var n [6]int
	for i := range n {
		v, err := strconv.Atoi(matches[i+1])
		if err != nil || v < 0 || v > 255 {
			return "", 0, fmt.Errorf("%w: bad field %q in %s", ErrMalformedPASV, matches[i+1], text)
		}
		n[i] = v
	}

	host := fmt.Sprintf("%d.%d.%d.%d", n[0], n[1], n[2], n[3])
	return host, n[4]*256 + n[5], nil
}

// formatPASV renders the reply text a server sends for host:port.
// Converts "192.168.1.100", 50000 to "Entering Passive Mode (192,168,1,100,195,80)."
func formatPASV(host string, port int) (string, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		return "", fmt.Errorf("invalid IP address: %s", host)
	}
	ip = ip.To4()
	if ip == nil {
		return "", errors.New("PASV requires an IPv4 address")
	}
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid port: %d", port)
	}

	return fmt.Sprintf("Entering Passive Mode (%d,%d,%d,%d,%d,%d).",
		ip[0], ip[1], ip[2], ip[3], port/256, port%256), nil
}

// resolveDataAddr builds the data address. A server announcing 0.0.0.0
// gets the control connection's peer address instead.
func (c *Client) resolveDataAddr(host string, port int) string {
	if host == "0.0.0.0" {
		c.mu.Lock()
		host = c.serverIP
		c.mu.Unlock()
		if host == "" {
			host = c.cfg.Host
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// openDataConn negotiates a passive data connection. The caller holds opMu
// and must release the connection with closeDataConn.
func (c *Client) openDataConn() (net.Conn, error) {
	if c.cfg.Mode == ActiveMode {
		return nil, ErrActiveModeUnsupported
	}

	resp, err := c.expectSuccess("PASV")
	if err != nil {
		return nil, err
	}
	host, port, err := parsePASV(resp.Message)
	if err != nil {
		return nil, err
	}

	addr := c.resolveDataAddr(host, port)
	c.logger.Debug("opening data connection", zap.String("addr", addr))

	raw, err := c.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, &ProtocolError{Command: "PASV", Err: fmt.Errorf("failed to connect to data port %s: %w", addr, err)}
	}

	var conn net.Conn = raw
	if c.cfg.IOTimeout > 0 {
		conn = &deadlineConn{Conn: conn, timeout: c.cfg.IOTimeout}
	}
	if c.limiter != nil {
		conn = newLimitedConn(conn, c.limiter)
	}

	c.mu.Lock()
	c.activeDataConn = conn
	c.mu.Unlock()
	return conn, nil
}

// closeDataConn releases a connection returned by openDataConn.
func (c *Client) closeDataConn(conn net.Conn) {
	c.mu.Lock()
	if c.activeDataConn == conn {
		c.activeDataConn = nil
	}
	c.mu.Unlock()
	c.closeQuietly("data", conn)
}

// dataCommand runs the data connection protocol shared by transfers and
// listings: PASV, an optional REST, the command itself, the handler with the
// open data connection, then the final reply. command names the operation
// in errors.
//
// The data connection is always closed before the final reply is read, and
// the final reply is read whenever the server announced the transfer with a
// 1xx mark, even if the handler failed. Otherwise the next command would
// read this operation's reply.
func (c *Client) dataCommand(command string, offset int64, handler func(net.Conn) (int64, error), verb string, args ...string) (n int64, err error) {
	conn, err := c.openDataConn()
	if err != nil {
		return 0, err
	}

	if offset > 0 {
		if _, rerr := c.expectSuccess("REST", strconv.FormatInt(offset, 10)); rerr != nil {
			var pe *ProtocolError
			if !c.ignoreRestFailure || !errors.As(rerr, &pe) || pe.IsTransport() {
				c.closeDataConn(conn)
				return 0, rerr
			}
			c.logger.Debug("server rejected REST, continuing", zap.Error(rerr))
		}
	}

	resp, err := c.sendCommand(verb, args...)
	if err != nil {
		c.closeDataConn(conn)
		return 0, err
	}
	if !resp.Success() {
		c.closeDataConn(conn)
		return 0, replyError(command, resp)
	}

	func() {
		defer c.closeDataConn(conn)
		n, err = handler(conn)
	}()
	if err != nil {
		var pe *ProtocolError
		if !errors.As(err, &pe) {
			err = &ProtocolError{Command: command, Err: err}
		}
	}

	if resp.Preliminary() {
		if derr := c.finishDataCommand(command); derr != nil {
			if err == nil {
				err = derr
			} else {
				err = multierror.Append(err, derr)
			}
		}
	}
	return n, err
}

// finishDataCommand reads the reply that closes a data command.
func (c *Client) finishDataCommand(command string) error {
	resp, err := c.readReply(command)
	if err != nil {
		return err
	}
	c.logger.Debug("ftp data transfer complete", zap.Int("code", resp.Code), zap.String("message", resp.Message))
	if !resp.Is2xx() {
		return replyError(command, resp)
	}
	return nil
}

package ftp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mockServer provides a simple way to script server responses. Connections
// are served one at a time.
type mockServer struct {
	t        *testing.T
	listener net.Listener
	addr     string

	// greeting is sent when a client connects
	greeting string

	// handlers maps a command verb (e.g., "USER") to its behaviour. Verbs
	// without a handler get the defaults in handle.
	handlers map[string]func(c *mockConn, args string)

	mu       sync.Mutex
	received []string
	current  net.Conn

	done chan struct{}
}

// mockConn is the server side of one control connection.
type mockConn struct {
	*textproto.Conn
	t    *testing.T
	data net.Listener
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ms := &mockServer{
		t:        t,
		listener: l,
		addr:     l.Addr().String(),
		greeting: "220 Service ready",
		handlers: make(map[string]func(*mockConn, string)),
		done:     make(chan struct{}),
	}
	t.Cleanup(ms.stop)
	return ms
}

func (s *mockServer) start() {
	go func() {
		defer close(s.done)
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				return
			}
			s.serve(conn)
		}
	}()
}

func (s *mockServer) serve(conn net.Conn) {
	s.mu.Lock()
	s.current = conn
	s.mu.Unlock()
	defer conn.Close()

	mc := &mockConn{Conn: textproto.NewConn(conn), t: s.t}
	defer mc.closeData()

	_ = mc.PrintfLine("%s", s.greeting)

	for {
		line, err := mc.ReadLine()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.received = append(s.received, line)
		s.mu.Unlock()

		cmd, args, _ := strings.Cut(line, " ")
		cmd = strings.ToUpper(cmd)

		if handler, ok := s.handlers[cmd]; ok {
			handler(mc, args)
			continue
		}
		if !s.handle(mc, cmd) {
			return
		}
	}
}

// handle implements the default replies. It returns false when the
// connection should be closed.
func (s *mockServer) handle(mc *mockConn, cmd string) bool {
	switch cmd {
	case "USER":
		mc.reply("331 User name okay, need password.")
	case "PASS":
		mc.reply("230 User logged in, proceed.")
	case "QUIT":
		mc.reply("221 Service closing control connection.")
		return false
	case "TYPE":
		mc.reply("200 Command okay.")
	case "PWD":
		mc.reply(`257 "/" is the current directory`)
	case "CWD":
		mc.reply("250 Directory changed.")
	case "NOOP":
		mc.reply("200 NOOP ok.")
	case "PASV":
		mc.openPassive()
	default:
		mc.reply("502 Command not implemented.")
	}
	return true
}

// commands returns every command line received so far.
func (s *mockServer) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.received))
	copy(out, s.received)
	return out
}

// verbs returns the verbs of the received commands.
func (s *mockServer) verbs() []string {
	var out []string
	for _, line := range s.commands() {
		verb, _, _ := strings.Cut(line, " ")
		out = append(out, verb)
	}
	return out
}

func (s *mockServer) stop() {
	s.listener.Close()
	s.mu.Lock()
	if s.current != nil {
		s.current.Close()
	}
	s.mu.Unlock()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		s.t.Error("mock server did not stop")
	}
}

// config returns a client configuration pointing at the server.
func (s *mockServer) config() *Config {
	host, port, _ := net.SplitHostPort(s.addr)
	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port, _ = strconv.Atoi(port)
	cfg.ConnectTimeout = 2 * time.Second
	cfg.IOTimeout = 5 * time.Second
	return cfg
}

// dialMock connects a client to a started mock server.
func dialMock(t *testing.T, s *mockServer, options ...Option) *Client {
	t.Helper()
	c, err := Dial(s.config(), options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func (c *mockConn) reply(format string, args ...any) {
	_ = c.PrintfLine(format, args...)
}

// openPassive listens for a data connection and announces it.
func (c *mockConn) openPassive() {
	c.closeData()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		c.reply("425 Can't open data connection.")
		return
	}
	c.data = l
	text, err := formatPASV("127.0.0.1", l.Addr().(*net.TCPAddr).Port)
	if err != nil {
		c.reply("425 %v", err)
		return
	}
	c.reply("227 %s", text)
}

func (c *mockConn) closeData() {
	if c.data != nil {
		c.data.Close()
		c.data = nil
	}
}

// acceptData accepts the client's data connection.
func (c *mockConn) acceptData() (net.Conn, error) {
	if c.data == nil {
		return nil, errors.New("no passive listener")
	}
	defer c.closeData()
	_ = c.data.(*net.TCPListener).SetDeadline(time.Now().Add(5 * time.Second))
	return c.data.Accept()
}

// sendData runs a download: 150, payload in chunks of chunk bytes, 226.
func (c *mockConn) sendData(payload []byte, chunk int) {
	c.reply("150 Opening data connection.")
	dc, err := c.acceptData()
	if err != nil {
		c.reply("425 %v", err)
		return
	}
	if chunk <= 0 {
		chunk = len(payload)
	}
	for len(payload) > 0 {
		n := min(chunk, len(payload))
		if _, err := dc.Write(payload[:n]); err != nil {
			break
		}
		payload = payload[n:]
	}
	dc.Close()
	c.reply("226 Transfer complete.")
}

// sendLines runs a download of CRLF terminated lines.
func (c *mockConn) sendLines(lines ...string) {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\r\n")
	}
	c.sendData([]byte(b.String()), 0)
}

// receiveData runs an upload and returns the bytes received.
func (c *mockConn) receiveData() []byte {
	c.reply("150 Ok to send data.")
	dc, err := c.acceptData()
	if err != nil {
		c.reply("425 %v", err)
		return nil
	}
	data, _ := io.ReadAll(bufio.NewReader(dc))
	dc.Close()
	c.reply("226 Transfer complete.")
	return data
}

// listingServer answers LIST with canned listings keyed by path.
func listingServer(t *testing.T, listings map[string][]string) *mockServer {
	ms := newMockServer(t)
	ms.handlers["LIST"] = func(c *mockConn, args string) {
		lines, ok := listings[args]
		if !ok {
			c.reply("550 %s: No such file or directory.", args)
			return
		}
		c.sendLines(lines...)
	}
	return ms
}

func dirLine(name string, links int) string {
	return fmt.Sprintf("drwxr-xr-x %d ftp ftp 4096 Jan 02 10:00 %s", links, name)
}

func fileLine(name string, size int) string {
	return fmt.Sprintf("-rw-r--r-- 1 ftp ftp %d Jan 02 10:00 %s", size, name)
}

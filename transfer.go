package ftp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TransferMode selects the command a transfer runs.
type TransferMode int

const (
	// ModeAppend appends to the remote file (APPE).
	ModeAppend TransferMode = iota
	// ModeOpen downloads the remote file (RETR).
	ModeOpen
	// ModeOverwrite creates or replaces the remote file (STOR).
	ModeOverwrite
)

func (m TransferMode) String() string {
	switch m {
	case ModeAppend:
		return "append"
	case ModeOpen:
		return "open"
	case ModeOverwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m TransferMode) verb() string {
	switch m {
	case ModeAppend:
		return "APPE"
	case ModeOpen:
		return "RETR"
	case ModeOverwrite:
		return "STOR"
	default:
		return ""
	}
}

func (m TransferMode) direction() string {
	if m == ModeOpen {
		return "download"
	}
	return "upload"
}

// StreamHandler moves data over an open data connection. Downloads read
// from r, uploads write to w. It returns the number of bytes moved.
type StreamHandler func(r io.Reader, w io.Writer) (int64, error)

// LineFunc receives each delivered line of ReadLines with its 1-based line
// number. Returning an error stops the read.
type LineFunc func(n int, line string) error

// Transfer runs one data transfer: PASV, REST offset when offset > 0, the
// mode's command for path, then handler with the data connection. The data
// connection is closed before Transfer returns and the server's closing
// reply is consumed even when handler fails, so the session stays usable.
//
// The transfer type is left as is; set it with Type first.
func (c *Client) Transfer(path string, mode TransferMode, offset int64, handler StreamHandler) (int64, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.transfer(path, mode, offset, handler)
}

func (c *Client) transfer(remote string, mode TransferMode, offset int64, handler StreamHandler) (int64, error) {
	verb := mode.verb()
	if verb == "" {
		return 0, fmt.Errorf("ftp: unknown transfer mode %d", int(mode))
	}

	start := time.Now()
	n, err := c.dataCommand(mode.String()+" "+remote, offset, func(conn net.Conn) (int64, error) {
		return handler(conn, conn)
	}, verb, remote)

	c.metrics.ObserveTransfer(mode.String(), mode.direction(), n, time.Since(start), err)
	if err != nil {
		c.logger.Debug("transfer failed", zap.String("mode", mode.String()), zap.String("path", remote),
			zap.Int64("bytes", n), zap.Error(err))
	} else {
		c.logger.Debug("transfer complete", zap.String("mode", mode.String()), zap.String("path", remote),
			zap.Int64("bytes", n))
	}
	return n, err
}

// Get downloads remote to local in binary mode. When local is a directory
// the file keeps its remote name inside it. With appendLocal the data is
// appended to an existing local file.
//
// The returned status is valid even when err is not nil: a failed transfer
// is marked aborted and its Length tells how many bytes reached the disk.
//
// Example:
//
//	status, err := client.Get("/pub/data.csv", "/tmp", false)
//	if err != nil {
//	    log.Printf("stopped after %d bytes: %v", status.Length(), err)
//	}
func (c *Client) Get(remote, local string, appendLocal bool) (*TransferStatus, error) {
	status := NewTransferStatus(remote)
	return status, c.GetWithStatus(remote, local, appendLocal, status)
}

// GetWithStatus is Get with a caller-supplied status, which may be read from
// another goroutine while the transfer runs.
func (c *Client) GetWithStatus(remote, local string, appendLocal bool, status *TransferStatus) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.get(remote, local, 0, appendLocal, status)
}

// GetFrom resumes a download: the server is asked to start at offset and the
// data is appended to local.
//
//	info, _ := os.Stat("large.bin")
//	status, err := client.GetFrom("large.bin", "large.bin", info.Size())
func (c *Client) GetFrom(remote, local string, offset int64) (*TransferStatus, error) {
	status := NewTransferStatus(remote)

	c.opMu.Lock()
	defer c.opMu.Unlock()
	return status, c.get(remote, local, offset, offset > 0, status)
}

func (c *Client) get(remote, local string, offset int64, appendLocal bool, status *TransferStatus) error {
	local = localTarget(remote, local)
	status.setLocalFile(local)

	if err := c.setType("I"); err != nil {
		return err
	}

	started := false
	_, err := c.transfer(remote, ModeOpen, offset, func(r io.Reader, _ io.Writer) (int64, error) {
		started = true
		status.begin(c.now())

		f, err := openLocal(local, appendLocal)
		if err != nil {
			return 0, err
		}
		n, err := copyChunks(f, r, status, c.touch)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close local file: %w", cerr)
		}
		return n, err
	})

	if started {
		c.finishStatus(status, StatusReceived, err)
	}
	return err
}

// localTarget appends the remote base name when local is a directory.
func localTarget(remote, local string) string {
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return filepath.Join(local, path.Base(remote))
	}
	return local
}

func openLocal(name string, appendLocal bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if appendLocal {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(name, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open local file: %w", err)
	}
	return f, nil
}

// Put uploads local to remote in binary mode, appending to the remote file
// when appendRemote is set. A missing local file is reported as
// StatusNotFound without touching the server.
func (c *Client) Put(local, remote string, appendRemote bool) (*TransferStatus, error) {
	status := NewTransferStatus(remote)
	return status, c.PutWithStatus(local, remote, appendRemote, status)
}

// PutWithStatus is Put with a caller-supplied status.
func (c *Client) PutWithStatus(local, remote string, appendRemote bool, status *TransferStatus) error {
	status.setLocalFile(local)

	f, err := os.Open(local)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			status.finish(StatusNotFound, c.now())
		}
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.IsDir() {
		return fmt.Errorf("ftp: %s is a directory", local)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.setType("I"); err != nil {
		return err
	}

	mode := ModeOverwrite
	if appendRemote {
		mode = ModeAppend
	}

	started := false
	_, err = c.transfer(remote, mode, 0, func(_ io.Reader, w io.Writer) (int64, error) {
		started = true
		status.begin(c.now())
		return copyChunks(w, f, status, c.touch)
	})

	if started {
		c.finishStatus(status, StatusSent, err)
	}
	return err
}

func (c *Client) finishStatus(status *TransferStatus, ok StatusCode, err error) {
	code := ok
	if err != nil {
		code = StatusAborted
	}
	status.finish(code, c.now())
}

// ReadLines streams a remote text file line by line. Lines numbered up to
// start are skipped; after that at most count lines are passed to fn
// (count <= 0 means all of them). Once the window is full the rest of the
// file is read and discarded so the transfer completes normally. The
// status Length counts every byte read, skipped or not.
//
// Example:
//
//	// print lines 11 to 20
//	_, err := client.ReadLines("/var/log/app.log", 10, 10, func(n int, line string) error {
//	    fmt.Println(n, line)
//	    return nil
//	})
func (c *Client) ReadLines(remote string, start, count int, fn LineFunc) (*TransferStatus, error) {
	status := NewTransferStatus(remote)

	c.opMu.Lock()
	defer c.opMu.Unlock()

	done := c.monitored("lines " + remote)

	if err := c.setType("A"); err != nil {
		return status, done(err)
	}

	started := false
	_, err := c.transfer(remote, ModeOpen, 0, func(r io.Reader, _ io.Writer) (int64, error) {
		started = true
		status.begin(c.now())
		return c.readLines(r, start, count, fn, status)
	})

	if started {
		c.finishStatus(status, StatusReceived, err)
	}
	return status, done(err)
}

func (c *Client) readLines(r io.Reader, start, count int, fn LineFunc, status *TransferStatus) (int64, error) {
	br := bufio.NewReader(decodeReader(c.enc, r))
	var total int64
	n := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			total += int64(len(line))
			status.add(int64(len(line)))
			c.touch()

			n++
			if n > start && (count <= 0 || n <= start+count) {
				if fn != nil {
					if ferr := fn(n, strings.TrimRight(line, "\r\n")); ferr != nil {
						return total, ferr
					}
				}
				status.addLine()
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Retrieve downloads remote into w in binary mode.
//
// Example:
//
//	var buf bytes.Buffer
//	err := client.Retrieve("remote.txt", &buf)
func (c *Client) Retrieve(remote string, w io.Writer) error {
	return c.RetrieveFrom(remote, w, 0)
}

// RetrieveFrom downloads remote into w starting at offset.
func (c *Client) RetrieveFrom(remote string, w io.Writer, offset int64) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.setType("I"); err != nil {
		return err
	}
	_, err := c.transfer(remote, ModeOpen, offset, func(r io.Reader, _ io.Writer) (int64, error) {
		return io.Copy(w, &ProgressReader{Reader: r, Callback: func(int64) { c.touch() }})
	})
	return err
}

// Store uploads the contents of r to remote, replacing it.
func (c *Client) Store(remote string, r io.Reader) error {
	return c.store(remote, r, ModeOverwrite)
}

// Append appends the contents of r to remote, creating it if needed.
func (c *Client) Append(remote string, r io.Reader) error {
	return c.store(remote, r, ModeAppend)
}

func (c *Client) store(remote string, r io.Reader, mode TransferMode) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.setType("I"); err != nil {
		return err
	}
	_, err := c.transfer(remote, mode, 0, func(_ io.Reader, w io.Writer) (int64, error) {
		return io.Copy(&ProgressWriter{Writer: w, Callback: func(int64) { c.touch() }}, r)
	})
	return err
}

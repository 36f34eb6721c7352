package ftp

import (
	"fmt"
	"sync"
	"time"
)

// StatusCode is the outcome of a transfer.
type StatusCode int

const (
	StatusNone StatusCode = iota
	StatusReceived
	StatusSent
	StatusAborted
	// StatusNotFound marks an upload whose local source does not exist.
	StatusNotFound
)

func (s StatusCode) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusReceived:
		return "received"
	case StatusSent:
		return "sent"
	case StatusAborted:
		return "aborted"
	case StatusNotFound:
		return "not-found"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether the code ends a transfer.
func (s StatusCode) Terminal() bool {
	return s != StatusNone
}

// TransferStatus tracks the progress and outcome of one transfer. All
// methods are safe to call while the transfer is running.
type TransferStatus struct {
	mu        sync.Mutex
	name      string
	localFile string
	length    int64
	lines     int64
	start     time.Time
	end       time.Time
	code      StatusCode
}

// TransferSnapshot is a point-in-time copy of a TransferStatus.
type TransferSnapshot struct {
	Name      string
	LocalFile string
	Length    int64
	Lines     int64
	StartTime time.Time
	EndTime   time.Time
	Code      StatusCode
}

// NewTransferStatus returns a status for the remote target name.
func NewTransferStatus(name string) *TransferStatus {
	return &TransferStatus{name: name}
}

func (s *TransferStatus) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *TransferStatus) LocalFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localFile
}

// Length returns the number of bytes moved so far.
func (s *TransferStatus) Length() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.length
}

// Lines returns the number of lines delivered by a line-oriented read.
func (s *TransferStatus) Lines() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

func (s *TransferStatus) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start
}

func (s *TransferStatus) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end
}

func (s *TransferStatus) Code() StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Elapsed returns the transfer duration, or the time since start while the
// transfer is still running. It is zero before the transfer starts.
func (s *TransferStatus) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.start.IsZero():
		return 0
	case s.end.IsZero():
		return time.Since(s.start)
	default:
		return s.end.Sub(s.start)
	}
}

func (s *TransferStatus) Snapshot() TransferSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TransferSnapshot{
		Name:      s.name,
		LocalFile: s.localFile,
		Length:    s.length,
		Lines:     s.lines,
		StartTime: s.start,
		EndTime:   s.end,
		Code:      s.code,
	}
}

func (s *TransferStatus) String() string {
	snap := s.Snapshot()
	return fmt.Sprintf("%s: %s (%d bytes)", snap.Name, snap.Code, snap.Length)
}

func (s *TransferStatus) setLocalFile(path string) {
	s.mu.Lock()
	s.localFile = path
	s.mu.Unlock()
}

func (s *TransferStatus) begin(now time.Time) {
	s.mu.Lock()
	if s.start.IsZero() {
		s.start = now
	}
	s.mu.Unlock()
}

// add grows the byte count. Updates after the terminal transition are
// dropped.
func (s *TransferStatus) add(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	if !s.code.Terminal() {
		s.length += n
	}
	s.mu.Unlock()
}

func (s *TransferStatus) addLine() {
	s.mu.Lock()
	if !s.code.Terminal() {
		s.lines++
	}
	s.mu.Unlock()
}

// finish records the terminal code once; later calls are ignored.
func (s *TransferStatus) finish(code StatusCode, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code.Terminal() {
		return false
	}
	s.code = code
	s.end = now
	if s.start.IsZero() {
		s.start = now
	}
	return true
}

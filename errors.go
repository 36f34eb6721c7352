package ftp

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNotConnected is returned when a command is attempted on a session
	// that has no control connection or whose connection is no longer live.
	// No I/O is performed before this error is returned.
	ErrNotConnected = errors.New("ftp: not connected")

	// ErrActiveModeUnsupported is returned when the session is configured for
	// active (PORT) mode. Only passive mode data connections are implemented.
	ErrActiveModeUnsupported = errors.New("ftp: active mode is not supported")

	// ErrMalformedPASV is returned when a PASV reply does not carry a
	// (h1,h2,h3,h4,p1,p2) tuple.
	ErrMalformedPASV = errors.New("ftp: malformed PASV reply")

	// ErrNoTransfer is returned by CancelTransfer when no data connection is open.
	ErrNoTransfer = errors.New("ftp: no transfer in progress")
)

// ProtocolError represents a failed FTP exchange with full context of the
// command/response conversation.
//
// A protocol failure (the server answered with a failure or unparseable
// reply) has a nil Err and carries the reply in Response and Code. A
// transport failure (socket I/O on the control or data channel) carries the
// underlying cause in Err; Code is 0 in that case.
type ProtocolError struct {
	// Command is the FTP command that was being executed (e.g., "STOR file.txt")
	Command string

	// Response is the reply text received from the server (e.g., "Permission denied")
	Response string

	// Code is the numeric FTP reply code (e.g., 550)
	Code int

	// Err is the underlying transport error, if any
	Err error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ftp: %s failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("ftp: %s failed: %s (code %d)", e.Command, e.Response, e.Code)
}

// Unwrap returns the underlying transport error.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Is4xx returns true if the error code is in the 4xx range (temporary failure).
func (e *ProtocolError) Is4xx() bool {
	return e.Code >= 400 && e.Code < 500
}

// Is5xx returns true if the error code is in the 5xx range (permanent failure).
func (e *ProtocolError) Is5xx() bool {
	return e.Code >= 500 && e.Code < 600
}

// IsTemporary returns true if the error is a temporary failure (4xx).
func (e *ProtocolError) IsTemporary() bool {
	return e.Is4xx()
}

// IsPermanent returns true if the error is a permanent failure (5xx).
func (e *ProtocolError) IsPermanent() bool {
	return e.Is5xx()
}

// IsTransport reports whether the failure came from socket I/O rather than
// from a reply sent by the server.
func (e *ProtocolError) IsTransport() bool {
	return e.Err != nil
}

// Timeout reports whether the underlying transport error was a timeout.
func (e *ProtocolError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

func replyError(command string, resp *Response) *ProtocolError {
	return &ProtocolError{
		Command:  command,
		Response: resp.Message,
		Code:     resp.Code,
	}
}

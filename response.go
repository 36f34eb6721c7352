package ftp

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Response represents an FTP server reply.
type Response struct {
	// Code is the three-digit reply code (e.g., 220, 550), or 0 when the
	// reply line could not be parsed.
	Code int

	// Message is the human-readable text of the reply. For multi-line
	// replies the text of every line is joined with "\n".
	Message string

	// Lines contains every raw line of the reply
	Lines []string
}

// Success reports whether the reply signals success: 1xx, 2xx and 3xx
// codes are informational, complete or pending; 4xx, 5xx and unparseable
// replies are failures.
func (r *Response) Success() bool {
	return r.Code > 0 && r.Code < 400
}

// Preliminary reports whether the reply is a 1xx mark, meaning the server
// will send another reply once the requested action completes.
func (r *Response) Preliminary() bool {
	return r.Code >= 100 && r.Code < 200
}

// Is2xx returns true if the response code is in the 2xx range (success).
func (r *Response) Is2xx() bool {
	return r.Code >= 200 && r.Code < 300
}

// Body returns the intermediate lines of a multi-line reply, without the
// opening and terminating status lines. A "NNN-" prefix on an intermediate
// line is removed along with surrounding whitespace.
func (r *Response) Body() []string {
	if len(r.Lines) < 3 {
		return nil
	}
	body := make([]string, 0, len(r.Lines)-2)
	for _, line := range r.Lines[1 : len(r.Lines)-1] {
		if len(line) >= 4 && line[3] == '-' && isCode(line[:3]) {
			line = line[4:]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			body = append(body, line)
		}
	}
	return body
}

// String returns the full response as a string.
func (r *Response) String() string {
	return strings.Join(r.Lines, "\n")
}

// parseResponseLine decodes a single control-channel line. The leading
// three digits are the code and the text starts after the delimiter at
// offset 3. Lines that do not start with a numeric code are returned whole
// as text with code 0.
func parseResponseLine(line string) *Response {
	resp := &Response{Lines: []string{line}}
	if len(line) < 3 || !isCode(line[:3]) {
		resp.Message = line
		return resp
	}
	code, _ := strconv.Atoi(line[:3])
	resp.Code = code
	if len(line) > 4 {
		resp.Message = line[4:]
	}
	return resp
}

func isCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// readResponse reads a complete FTP reply from the reader.
// It handles both single-line and multi-line replies.
//
// Single-line format: "220 Welcome\r\n"
// Multi-line format:
//
//	"211-Status of /pub:\r\n"
//	" -rw-r--r-- 1 ftp ftp 1024 Jan 02 10:00 a.txt\r\n"
//	"211 End of status\r\n"
//
// A multi-line reply is complete when a line starts with the same non-zero
// code followed by a space. Lines in between are accumulated verbatim.
func readResponse(r *bufio.Reader) (*Response, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}

	resp := parseResponseLine(line)
	if resp.Code == 0 || len(line) < 4 || line[3] != '-' {
		return resp, nil
	}

	code := line[:3]
	texts := []string{resp.Message}
	for {
		next, err := readLine(r)
		if err != nil {
			return nil, err
		}
		resp.Lines = append(resp.Lines, next)

		if len(next) >= 4 && next[:3] == code && next[3] == ' ' {
			texts = append(texts, next[4:])
			break
		}
		if len(next) >= 4 && next[:3] == code && next[3] == '-' {
			texts = append(texts, next[4:])
		} else {
			texts = append(texts, strings.TrimSpace(next))
		}
	}
	resp.Message = strings.Join(texts, "\n")
	return resp, nil
}

// readLine reads one CR-LF (or bare LF) terminated line. A final line
// without terminator is returned when the peer closes the connection.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		if err == io.EOF {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

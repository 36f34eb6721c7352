package ftp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ChangeDir changes the current working directory.
func (c *Client) ChangeDir(path string) error {
	_, err := c.exec("CWD", path)
	return err
}

// ChangeDirUp changes to the parent of the current working directory.
func (c *Client) ChangeDirUp() error {
	_, err := c.exec("CDUP")
	return err
}

// CurrentDir returns the current working directory.
func (c *Client) CurrentDir() (string, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.currentDir()
}

func (c *Client) currentDir() (string, error) {
	resp, err := c.expectSuccess("PWD")
	if err != nil {
		return "", err
	}
	return parsePWD(resp.Message), nil
}

// parsePWD extracts the directory from a reply such as
// `"/home/user" is the current directory`. Servers that do not quote the
// path get the whole trimmed text.
func parsePWD(msg string) string {
	start := strings.Index(msg, "\"")
	if start == -1 {
		return strings.TrimSpace(msg)
	}
	end := strings.Index(msg[start+1:], "\"")
	if end == -1 {
		return strings.TrimSpace(msg)
	}
	return msg[start+1 : start+1+end]
}

// MakeDir creates a new directory.
func (c *Client) MakeDir(path string) error {
	_, err := c.exec("MKD", path)
	return err
}

// RemoveDir removes an empty directory.
func (c *Client) RemoveDir(path string) error {
	_, err := c.exec("RMD", path)
	return err
}

// Delete deletes a file.
func (c *Client) Delete(path string) error {
	_, err := c.exec("DELE", path)
	return err
}

// Rename renames a file or directory with RNFR followed by RNTO.
func (c *Client) Rename(from, to string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if _, err := c.expectSuccess("RNFR", from); err != nil {
		return err
	}
	_, err := c.expectSuccess("RNTO", to)
	return err
}

// Size returns the size of a file in bytes.
func (c *Client) Size(path string) (int64, error) {
	resp, err := c.exec("SIZE", path)
	if err != nil {
		return 0, err
	}

	size, err := strconv.ParseInt(strings.TrimSpace(resp.Message), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid SIZE response: %s", resp.Message)
	}
	return size, nil
}

// ModTime returns the modification time of a file using MDTM.
//
// Example:
//
//	modTime, err := client.ModTime("file.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Last modified: %s\n", modTime)
func (c *Client) ModTime(path string) (time.Time, error) {
	resp, err := c.exec("MDTM", path)
	if err != nil {
		return time.Time{}, err
	}
	return parseMDTM(resp.Message)
}

// parseMDTM reads YYYYMMDDhhmmss with an optional fractional part. MDTM
// times are UTC.
func parseMDTM(msg string) (time.Time, error) {
	timestamp := strings.TrimSpace(msg)
	if i := strings.IndexByte(timestamp, '.'); i >= 0 {
		timestamp = timestamp[:i]
	}
	if len(timestamp) != 14 {
		return time.Time{}, fmt.Errorf("invalid MDTM response format: %s", msg)
	}

	modTime, err := time.Parse("20060102150405", timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse MDTM timestamp: %w", err)
	}
	return modTime.UTC(), nil
}

// Stat returns the body of a STAT reply for path, one line per entry.
func (c *Client) Stat(path string) ([]string, error) {
	resp, err := c.exec("STAT", path)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// StatEntries runs STAT for path and parses every body line as a listing
// entry. Servers usually cap the STAT reply; ListFiles is the way to read
// large directories.
func (c *Client) StatEntries(path string) ([]*FileEntry, error) {
	lines, err := c.Stat(path)
	if err != nil {
		return nil, err
	}
	entries := make([]*FileEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, c.parser.Parse(path, line))
	}
	return entries, nil
}

// ServerStatus returns the text of a bare STAT reply.
func (c *Client) ServerStatus() (string, error) {
	resp, err := c.exec("STAT")
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Exists reports whether path exists. A failure reply means it does not;
// otherwise the STAT reply must describe at least one entry.
func (c *Client) Exists(path string) (bool, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	resp, err := c.sendCommand("STAT", path)
	if err != nil {
		return false, err
	}
	if !resp.Success() {
		return false, nil
	}
	return len(resp.Body()) > 0, nil
}

// Help returns the words of a HELP reply, optionally for one command.
func (c *Client) Help(command string) ([]string, error) {
	var (
		resp *Response
		err  error
	)
	if command == "" {
		resp, err = c.exec("HELP")
	} else {
		resp, err = c.exec("HELP", command)
	}
	if err != nil {
		return nil, err
	}

	var words []string
	for _, line := range resp.Body() {
		words = append(words, strings.Fields(line)...)
	}
	return words, nil
}

// Type sets the transfer type ("A" or "I"). Repeating the current type
// sends nothing.
func (c *Client) Type(transferType string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.setType(transferType)
}

func (c *Client) setType(transferType string) error {
	if c.currentType == transferType {
		return nil
	}
	if _, err := c.expectSuccess("TYPE", transferType); err != nil {
		return err
	}
	c.currentType = transferType
	return nil
}

// Mode sets the transfer mode ("S", "B" or "C").
func (c *Client) Mode(mode string) error {
	_, err := c.exec("MODE", mode)
	return err
}

// RestartAt sets the restart marker for the next transfer command. The
// Transfer family issues REST itself when given an offset.
func (c *Client) RestartAt(offset int64) error {
	_, err := c.exec("REST", strconv.FormatInt(offset, 10))
	return err
}

// Abort sends ABOR. To interrupt a transfer running on another goroutine
// use CancelTransfer.
func (c *Client) Abort() error {
	_, err := c.exec("ABOR")
	return err
}

// Reinit sends REIN. The server forgets the login; call Login before the
// next command that needs it.
func (c *Client) Reinit() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if _, err := c.expectSuccess("REIN"); err != nil {
		return err
	}
	c.currentType = ""
	c.setState(StateConnected)
	return nil
}

// Noop sends NOOP, refreshing the session's last activity.
func (c *Client) Noop() error {
	_, err := c.exec("NOOP")
	return err
}

// SetOption sends OPTS with ON or OFF, e.g. SetOption("UTF8", true).
func (c *Client) SetOption(option string, enabled bool) error {
	value := "OFF"
	if enabled {
		value = "ON"
	}
	_, err := c.exec("OPTS", option, value)
	return err
}

// System returns the SYST reply text.
func (c *Client) System() (string, error) {
	resp, err := c.exec("SYST")
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Quote sends a raw command and returns the reply whatever its code.
//
// Example:
//
//	resp, err := client.Quote("SITE", "CHMOD", "755", "script.sh")
func (c *Client) Quote(command string, args ...string) (*Response, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.sendCommand(command, args...)
}

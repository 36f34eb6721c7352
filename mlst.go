package ftp

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// MLStat describes a single path with MLST (RFC 3659). Every fact sent by
// the server is kept in the entry's Properties: "size" as an int, "modify"
// as a time and the rest as strings.
//
// Example:
//
//	entry, err := client.MLStat("file.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	perm, _ := entry.Properties.String("perm")
//	fmt.Printf("Size: %d, Modified: %s, Perm: %s\n", entry.Size, entry.ModTime, perm)
func (c *Client) MLStat(path string) (*FileEntry, error) {
	resp, err := c.exec("MLST", path)
	if err != nil {
		return nil, err
	}

	// 250-Listing path
	//  type=file;size=12; path
	// 250 End
	body := resp.Body()
	if len(body) == 0 {
		return nil, errors.New("ftp: no entry found in MLST response")
	}
	return parseFacts("", body[0])
}

// MLList lists path with MLSD. Lines that are not fact lists are skipped.
func (c *Client) MLList(path string) ([]*FileEntry, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var args []string
	if path != "" {
		args = append(args, path)
	}

	var entries []*FileEntry
	_, err := c.dataCommand(commandLine("MLSD", args...), 0, func(conn net.Conn) (int64, error) {
		scanner := bufio.NewScanner(decodeReader(c.enc, conn))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			entry, err := parseFacts(path, line)
			if err != nil {
				c.logger.Debug("skipping MLSD line", zap.String("line", line))
				continue
			}
			entries = append(entries, entry)
		}
		return 0, scanner.Err()
	}, "MLSD", args...)
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveEntries(len(entries))
	return entries, nil
}

// parseFacts parses "fact1=value1;fact2=value2; name". Fact names are
// case-insensitive and stored lower-cased.
func parseFacts(parent, line string) (*FileEntry, error) {
	facts, name, ok := strings.Cut(line, " ")
	if !ok || name == "" {
		return nil, fmt.Errorf("invalid fact line: %q", line)
	}

	entry := &FileEntry{Raw: line, Name: name, Parent: parent, Properties: NewProperties()}
	for _, pair := range strings.Split(facts, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" {
			continue
		}
		key = strings.ToLower(key)

		switch key {
		case "type":
			entry.Type = factType(value)
			entry.Properties.Set(key, StringValue(strings.ToLower(value)))
		case "size", "sizd":
			if size, err := strconv.ParseInt(value, 10, 64); err == nil {
				entry.Size = size
				entry.Properties.Set(key, IntValue(size))
			}
		case "modify":
			if modTime, err := parseMDTM(value); err == nil {
				entry.ModTime = modTime
				entry.Properties.Set(key, TimeValue(modTime))
			}
		case "unix.mode":
			entry.Permission = value
			entry.Properties.Set(key, StringValue(value))
		default:
			entry.Properties.Set(key, StringValue(value))
		}
	}
	return entry, nil
}

func factType(value string) PathType {
	switch v := strings.ToLower(value); {
	case v == "file":
		return PathFile
	case v == "dir" || v == "cdir" || v == "pdir":
		return PathDirectory
	case strings.HasPrefix(v, "os.unix=slink"):
		return PathSymlink
	default:
		return PathUnknown
	}
}

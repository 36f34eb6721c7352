package ftp

import (
	"bufio"
	"net"
	"strings"
)

// Filter selects listing entries. A nil Filter accepts everything.
type Filter func(*FileEntry) bool

func isDirectory(e *FileEntry) bool {
	return e.IsDir()
}

// ListFiles lists path with LIST and returns the parsed entries accepted by
// filter, in server order. An empty path lists the working directory.
// Every non-blank line yields an entry, so lines such as "total 12" come
// back with only Raw and Parent set.
//
// Example:
//
//	entries, err := client.ListFiles("/pub", func(e *ftp.FileEntry) bool {
//	    return e.IsFile() && strings.HasSuffix(e.Name, ".csv")
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range entries {
//	    fmt.Printf("%s: %d bytes\n", e.FullPath(), e.Size)
//	}
func (c *Client) ListFiles(path string, filter Filter) ([]*FileEntry, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	done := c.monitored("list " + path)
	entries, err := c.listFiles(path, filter)
	return entries, done(err)
}

func (c *Client) listFiles(path string, filter Filter) ([]*FileEntry, error) {
	var args []string
	if path != "" {
		args = append(args, path)
	}

	var entries []*FileEntry
	_, err := c.dataCommand(commandLine("LIST", args...), 0, func(conn net.Conn) (int64, error) {
		var total int64
		scanner := bufio.NewScanner(decodeReader(c.enc, conn))
		for scanner.Scan() {
			line := scanner.Text()
			total += int64(len(line)) + 1
			if strings.TrimSpace(line) == "" {
				continue
			}
			entry := c.parser.Parse(path, line)
			if filter == nil || filter(entry) {
				entries = append(entries, entry)
			}
		}
		return total, scanner.Err()
	}, "LIST", args...)
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveEntries(len(entries))
	return entries, nil
}

// ExploreFiles walks the tree under path. Files accepted by filter come
// first, then each subdirectory: the directory entry itself when
// includeDirs is set, immediately followed by everything found beneath it.
// Only regular files are returned as files: links, devices, FIFOs and bare
// names of unknown type are skipped along with nameless lines and the "."
// and ".." directories.
//
// The walk keeps no record of visited directories; a tree with a
// directory cycle does not terminate unless a Monitor bounds it.
func (c *Client) ExploreFiles(path string, filter Filter, includeDirs bool) ([]*FileEntry, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	done := c.monitored("explore " + path)
	entries, err := c.exploreFiles(path, filter, includeDirs)
	return entries, done(err)
}

func (c *Client) exploreFiles(path string, filter Filter, includeDirs bool) ([]*FileEntry, error) {
	listing, err := c.listFiles(path, nil)
	if err != nil {
		return nil, err
	}

	var files, dirs []*FileEntry
	for _, e := range listing {
		switch {
		case e.Name == "":
		case e.IsDir():
			if !e.isDotDir() {
				dirs = append(dirs, e)
			}
		case e.IsFile() && (filter == nil || filter(e)):
			files = append(files, e)
		}
	}

	result := files
	for _, dir := range dirs {
		if includeDirs {
			result = append(result, dir)
		}
		sub, err := c.exploreFiles(dir.FullPath(), filter, includeDirs)
		if err != nil {
			return nil, err
		}
		result = append(result, sub...)
	}
	return result, nil
}

// ExploreDirectories returns every directory under path, each followed by
// its own subdirectories. A directory is only descended into when its link
// count is above 2, the Unix hint that it has subdirectories of its own.
// Servers and filesystems that report other link counts are under- or
// over-explored accordingly.
func (c *Client) ExploreDirectories(path string) ([]*FileEntry, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	done := c.monitored("explore dirs " + path)
	dirs, err := c.exploreDirectories(path)
	return dirs, done(err)
}

func (c *Client) exploreDirectories(path string) ([]*FileEntry, error) {
	listing, err := c.listFiles(path, isDirectory)
	if err != nil {
		return nil, err
	}

	var result []*FileEntry
	for _, dir := range listing {
		if dir.isDotDir() {
			continue
		}
		result = append(result, dir)
		if dir.Links > 2 {
			sub, err := c.exploreDirectories(dir.FullPath())
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		}
	}
	return result, nil
}

// ListDirectories lists the directories of the working directory. With
// explore, each one is followed by its ExploreDirectories result.
func (c *Client) ListDirectories(explore bool) ([]*FileEntry, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	done := c.monitored("list dirs")
	dirs, err := c.listDirectories(explore)
	return dirs, done(err)
}

func (c *Client) listDirectories(explore bool) ([]*FileEntry, error) {
	listing, err := c.listFiles("", isDirectory)
	if err != nil || !explore {
		return listing, err
	}

	var result []*FileEntry
	for _, dir := range listing {
		result = append(result, dir)
		if dir.isDotDir() {
			continue
		}
		sub, err := c.exploreDirectories(dir.FullPath())
		if err != nil {
			return nil, err
		}
		result = append(result, sub...)
	}
	return result, nil
}

// NameList returns the names in path using NLST, one per line.
func (c *Client) NameList(path string) ([]string, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var args []string
	if path != "" {
		args = append(args, path)
	}

	var names []string
	_, err := c.dataCommand(commandLine("NLST", args...), 0, func(conn net.Conn) (int64, error) {
		scanner := bufio.NewScanner(decodeReader(c.enc, conn))
		for scanner.Scan() {
			if name := strings.TrimSpace(scanner.Text()); name != "" {
				names = append(names, name)
			}
		}
		return 0, scanner.Err()
	}, "NLST", args...)
	if err != nil {
		return nil, err
	}
	return names, nil
}

package ftp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PathType is the kind of a directory entry, taken from the first character
// of a Unix permission string.
type PathType int

const (
	PathUnknown PathType = iota
	PathFile
	PathDirectory
	PathSymlink
	PathBlockDevice
	PathCharDevice
)

func (t PathType) String() string {
	switch t {
	case PathFile:
		return "file"
	case PathDirectory:
		return "dir"
	case PathSymlink:
		return "link"
	case PathBlockDevice:
		return "block"
	case PathCharDevice:
		return "char"
	default:
		return "unknown"
	}
}

func pathTypeOf(c byte) PathType {
	switch c {
	case '-':
		return PathFile
	case 'd':
		return PathDirectory
	case 'l':
		return PathSymlink
	case 'b':
		return PathBlockDevice
	case 'c':
		return PathCharDevice
	default:
		return PathUnknown
	}
}

// FileEntry is one line of a directory listing. Lines that are not in the
// nine-column Unix format leave most fields at their zero value.
type FileEntry struct {
	// Raw is the listing line as received.
	Raw string

	Type       PathType
	Permission string
	Links      int
	Owner      string
	Group      string
	Size       int64
	ModTime    time.Time
	Name       string

	// Parent is the directory that was listed.
	Parent string

	// Properties holds caller-attached metadata. Entries produced by the
	// parsers always carry a bag; copies of an entry share it.
	Properties *Properties
}

// FullPath joins Parent and Name. The dot entries are special: "." listed
// in "/home" yields "./home".
func (e *FileEntry) FullPath() string {
	switch {
	case e.Name == "." || e.Name == "..":
		return e.Name + e.Parent
	case e.Parent == "":
		return e.Name
	case strings.HasSuffix(e.Parent, "/"):
		return e.Parent + e.Name
	default:
		return e.Parent + "/" + e.Name
	}
}

func (e *FileEntry) IsDir() bool {
	return e.Type == PathDirectory
}

// IsFile reports whether the entry is a regular file.
func (e *FileEntry) IsFile() bool {
	return e.Type == PathFile
}

func (e *FileEntry) isDotDir() bool {
	return e.Name == "." || e.Name == ".."
}

func (e *FileEntry) String() string {
	if e.Name == "" {
		return e.Raw
	}
	return fmt.Sprintf("%s %s %d %s", e.Type, e.FullPath(), e.Size, e.ModTime.Format(time.RFC3339))
}

var (
	englishMonths = [12]string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	}
	localizedMonths = [12]string{
		"1月", "2月", "3月", "4月", "5月", "6月",
		"7月", "8月", "9月", "10月", "11月", "12月",
	}
)

// lookupMonth resolves a month token against both month tables, accepting
// a bare month number as well. It returns 0 when nothing matches.
func lookupMonth(tok string) time.Month {
	for i := range englishMonths {
		if strings.EqualFold(tok, englishMonths[i]) || tok == localizedMonths[i] {
			return time.Month(i + 1)
		}
	}
	if n, err := strconv.Atoi(tok); err == nil && n >= 1 && n <= 12 {
		return time.Month(n)
	}
	return 0
}

// ListParser converts LIST output lines into FileEntry values.
type ListParser struct {
	// Now supplies the current year for "HH:MM" dates. Defaults to time.Now.
	Now func() time.Time
}

var defaultListParser = &ListParser{}

// ParseEntry parses one LIST line produced for the directory parent.
func ParseEntry(parent, line string) *FileEntry {
	return defaultListParser.Parse(parent, line)
}

// Parse never fails: unrecognised lines produce an entry carrying only Raw
// and Parent.
func (p *ListParser) Parse(parent, line string) *FileEntry {
	entry := &FileEntry{Raw: line, Parent: parent, Properties: NewProperties()}
	fields := strings.Fields(line)

	switch len(fields) {
	case 9:
		p.parseUnix(entry, fields)
	case 1:
		parseBarePath(entry, fields[0])
	}
	return entry
}

func (p *ListParser) parseUnix(entry *FileEntry, fields []string) {
	perm := fields[0]
	entry.Type = pathTypeOf(perm[0])
	entry.Permission = perm[1:]
	entry.Links, _ = strconv.Atoi(fields[1])
	entry.Group = fields[2]
	entry.Owner = fields[3]
	entry.Size, _ = strconv.ParseInt(fields[4], 10, 64)
	entry.ModTime = p.parseDate(fields[5], fields[6], fields[7])
	entry.Name = fields[8]
}

// parseDate reads "Mon DD HH:MM" or "Mon DD YYYY". The zero time is returned
// for anything else.
func (p *ListParser) parseDate(month, day, yearOrTime string) time.Time {
	m := lookupMonth(month)
	if m == 0 {
		return time.Time{}
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}
	}

	year, hour, minute := 0, 0, 0
	if hh, mm, ok := strings.Cut(yearOrTime, ":"); ok {
		if hour, err = strconv.Atoi(hh); err != nil || hour < 0 || hour > 23 {
			return time.Time{}
		}
		if minute, err = strconv.Atoi(mm); err != nil || minute < 0 || minute > 59 {
			return time.Time{}
		}
		year = p.now().UTC().Year()
	} else if year, err = strconv.Atoi(yearOrTime); err != nil {
		return time.Time{}
	}

	return time.Date(year, m, d, hour, minute, 0, 0, time.UTC)
}

func (p *ListParser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// parseBarePath fills Name and Parent from a single-column line such as
// NLST output or "dir/file.txt".
func parseBarePath(entry *FileEntry, tok string) {
	i := strings.LastIndex(tok, "/")
	switch {
	case i < 0:
		entry.Name = tok
	case i == 0:
		entry.Parent = "/"
		entry.Name = tok[1:]
	default:
		entry.Parent = tok[:i]
		entry.Name = tok[i+1:]
	}
}

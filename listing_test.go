package ftp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedParser() *ListParser {
	return &ListParser{Now: func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}}
}

func TestListParser_Unix(t *testing.T) {
	t.Parallel()
	p := fixedParser()

	tests := []struct {
		name string
		line string
		want FileEntry
	}{
		{
			name: "file with time",
			line: "-rw-r--r--   1 staff  alice     1024 Dec 20 10:30 file.txt",
			want: FileEntry{
				Type: PathFile, Permission: "rw-r--r--", Links: 1,
				Group: "staff", Owner: "alice", Size: 1024,
				ModTime: time.Date(2024, 12, 20, 10, 30, 0, 0, time.UTC),
				Name:    "file.txt",
			},
		},
		{
			name: "directory with year",
			line: "drwxr-xr-x 5 ftp ftp 4096 Mar 03 2019 pub",
			want: FileEntry{
				Type: PathDirectory, Permission: "rwxr-xr-x", Links: 5,
				Group: "ftp", Owner: "ftp", Size: 4096,
				ModTime: time.Date(2019, 3, 3, 0, 0, 0, 0, time.UTC),
				Name:    "pub",
			},
		},
		{
			name: "localized month",
			line: "drwxr-xr-x 2 ftp ftp 4096 1月 02 10:00 文档",
			want: FileEntry{
				Type: PathDirectory, Permission: "rwxr-xr-x", Links: 2,
				Group: "ftp", Owner: "ftp", Size: 4096,
				ModTime: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
				Name:    "文档",
			},
		},
		{
			name: "numeric month",
			line: "-rw-r--r-- 1 ftp ftp 7 11 30 2022 n.txt",
			want: FileEntry{
				Type: PathFile, Permission: "rw-r--r--", Links: 1,
				Group: "ftp", Owner: "ftp", Size: 7,
				ModTime: time.Date(2022, 11, 30, 0, 0, 0, 0, time.UTC),
				Name:    "n.txt",
			},
		},
		{
			name: "symlink keeps name column only",
			line: "lrwxrwxrwx 1 root root 7 jan 01 2020 bin",
			want: FileEntry{
				Type: PathSymlink, Permission: "rwxrwxrwx", Links: 1,
				Group: "root", Owner: "root", Size: 7,
				ModTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				Name:    "bin",
			},
		},
		{
			name: "malformed numbers",
			line: "crw-rw---- x ftp ftp big Jan 02 10:00 tty",
			want: FileEntry{
				Type: PathCharDevice, Permission: "rw-rw----",
				Group: "ftp", Owner: "ftp",
				ModTime: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
				Name:    "tty",
			},
		},
		{
			name: "bad date",
			line: "brw-rw---- 1 ftp ftp 0 Foo 02 10:00 sda",
			want: FileEntry{
				Type: PathBlockDevice, Permission: "rw-rw----", Links: 1,
				Group: "ftp", Owner: "ftp", Name: "sda",
			},
		},
		{
			name: "out of range time",
			line: "-rw-r--r-- 1 ftp ftp 0 Jan 02 24:00 late",
			want: FileEntry{
				Type: PathFile, Permission: "rw-r--r--", Links: 1,
				Group: "ftp", Owner: "ftp", Name: "late",
			},
		},
		{
			name: "unknown type",
			line: "?rw-r--r-- 1 ftp ftp 0 Jan 02 2020 odd",
			want: FileEntry{
				Type: PathUnknown, Permission: "rw-r--r--", Links: 1,
				Group: "ftp", Owner: "ftp",
				ModTime: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				Name:    "odd",
			},
		},
	}

	for i := range tests {
		tt := &tests[i]
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse("/pub", tt.line)
			tt.want.Raw = tt.line
			tt.want.Parent = "/pub"
			assert.Equal(t, tt.want.Raw, got.Raw)
			assert.Equal(t, tt.want.Parent, got.Parent)
			assert.Equal(t, tt.want.Type, got.Type)
			assert.Equal(t, tt.want.Permission, got.Permission)
			assert.Equal(t, tt.want.Links, got.Links)
			assert.Equal(t, tt.want.Group, got.Group)
			assert.Equal(t, tt.want.Owner, got.Owner)
			assert.Equal(t, tt.want.Size, got.Size)
			assert.True(t, tt.want.ModTime.Equal(got.ModTime), "ModTime = %v, want %v", got.ModTime, tt.want.ModTime)
			assert.Equal(t, tt.want.Name, got.Name)
		})
	}
}

func TestListParser_YearFollowsClock(t *testing.T) {
	t.Parallel()
	p := &ListParser{Now: func() time.Time {
		// late evening west of UTC is already next year in UTC
		return time.Date(2023, 12, 31, 23, 0, 0, 0, time.FixedZone("EST", -5*3600))
	}}
	e := p.Parse("", "-rw-r--r-- 1 ftp ftp 0 Feb 01 09:15 f")
	assert.Equal(t, 2024, e.ModTime.Year())
	assert.Equal(t, time.UTC, e.ModTime.Location())
}

func TestListParser_PartialLines(t *testing.T) {
	t.Parallel()
	p := fixedParser()

	tests := []struct {
		name       string
		parent     string
		line       string
		wantName   string
		wantParent string
	}{
		{"total line", "/pub", "total 12", "", "/pub"},
		{"eight columns", "/pub", "-rw-r--r-- 1 ftp ftp 0 Jan 02 name", "", "/pub"},
		{"bare name", "/pub", "file.txt", "file.txt", "/pub"},
		{"bare relative path", "/pub", "dir/sub/file.txt", "file.txt", "dir/sub"},
		{"bare rooted name", "/pub", "/file.txt", "file.txt", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := p.Parse(tt.parent, tt.line)
			assert.Equal(t, tt.line, e.Raw)
			assert.Equal(t, tt.wantName, e.Name)
			assert.Equal(t, tt.wantParent, e.Parent)
			assert.Equal(t, PathUnknown, e.Type)
			assert.True(t, e.ModTime.IsZero())
		})
	}
}

func TestParseEntry_DefaultParser(t *testing.T) {
	t.Parallel()
	e := ParseEntry("/", "drwxr-xr-x 3 ftp ftp 4096 Jan 02 2001 pub")
	require.NotNil(t, e)
	assert.True(t, e.IsDir())
	assert.Equal(t, "/pub", e.FullPath())
}

func TestFileEntry_FullPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		parent string
		name   string
		want   string
	}{
		{"/home", "file", "/home/file"},
		{"/", "file", "/file"},
		{"/home/", "file", "/home/file"},
		{"", "file", "file"},
		{"docs", "a.txt", "docs/a.txt"},
		{"/home", ".", "./home"},
		{"/home", "..", "../home"},
		{"", ".", "."},
	}
	for _, tt := range tests {
		e := &FileEntry{Parent: tt.parent, Name: tt.name}
		assert.Equal(t, tt.want, e.FullPath(), "parent %q name %q", tt.parent, tt.name)
	}
}

func TestLookupMonth(t *testing.T) {
	t.Parallel()
	tests := map[string]time.Month{
		"Jan": time.January,
		"jan": time.January,
		"DEC": time.December,
		"1月":  time.January,
		"12月": time.December,
		"7":   time.July,
		"13":  0,
		"0":   0,
		"Foo": 0,
		"":    0,
	}
	for tok, want := range tests {
		assert.Equal(t, want, lookupMonth(tok), tok)
	}
}

func TestPathType_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "file", PathFile.String())
	assert.Equal(t, "dir", PathDirectory.String())
	assert.Equal(t, "link", PathSymlink.String())
	assert.Equal(t, "block", PathBlockDevice.String())
	assert.Equal(t, "char", PathCharDevice.String())
	assert.Equal(t, "unknown", PathUnknown.String())
}

func TestFileEntry_Properties(t *testing.T) {
	t.Parallel()
	e := ParseEntry("/pub", "-rw-r--r-- 1 ftp ftp 10 Jan 02 2001 a.txt")
	e.Properties.Set("checksum", StringValue("abc"))

	sum, err := e.Properties.String("checksum")
	require.NoError(t, err)
	assert.Equal(t, "abc", sum)
}

func TestFileEntry_CopySharesProperties(t *testing.T) {
	t.Parallel()
	e := ParseEntry("/pub", "-rw-r--r-- 1 ftp ftp 10 Jan 02 2001 a.txt")
	require.NotNil(t, e.Properties)

	cp := *e
	cp.Properties.Set("seen", BoolValue(true))
	seen, err := e.Properties.Bool("seen")
	require.NoError(t, err)
	assert.True(t, seen)

	assert.NotNil(t, ParseEntry("", "total 3").Properties)
	assert.NotNil(t, ParseEntry("", "dir/file").Properties)
}

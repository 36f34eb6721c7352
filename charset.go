package ftp

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// lookupCharset resolves a charset label such as "utf-8", "gbk" or
// "iso-8859-1". UTF-8 (and an empty label) resolve to nil, meaning bytes
// pass through untouched.
func lookupCharset(label string) (encoding.Encoding, error) {
	if label == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", label, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

// decodeReader returns a reader producing UTF-8 from r.
func decodeReader(enc encoding.Encoding, r io.Reader) io.Reader {
	if enc == nil {
		return r
	}
	return transform.NewReader(r, enc.NewDecoder())
}

// encodeString converts s from UTF-8 into the server charset.
func encodeString(enc encoding.Encoding, s string) (string, error) {
	if enc == nil {
		return s, nil
	}
	out, err := enc.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", s, err)
	}
	return out, nil
}

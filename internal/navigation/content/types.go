package content

import (
	"fmt"
	"net/url"
	"strings"
)

// Text is plain textual content
type Text struct {
	URL       *url.URL
	MediaType string
	Body      string
}

// Text returns the body
func (t *Text) Text() string { return t.Body }

// String returns the body
func (t *Text) String() string { return t.Body }

// Document is structured data decoded from JSON, YAML or TOML
type Document struct {
	URL    *url.URL
	Format Format
	Data   any
	Raw    []byte
}

// NewDocument decodes raw in the given format
func NewDocument(u *url.URL, format Format, raw []byte) (*Document, error) {
	data, err := Unmarshal(format, raw)
	if err != nil {
		return nil, err
	}
	return &Document{URL: u, Format: format, Data: data, Raw: raw}, nil
}

// Text returns the source text
func (d *Document) Text() string { return string(d.Raw) }

// Lookup walks Data along dotted keys, e.g. "server.port"
func (d *Document) Lookup(path string) (any, bool) {
	var cur any = d.Data
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Binary stands in for content that cannot be displayed as text
type Binary struct {
	URL       *url.URL
	MediaType string
	Size      int
}

// String describes the resource
func (b *Binary) String() string {
	return fmt.Sprintf("%s (%d bytes)", b.MediaType, b.Size)
}

// Entry is one item of a directory listing
type Entry struct {
	// Path is relative to the listed directory, slash separated
	Path string
	URL  *url.URL
	Dir  bool
	Size int64
}

// Listing is the content of a directory address
type Listing struct {
	URL     *url.URL
	Entries []Entry
}

// Text renders one entry per line, directories with a trailing slash
func (l *Listing) Text() string {
	var b strings.Builder
	for _, e := range l.Entries {
		b.WriteString(e.Path)
		if e.Dir {
			b.WriteByte('/')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

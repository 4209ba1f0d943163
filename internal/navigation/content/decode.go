package content

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Format is the decoded shape of a resource
type Format string

const (
	FormatHTML   Format = "html"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatText   Format = "text"
	FormatBinary Format = "binary"
)

var extensions = map[string]Format{
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".xhtml":    FormatHTML,
	".json":     FormatJSON,
	".yaml":     FormatYAML,
	".yml":      FormatYAML,
	".toml":     FormatTOML,
	".txt":      FormatText,
	".md":       FormatText,
	".markdown": FormatText,
	".csv":      FormatText,
}

var mediaTypes = map[string]Format{
	"text/html":             FormatHTML,
	"application/xhtml+xml": FormatHTML,
	"application/json":      FormatJSON,
	"application/yaml":      FormatYAML,
	"application/x-yaml":    FormatYAML,
	"text/yaml":             FormatYAML,
	"text/x-yaml":           FormatYAML,
	"application/toml":      FormatTOML,
	"text/x-toml":           FormatTOML,
}

// Compression suffixes understood by the file source
var compressedExt = []string{".gz", ".zst"}

// FormatOf picks the format from the address extension, then the media
// type, then by sniffing data.
func FormatOf(u *url.URL, mediaType string, data []byte) Format {
	if u != nil {
		p := u.Path
		for _, ext := range compressedExt {
			p = strings.TrimSuffix(p, ext)
		}
		if f, ok := extensions[strings.ToLower(path.Ext(p))]; ok {
			return f
		}
	}

	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil || mt == "" || mt == "application/octet-stream" {
		mt = mimetype.Detect(data).String()
		mt, _, _ = mime.ParseMediaType(mt)
	}

	if f, ok := mediaTypes[mt]; ok {
		return f
	}
	switch {
	case strings.HasSuffix(mt, "+json"):
		return FormatJSON
	case strings.HasPrefix(mt, "text/"):
		return FormatText
	default:
		return FormatBinary
	}
}

// Decode turns raw bytes into displayable content: *Page, *Document,
// *Text or *Binary.
func Decode(u *url.URL, data []byte, mediaType string) (any, error) {
	format := FormatOf(u, mediaType, data)

	switch format {
	case FormatHTML:
		return NewPage(u, data, mediaType)
	case FormatJSON, FormatYAML, FormatTOML:
		return NewDocument(u, format, data)
	case FormatText:
		text, err := ToUTF8(data, mediaType)
		if err != nil {
			return nil, err
		}
		return &Text{URL: u, MediaType: mediaType, Body: text}, nil
	default:
		if mediaType == "" {
			mediaType = mimetype.Detect(data).String()
		}
		return &Binary{URL: u, MediaType: mediaType, Size: len(data)}, nil
	}
}

// Unmarshal decodes structured data in the given format
func Unmarshal(format Format, data []byte) (any, error) {
	var v any
	var err error

	switch format {
	case FormatJSON:
		err = sonic.Unmarshal(data, &v)
	case FormatYAML:
		err = yaml.Unmarshal(data, &v)
	case FormatTOML:
		m := map[string]any{}
		err = toml.Unmarshal(data, &m)
		v = m
	default:
		return nil, fmt.Errorf("format %q is not structured", format)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return v, nil
}

// ToUTF8 converts data to UTF-8. The charset comes from the media type
// when present, otherwise it is detected.
func ToUTF8(data []byte, mediaType string) (string, error) {
	label := ""
	if _, params, err := mime.ParseMediaType(mediaType); err == nil {
		label = params["charset"]
	}
	if label == "" {
		label = DetectCharset(data)
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		// unknown label: pass bytes through
		return string(data), nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", label, err)
	}
	return string(out), nil
}

// DetectCharset guesses the charset of data, defaulting to utf-8
func DetectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

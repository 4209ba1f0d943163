// Package content holds the content types frames display and the decoders
// that produce them from raw bytes.
//
// HTML becomes a *Page (goquery for structure, bluemonday for sanitizing,
// htmlquery for fragment anchors, html-to-markdown for the text form).
// JSON, YAML and TOML become a *Document. Other text becomes *Text after
// charset conversion, and anything else a *Binary placeholder.
package content

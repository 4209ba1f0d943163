// Package source provides the loaders that reach outside the process:
// HTTP for http(s) addresses and File for file:// addresses below a
// content root. Default combines them with a static table behind a
// loader.Router.
package source

// Package types holds the JSON views shared by the frame manager, the API
// and the event stream.
package types

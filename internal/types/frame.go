package types

import "time"

// Frame is the API view of a navigation frame
type Frame struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Node     string   `json:"node"`
	ParentID string   `json:"parent_id,omitempty"`
	Children []string `json:"children"`

	Target  string   `json:"target,omitempty"`
	State   string   `json:"state"`
	Loading bool     `json:"loading"`
	Content *Content `json:"content,omitempty"`
	History []string `json:"history"`

	KeepContentAlive bool     `json:"keep_content_alive"`
	Cached           []string `json:"cached"`
	Commands         Commands `json:"commands"`

	CreatedAt time.Time `json:"created_at"`
}

// Content summarises what a frame shows
type Content struct {
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`
	// Fragment is the fragment the content last scrolled to
	Fragment string `json:"fragment,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Commands reports which frame commands are enabled
type Commands struct {
	BrowseBack bool `json:"browse_back"`
	Refresh    bool `json:"refresh"`
	Copy       bool `json:"copy"`
}

// Stats contains frame manager statistics
type Stats struct {
	TotalFrames   int `json:"total_frames"`
	LoadingFrames int `json:"loading_frames"`
	FailedFrames  int `json:"failed_frames"`
	CachedEntries int `json:"cached_entries"`
}

package app

import (
	"fmt"
	"net/url"

	"github.com/GriffinCanCode/framenav/internal/navigation/content"
	"github.com/GriffinCanCode/framenav/internal/navigation/frame"
	"github.com/GriffinCanCode/framenav/internal/types"
)

// view snapshots f; it runs on the control goroutine
func (m *Manager) view(f *frame.Frame) types.Frame {
	v := types.Frame{
		ID:               f.ID().String(),
		Name:             f.Name(),
		Node:             f.Node().String(),
		Children:         []string{},
		Target:           addressString(f.Target()),
		State:            f.State().String(),
		Loading:          f.IsLoading(),
		Content:          describe(f.Content()),
		History:          make([]string, 0, len(f.History())),
		KeepContentAlive: f.KeepContentAlive(),
		Cached:           f.Cache().Keys(),
		Commands: types.Commands{
			BrowseBack: f.CanBrowseBack(),
			Refresh:    f.CanRefresh(),
			Copy:       f.CanCopy(),
		},
		CreatedAt: m.created[f.ID()],
	}

	if parent := m.tree.FindFrame(frame.FrameParent, f.Node()); parent != nil {
		v.ParentID = parent.ID().String()
	}
	for _, child := range f.Children() {
		v.Children = append(v.Children, child.ID().String())
	}
	for _, u := range f.History() {
		v.History = append(v.History, addressString(u))
	}
	if v.Cached == nil {
		v.Cached = []string{}
	}
	return v
}

func describe(c any) *types.Content {
	switch c := c.(type) {
	case nil:
		return nil
	case *content.Page:
		return &types.Content{Kind: "page", Title: c.String(), Fragment: c.Fragment()}
	case *content.Document:
		return &types.Content{Kind: "document", Title: string(c.Format)}
	case *content.Listing:
		return &types.Content{Kind: "listing", Title: addressString(c.URL)}
	case *content.Binary:
		return &types.Content{Kind: "binary", Title: c.String()}
	case *content.Text:
		return &types.Content{Kind: "text", Title: c.MediaType}
	case error:
		return &types.Content{Kind: "error", Error: c.Error()}
	case fmt.Stringer:
		return &types.Content{Kind: fmt.Sprintf("%T", c), Title: c.String()}
	default:
		return &types.Content{Kind: fmt.Sprintf("%T", c)}
	}
}

func addressString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

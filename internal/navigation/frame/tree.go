package frame

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/navigation/dispatch"
	"github.com/GriffinCanCode/framenav/internal/shared/id"
)

// Reserved frame names understood by FindFrame
const (
	FrameSelf   = "_self"
	FrameParent = "_parent"
	FrameTop    = "_top"
)

var (
	ErrDispatcherMismatch = errors.New("frame belongs to a different dispatcher")
	ErrUnknownNode        = errors.New("unknown node")
	ErrNodeOccupied       = errors.New("node already hosts a frame")
	ErrAlreadyAttached    = errors.New("frame already attached")
	ErrFrameClosed        = errors.New("frame is closed")
	ErrCycle              = errors.New("move would create a cycle")
)

// maxDepth bounds ancestor walks over a misbehaving host
const maxDepth = 1024

// Host exposes the structural tree frames live in
type Host interface {
	// Parent returns the parent of node; false for roots and unknown nodes.
	Parent(node id.NodeID) (id.NodeID, bool)
}

// NodeTree is an in-memory Host. It is safe for concurrent use.
type NodeTree struct {
	mu      sync.RWMutex
	parents map[id.NodeID]id.NodeID
	nodes   map[id.NodeID]struct{}
}

// NewNodeTree creates an empty host tree
func NewNodeTree() *NodeTree {
	return &NodeTree{
		parents: make(map[id.NodeID]id.NodeID),
		nodes:   make(map[id.NodeID]struct{}),
	}
}

// Add creates a node under parent. An empty parent makes it a root.
func (t *NodeTree) Add(parent id.NodeID) (id.NodeID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parent != "" {
		if _, ok := t.nodes[parent]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownNode, parent)
		}
	}

	node := id.NewNodeID()
	t.nodes[node] = struct{}{}
	if parent != "" {
		t.parents[node] = parent
	}
	return node, nil
}

// Move re-parents node, detaching it when parent is empty
func (t *NodeTree) Move(node, parent id.NodeID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.nodes[node]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, node)
	}
	if parent == "" {
		delete(t.parents, node)
		return nil
	}
	if _, ok := t.nodes[parent]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, parent)
	}
	for n, ok := parent, true; ok; n, ok = t.parents[n] {
		if n == node {
			return ErrCycle
		}
	}
	t.parents[node] = parent
	return nil
}

// Remove deletes node and its whole subtree
func (t *NodeTree) Remove(node id.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	doomed := []id.NodeID{node}
	for len(doomed) > 0 {
		n := doomed[len(doomed)-1]
		doomed = doomed[:len(doomed)-1]
		delete(t.nodes, n)
		delete(t.parents, n)
		for child, p := range t.parents {
			if p == n {
				doomed = append(doomed, child)
			}
		}
	}
}

// Contains reports whether node exists
func (t *NodeTree) Contains(node id.NodeID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[node]
	return ok
}

// Parent implements Host
func (t *NodeTree) Parent(node id.NodeID) (id.NodeID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.parents[node]
	return p, ok
}

// Tree indexes the frames attached to a host. Like frames it belongs to
// one dispatcher and is only touched from its goroutine.
type Tree struct {
	host       Host
	dispatcher *dispatch.Dispatcher
	frames     map[id.FrameID]*Frame
	byNode     map[id.NodeID]*Frame
	logger     *zap.Logger
}

// NewTree creates an empty frame index over host for frames owned by d
func NewTree(host Host, d *dispatch.Dispatcher) *Tree {
	return &Tree{
		host:       host,
		dispatcher: d,
		frames:     make(map[id.FrameID]*Frame),
		byNode:     make(map[id.NodeID]*Frame),
		logger:     zap.NewNop(),
	}
}

// WithLogger attaches a logger
func (t *Tree) WithLogger(l *zap.Logger) *Tree {
	t.logger = logging.OrNop(l)
	return t
}

// Host returns the structural tree
func (t *Tree) Host() Host { return t.host }

// Dispatcher returns the dispatcher shared by the tree's frames
func (t *Tree) Dispatcher() *dispatch.Dispatcher { return t.dispatcher }

// Attach places f at node and registers it with its parent frame, if any.
// All frames of a tree must share a dispatcher.
func (t *Tree) Attach(f *Frame, node id.NodeID) error {
	switch {
	case f.closed:
		return ErrFrameClosed
	case f.tree != nil:
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, f.id)
	case f.dispatcher != t.dispatcher:
		return ErrDispatcherMismatch
	case t.byNode[node] != nil:
		return fmt.Errorf("%w: %s", ErrNodeOccupied, node)
	}

	f.tree = t
	f.node = node
	t.frames[f.id] = f
	t.byNode[node] = f

	f.Loaded()
	t.logger.Debug("Frame attached",
		zap.String("frame", f.id.String()),
		zap.String("node", node.String()))
	return nil
}

// Loaded re-registers f with its current parent frame. Hosts call it after
// moving the node that carries f.
func (f *Frame) Loaded() {
	if f.tree == nil {
		return
	}
	if parent := f.tree.FindFrame(FrameParent, f.node); parent != nil {
		parent.RegisterChild(f)
	}
}

func (t *Tree) forget(f *Frame) {
	delete(t.frames, f.id)
	if t.byNode[f.node] == f {
		delete(t.byNode, f.node)
	}
}

// Lookup returns the attached frame with the given id
func (t *Tree) Lookup(fid id.FrameID) *Frame {
	return t.frames[fid]
}

// FrameAt returns the frame attached to node
func (t *Tree) FrameAt(node id.NodeID) *Frame {
	return t.byNode[node]
}

// Frames returns the attached frames ordered by id
func (t *Tree) Frames() []*Frame {
	out := make([]*Frame, 0, len(t.frames))
	for _, f := range t.frames {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *Frame) int { return strings.Compare(string(a.id), string(b.id)) })
	return out
}

// ancestorsAndSelf returns the frames on the path from node to the root,
// nearest first.
func (t *Tree) ancestorsAndSelf(node id.NodeID) []*Frame {
	var frames []*Frame
	for depth, n, ok := 0, node, true; ok && depth < maxDepth; depth++ {
		if f := t.byNode[n]; f != nil {
			frames = append(frames, f)
		}
		n, ok = t.host.Parent(n)
	}
	return frames
}

// FindFrame resolves a frame name relative to node. Empty and "_self"
// name the nearest frame, "_parent" the one above it and "_top" the
// outermost; any other name is matched against ancestor frames first,
// then every attached frame.
func (t *Tree) FindFrame(name string, node id.NodeID) *Frame {
	frames := t.ancestorsAndSelf(node)

	switch name {
	case "", FrameSelf:
		if len(frames) > 0 {
			return frames[0]
		}
		return nil
	case FrameParent:
		if len(frames) > 1 {
			return frames[1]
		}
		return nil
	case FrameTop:
		if len(frames) > 0 {
			return frames[len(frames)-1]
		}
		return nil
	}

	for _, f := range frames {
		if f.name == name {
			return f
		}
	}
	for _, f := range t.Frames() {
		if f.name == name {
			return f
		}
	}
	return nil
}

// Route returns the frame that handles navigation requests raised at node
func (t *Tree) Route(node id.NodeID) *Frame {
	return t.FindFrame(FrameSelf, node)
}

// RegisterChild records child as a nested frame of f. Registering the
// same child twice has no effect.
func (f *Frame) RegisterChild(child *Frame) {
	if child == nil || child == f || f.tree == nil || child.tree != f.tree {
		return
	}
	if slices.Contains(f.liveChildren(), child) {
		return
	}
	f.children = append(f.children, child.id)
}

// Children returns the live nested frames, pruning stale ones
func (f *Frame) Children() []*Frame {
	return f.liveChildren()
}

// liveChildren prunes registrations whose frame is gone or no longer sits
// directly under f. A frame that still exists elsewhere gets a synthetic
// navigated-away pair so its content can release resources.
func (f *Frame) liveChildren() []*Frame {
	if len(f.children) == 0 {
		return nil
	}

	var live []*Frame
	kept := make([]id.FrameID, 0, len(f.children))
	for _, cid := range slices.Clone(f.children) {
		var child *Frame
		if f.tree != nil {
			child = f.tree.Lookup(cid)
		}
		if child != nil && f.tree.FindFrame(FrameParent, child.node) == f {
			live = append(live, child)
			kept = append(kept, cid)
			continue
		}

		f.metrics.RecordChildPruned()
		f.logger.Debug("Pruned child frame", zap.String("child", cid.String()))
		if child != nil {
			f.detachChild(child)
		}
	}
	f.children = kept
	return live
}

func (f *Frame) detachChild(child *Frame) {
	lc, ok := child.content.(Lifecycle)
	if !ok {
		return
	}
	lc.OnNavigatingFrom(&NavigatingEvent{
		Frame:                   f,
		Source:                  f.target,
		Intent:                  IntentBack,
		IsParentFrameNavigating: true,
	})
	lc.OnNavigatedFrom(&NavigatedEvent{
		Frame:   f,
		Source:  f.target,
		Content: f.content,
		Intent:  IntentBack,
	})
}

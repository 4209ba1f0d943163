/*
Package frame implements the navigation frame: a host that displays the
content for a target address, keeps a back history, caches loaded content
and coordinates with nested frames.

# Threading

A frame belongs to one dispatch.Dispatcher. Every exported method must run
on the dispatcher's control goroutine; frames hold no locks. Content loads
run on their own goroutine via Dispatcher.Go and their completion is
marshalled back. A completion that belongs to a superseded or closed
navigation is dropped.

# Navigation flow

	SetTarget ─▶ fragment-only? ─▶ fragment events
	          └▶ navigating gate (children, content, subscribers)
	               ├─ vetoed ─▶ old target restored next turn
	               └─ navigate ─▶ cache hit ─▶ navigated events
	                           └▶ load ─▶ success ─▶ cache, navigated events
	                                   └▶ failure ─▶ failed event

Nested frames register with the nearest enclosing frame found through a
Tree. A parent's navigating event reaches every live child first, so a
child's content can veto its parent's navigation.
*/
package frame

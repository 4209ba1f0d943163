// Package app manages the frames exposed by the server.
//
// The Manager owns a frame tree and its host node tree. Frames are not
// safe for concurrent use, so every Manager method hands its work to the
// dispatcher with Invoke and waits for it; the dispatcher must be pumped
// by Run for the methods to return.
//
// Example Usage:
//
//	manager := app.NewManager(d, router, app.Config{KeepContentAlive: true})
//	go d.Run(ctx)
//	root, _ := manager.Spawn(ctx, "main", "")
//	child, _ := manager.Spawn(ctx, "sidebar", id.FrameID(root.ID))
//	manager.Navigate(ctx, id.FrameID(child.ID), "https://example.com/")
package app

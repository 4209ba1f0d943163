// Package ws streams frame navigation events over WebSocket.
//
// Every frame spawned by the manager is watched by the Hub, which turns its
// events into log lines:
//
//	Navigating: [New] https://example.com/docs
//	Navigated: [New] https://example.com/docs
//	NavigationFailed: unexpected status: 404 Not Found
//	FragmentNavigation: install
//
// Message Types (Server → Client):
//   - system: connection established
//   - navigating, navigated, navigation_failed, fragment_navigation
//   - pong: reply to ping
//   - error: malformed or unknown request
//
// Message Types (Client → Server):
//   - ping: keep-alive ping
//
// Slow clients lose messages rather than stall navigation.
//
// Example Usage:
//
//	hub := ws.NewHub(metrics, logger)
//	manager.Observe(hub.Watch)
//	router.GET("/stream", ws.NewHandler(hub).HandleConnection)
package ws

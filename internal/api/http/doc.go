// Package http exposes frames over a JSON API.
//
// Routes:
//
//	GET    /health                     liveness and frame stats
//	GET    /frames                     all frames
//	POST   /frames                     {"name","parent"} spawn a frame
//	GET    /frames/:id                 one frame
//	DELETE /frames/:id                 close a frame and its nested frames
//	POST   /frames/:id/navigate        {"uri"} set the target
//	POST   /frames/:id/back            browse back
//	POST   /frames/:id/refresh         reload bypassing the cache
//	POST   /frames/:id/history/clear   empty the back stack
//	GET    /frames/:id/copy            text rendering of the content
//	PUT    /frames/:id/keep-alive      {"enabled"} caching default
//
// Navigation is asynchronous: navigate answers 202 with the frame still
// loading; poll the frame or follow the event stream for the outcome.
package http

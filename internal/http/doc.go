// Package http provides the REST API for the web debugger.
//
// Handlers reuse the tool registry, so REST calls and protocol calls
// share one execution path and one set of error messages. Mutating
// endpoints broadcast their outcome to WebSocket clients.
//
// Endpoints:
//   - Health: / and /health
//   - Session: GET /api/session, POST /api/session/reset
//   - Emulation: POST /api/load-rom, POST /api/button, GET /api/screen
//   - Library: GET /api/roms
//   - Meta: GET /api/server-info
//
// Example Usage:
//
//	handlers := http.NewHandlers(sess, registry, library, hub, log, version)
//	router.GET("/api/session", handlers.GetSession)
//	router.POST("/api/button", handlers.PressButton)
package http

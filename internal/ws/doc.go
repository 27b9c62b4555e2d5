// Package ws provides WebSocket streaming for the web debugger.
//
// A single hub goroutine owns the client set and pushes screen and
// session updates; every client gets a buffered send channel drained
// by its own write pump. Clients that fall behind are dropped so one
// slow browser tab cannot stall the stream for everyone else.
//
// Message Types (Server → Client):
//   - screen_update: base64 PNG frame, sent only when the frame changed
//   - session_update: session snapshot, on connect and once per second
//   - rom_loaded: a ROM load succeeded
//   - button_pressed: an input was injected
//   - session_reset: the session was reset from the debugger
//
// The stream is one-directional; debugger input goes through the REST
// API.
//
// Example Usage:
//
//	hub := ws.NewHub(sess, 100*time.Millisecond, log)
//	go hub.Run(ctx)
//	router.GET("/stream", ws.NewHandler(hub).HandleConnection)
package ws

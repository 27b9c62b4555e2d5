// Package server assembles the web debugger server.
//
// It orchestrates:
//   - HTTP routing with Gin
//   - Middleware stack (recovery, metrics, CORS, rate limiting)
//   - REST handlers backed by the tool registry
//   - WebSocket hub for live screen and session updates
//   - Prometheus metrics endpoint
//
// Example Usage:
//
//	srv := server.New(cfg, sess, library, registry, metrics, log, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

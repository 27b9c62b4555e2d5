// Package config provides 12-factor configuration management.
//
// Configuration is loaded from environment variables with sensible
// defaults; an optional YAML file can overlay the result, and CLI flags
// can override individual values on top of that.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - MCP: stdio protocol server toggle
//   - Emulator: ROM directory and display mode
//   - Web: web debugger settings (update interval, CORS origins)
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, MCP_ENABLED
//   - ROM_DIR, DISPLAY_MODE
//   - WEB_ENABLED, WEB_UPDATE_INTERVAL_MS, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config

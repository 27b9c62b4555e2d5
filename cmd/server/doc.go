// Package main is the entry point for the Game Boy agent server.
//
// The server exposes a single emulation session to LLM agents over a
// stdio JSON-RPC protocol and to humans through a web debugger with a
// live screen stream.
//
// Architecture:
//
//	Agent (stdio JSON-RPC) → Tool Registry → Session Controller → Emulator
//	Browser (REST + WS)    ↗
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML file (-config)
//   - CLI flags override individual values
//
// Usage:
//
//	# Agent transport plus web debugger (default)
//	./server -rom-dir ./roms
//
//	# Protocol only, for MCP clients that own stdio
//	./server -mode stdio
//
//	# Web debugger only
//	./server -mode web -port 8000
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
//   - stdin EOF in stdio mode: graceful shutdown
package main

// Package tools defines the callable tool surface exposed to agents:
// a registry keyed by tool name and a provider that binds the game
// session and ROM library into handlers. Handler panics and errors
// surface as failed results so a bad tool call never kills the
// protocol loop.
package tools

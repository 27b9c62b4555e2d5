// Package mcp implements the agent-facing protocol server: JSON-RPC
// 2.0 over newline-delimited JSON on stdin/stdout. It handles
// initialize, ping, tools/list, and tools/call, delegating execution
// to the tool registry. Tool failures come back as isError results so
// agents receive the actionable message instead of a broken RPC.
package mcp

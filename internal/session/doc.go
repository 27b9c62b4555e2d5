// Package session provides the single-session lifecycle state machine.
//
// One Controller wraps one emulator.Handle and serializes every
// mutating operation behind an exclusive lock. It tracks the loaded
// ROM's identity (truncated content hash), timestamps, usage counters,
// and the last failure, and distinguishes two failure classes:
//
//   - error: known-bad input (missing file, bad extension, corrupt or
//     inaccessible content), fixed by supplying a different ROM
//   - crashed: unexpected failure, recovered by reloading the same ROM
//     or restarting the process
//
// States: idle → loading → running ⇄ paused, with error and crashed
// reachable from loading, and idle reachable only via Stop. A crashed
// session gets exactly one reload attempt of the remembered ROM per
// EnsureRunning call.
package session

package session

// Error is the only error kind that crosses the session boundary.
// Handle-level ProgramError/StateError and session-specific conditions
// are wrapped into it with a message the caller can act on directly.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Err }

package emulator

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ProgramError reports a problem with the supplied ROM: missing file,
// unsupported extension, corrupt content, or an access failure. The
// message always tells the caller what to do about it.
type ProgramError struct {
	Msg string
	Err error
}

func (e *ProgramError) Error() string { return e.Msg }
func (e *ProgramError) Unwrap() error { return e.Err }

// StateError reports an operation requested in a state that does not
// support it: double-start, no program loaded, core not ready.
type StateError struct {
	Msg string
	Err error
}

func (e *StateError) Error() string { return e.Msg }
func (e *StateError) Unwrap() error { return e.Err }

// classify converts a recognizable engine construction failure into a
// ProgramError. Anything it cannot recognize passes through unchanged,
// which upper layers treat as an unexpected crash. Keyword matching is
// fragile against core message changes; keeping the heuristic in one
// place means hardening it later touches nothing else.
func classify(path string, err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "invalid rom") || strings.Contains(msg, "corrupt"):
		return &ProgramError{
			Msg: fmt.Sprintf("ROM file appears to be corrupted or invalid: %s. Try a different ROM file or verify the file isn't damaged.", filepath.Base(path)),
			Err: err,
		}
	case strings.Contains(msg, "permission") || strings.Contains(msg, "access"):
		return &ProgramError{
			Msg: fmt.Sprintf("Cannot access ROM file: %s. Check file permissions and ensure it's not in use by another program.", path),
			Err: err,
		}
	default:
		return err
	}
}

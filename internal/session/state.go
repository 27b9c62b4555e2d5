package session

// State is the session lifecycle state.
type State string

const (
	StateIdle    State = "idle"    // no ROM loaded
	StateLoading State = "loading" // ROM load in flight
	StateRunning State = "running" // ROM loaded and running
	StatePaused  State = "paused"  // ROM loaded, execution paused
	StateError   State = "error"   // known-bad input, recoverable by fixing it
	StateCrashed State = "crashed" // unknown failure, recoverable by reload or restart
)

// Active reports whether the session holds a live ROM.
func (s State) Active() bool {
	return s == StateRunning || s == StatePaused
}

// Info is a point-in-time session snapshot. ROM fields are present only
// when a ROM is loaded, timing fields only when a session has started.
type Info struct {
	State        string `json:"state"`
	HasROM       bool   `json:"has_rom"`
	ErrorMessage string `json:"error_message,omitempty"`
	CrashCount   uint64 `json:"crash_count"`

	ROMName string `json:"rom_name,omitempty"`
	ROMPath string `json:"rom_path,omitempty"`
	ROMHash string `json:"rom_hash,omitempty"`

	SessionDurationSeconds float64 `json:"session_duration_seconds,omitempty"`
	IdleTimeSeconds        float64 `json:"idle_time_seconds,omitempty"`
	TotalFrames            uint64  `json:"total_frames"`
	TotalInputs            uint64  `json:"total_inputs"`

	// Degraded-snapshot fields, set only when the full snapshot could
	// not be assembled.
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// LoadResult is returned by a successful ROM load.
type LoadResult struct {
	Success      bool   `json:"success"`
	ROMName      string `json:"rom_name"`
	ROMHash      string `json:"rom_hash"`
	SessionState string `json:"session_state"`
	Message      string `json:"message"`
}

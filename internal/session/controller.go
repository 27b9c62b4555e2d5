package session

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/retroplay/gbagent/backend/internal/emulator"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/monitoring"
	"github.com/retroplay/gbagent/backend/internal/shared/ident"
	"go.uber.org/zap"
)

// Controller is the serialized state machine wrapping one emulator
// handle. Every mutating operation runs under one exclusive lock, so at
// most one logical operation touches the engine at a time; waiters
// proceed in lock acquisition order (sync.Mutex gives no FIFO
// guarantee, tie-break unspecified).
//
// Read-only snapshots (Info, State, IsActive) take the read side and
// may interleave with an in-flight mutation: observing Loading
// immediately before Running or Error is expected.
//
// One Controller per process: callers construct exactly one and pass
// it to every layer that needs the session.
type Controller struct {
	mu sync.RWMutex

	factory emulator.Factory
	cfg     emulator.Config
	log     *logging.Logger
	metrics *monitoring.Metrics

	handle       *emulator.Handle
	state        State
	romPath      string
	romHash      string
	startedAt    time.Time
	lastActivity time.Time
	errMsg       string

	totalFrames uint64
	totalInputs uint64
	crashCount  uint64
}

// NewController creates an idle session around the given engine factory.
func NewController(factory emulator.Factory, cfg emulator.Config, log *logging.Logger) *Controller {
	if log == nil {
		log = logging.NewNop()
	}
	c := &Controller{
		factory: factory,
		cfg:     cfg,
		log:     log,
		state:   StateIdle,
	}
	log.Info("game session initialized")
	return c
}

// WithMetrics attaches a metrics collector.
func (c *Controller) WithMetrics(m *monitoring.Metrics) *Controller {
	c.metrics = m
	return c
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsActive reports whether the session holds a live ROM.
func (c *Controller) IsActive() bool {
	return c.State().Active()
}

// Fingerprint returns the content fingerprint of the loaded ROM,
// empty when none is loaded.
func (c *Controller) Fingerprint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.romHash
}

// LoadProgram loads a ROM, replacing whatever is running.
func (c *Controller) LoadProgram(path string) (*LoadResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(path)
}

// loadLocked runs the load state machine. Callers hold c.mu.
func (c *Controller) loadLocked(path string) (result *LoadResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, c.crashLocked(fmt.Errorf("%v", r))
		}
	}()

	c.errMsg = ""
	c.state = StateLoading
	c.log.Info("loading ROM", zap.String("path", path))

	if _, statErr := os.Stat(path); statErr != nil {
		return nil, c.failLocked(&emulator.ProgramError{
			Msg: fmt.Sprintf("ROM file not found: %s. Check the file path and ensure the ROM file exists.", path),
			Err: statErr,
		})
	}

	hash, hashErr := ident.FingerprintFile(path)
	if hashErr != nil {
		return nil, c.crashLocked(hashErr)
	}

	// A fresh handle only when content actually changed (or none
	// exists yet); the load itself always executes.
	if c.handle == nil || hash != c.romHash {
		if c.handle != nil {
			c.log.Info("stopping previous emulator instance")
			c.handle.Stop()
		}
		c.handle = emulator.NewHandle(c.factory, c.cfg, c.log)
	}

	if loadErr := c.handle.LoadProgram(path); loadErr != nil {
		var progErr *emulator.ProgramError
		var stateErr *emulator.StateError
		if errors.As(loadErr, &progErr) || errors.As(loadErr, &stateErr) {
			return nil, c.failLocked(loadErr)
		}
		return nil, c.crashLocked(loadErr)
	}

	now := time.Now()
	name := filepath.Base(path)
	c.romPath = path
	c.romHash = hash
	c.state = StateRunning
	c.startedAt = now
	c.lastActivity = now
	c.totalFrames = 0
	c.totalInputs = 0

	if c.metrics != nil {
		c.metrics.RecordROMLoad("success")
		c.metrics.SetSessionActive(true)
	}
	c.log.Info("ROM loaded", zap.String("name", name), zap.String("hash", hash))

	return &LoadResult{
		Success:      true,
		ROMName:      name,
		ROMHash:      hash,
		SessionState: string(StateRunning),
		Message:      fmt.Sprintf("ROM '%s' loaded and running", name),
	}, nil
}

// failLocked records a known-bad-input failure and wraps it.
func (c *Controller) failLocked(cause error) error {
	c.state = StateError
	c.errMsg = cause.Error()
	if c.metrics != nil {
		c.metrics.RecordROMLoad("error")
		c.metrics.SetSessionActive(false)
	}
	c.log.Error("failed to load ROM", zap.Error(cause))
	return &Error{Msg: fmt.Sprintf("Failed to load ROM: %v", cause), Err: cause}
}

// crashLocked records an unexpected failure and wraps it.
func (c *Controller) crashLocked(cause error) error {
	c.state = StateCrashed
	c.errMsg = fmt.Sprintf("unexpected error: %v", cause)
	c.crashCount++
	if c.metrics != nil {
		c.metrics.RecordROMLoad("crash")
		c.metrics.IncSessionCrashes()
		c.metrics.SetSessionActive(false)
	}
	c.log.Error("session crashed while loading ROM", zap.Error(cause))
	return &Error{
		Msg: fmt.Sprintf("Session crashed while loading ROM. Try again or restart the server. Error: %v", cause),
		Err: cause,
	}
}

// Pause pauses a running session; no-op in any other state.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning {
		c.state = StatePaused
		c.log.Info("session paused")
	}
}

// Resume resumes a paused session; no-op in any other state.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePaused {
		c.state = StateRunning
		c.log.Info("session resumed")
	}
}

// Stop returns the session to idle, clearing everything except the
// crash count. Always succeeds, from any state, any number of times.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.handle != nil {
		c.handle.Stop()
		c.handle = nil
	}
	c.state = StateIdle
	c.romPath = ""
	c.romHash = ""
	c.startedAt = time.Time{}
	c.lastActivity = time.Time{}
	c.errMsg = ""
	c.totalFrames = 0
	c.totalInputs = 0

	if c.metrics != nil {
		c.metrics.SetSessionActive(false)
	}
	c.log.Info("session stopped")
}

// Reset is the debugger's hard reset: stop plus a fresh diagnostic
// slate, as if the session object were newly constructed.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.crashCount = 0
	c.log.Info("session reset")
}

// EnsureRunning brings the session to running if it can: auto-resume
// from paused, one reload attempt of the remembered ROM from crashed.
// Exactly one recovery attempt per call, no backoff, no retry loop.
func (c *Controller) EnsureRunning() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureLocked()
}

func (c *Controller) ensureLocked() error {
	switch c.state {
	case StateRunning:
		return nil

	case StatePaused:
		c.state = StateRunning
		c.log.Info("session resumed")
		return nil

	case StateIdle:
		return &Error{Msg: "No ROM is loaded. Use load_rom to load a game first."}

	case StateLoading:
		return &Error{Msg: "ROM is still loading. Please wait a moment and try again."}

	case StateError:
		return &Error{Msg: fmt.Sprintf("Session is in error state: %s. Try loading the ROM again or restart the server.", c.errMsg)}

	case StateCrashed:
		if c.romPath == "" {
			return &Error{Msg: "Session crashed with no ROM to recover. Load a new ROM to continue."}
		}
		c.log.Warn("attempting to recover crashed session", zap.String("path", c.romPath))
		if _, err := c.loadLocked(c.romPath); err != nil {
			c.state = StateCrashed
			return &Error{
				Msg: fmt.Sprintf("Failed to recover crashed session: %v. Server restart may be required.", err),
				Err: err,
			}
		}
		c.log.Info("session recovered")
		return nil

	default:
		return &Error{Msg: fmt.Sprintf("Session is in unexpected state %q. Restart the server.", c.state)}
	}
}

// Do runs fn with the engine under the session's exclusive lock,
// first ensuring the session is running (with auto-resume/recovery).
// This is the only way callers touch the engine.
func (c *Controller) Do(fn func(emulator.Engine) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(); err != nil {
		return err
	}

	if c.handle == nil || !c.handle.IsReady() {
		// ensureLocked succeeding implies a ready handle.
		return &Error{Msg: "Emulator is not ready. This shouldn't happen - please report this issue."}
	}

	engine, err := c.handle.Engine()
	if err != nil {
		return &Error{Msg: err.Error(), Err: err}
	}

	c.lastActivity = time.Now()
	return fn(engine)
}

// RecordFrameAdvance counts advanced frames for diagnostics.
func (c *Controller) RecordFrameAdvance(frames int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if frames > 0 {
		c.totalFrames += uint64(frames)
	}
	c.lastActivity = time.Now()
	if c.metrics != nil {
		c.metrics.AddFramesAdvanced(frames)
	}
}

// RecordInput counts one injected input for diagnostics.
func (c *Controller) RecordInput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalInputs++
	c.lastActivity = time.Now()
	if c.metrics != nil {
		c.metrics.IncInputsRecorded()
	}
}

// Info returns a session snapshot. It never fails: if the snapshot
// cannot be assembled, a degraded payload with state "unknown" comes
// back instead, so polling callers always get something usable.
func (c *Controller) Info() (info Info) {
	defer func() {
		if r := recover(); r != nil {
			info = Info{
				State:   "unknown",
				Error:   fmt.Sprintf("%v", r),
				Message: "Failed to retrieve complete session information",
			}
		}
	}()

	c.mu.RLock()
	defer c.mu.RUnlock()

	info = Info{
		State:        string(c.state),
		HasROM:       c.romPath != "",
		ErrorMessage: c.errMsg,
		CrashCount:   c.crashCount,
		TotalFrames:  c.totalFrames,
		TotalInputs:  c.totalInputs,
	}

	if c.romPath != "" {
		info.ROMName = filepath.Base(c.romPath)
		info.ROMPath = c.romPath
		info.ROMHash = c.romHash
	}

	if !c.startedAt.IsZero() {
		info.SessionDurationSeconds = roundSeconds(time.Since(c.startedAt))
		if !c.lastActivity.IsZero() {
			info.IdleTimeSeconds = roundSeconds(time.Since(c.lastActivity))
		}
	}

	return info
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

package session_test

import (
	"path/filepath"
	"testing"

	"github.com/retroplay/gbagent/backend/internal/emulator"
	"github.com/retroplay/gbagent/backend/internal/emulator/emutest"
	"github.com/retroplay/gbagent/backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(factory emulator.Factory) *session.Controller {
	return session.NewController(factory, emulator.DefaultConfig(), nil)
}

func TestLoadProgramSuccess(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "POKEMON RED")

	var made []*emutest.Engine
	c := newController(emutest.Factory(&made))

	result, err := c.LoadProgram(path)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Success)
	assert.Equal(t, "game.gb", result.ROMName)
	assert.Len(t, result.ROMHash, 16)
	assert.Equal(t, "running", result.SessionState)

	assert.Equal(t, session.StateRunning, c.State())
	assert.True(t, c.IsActive())

	info := c.Info()
	assert.Equal(t, "running", info.State)
	assert.True(t, info.HasROM)
	assert.Equal(t, "game.gb", info.ROMName)
	assert.Equal(t, result.ROMHash, info.ROMHash)
	assert.Zero(t, info.CrashCount)
}

func TestLoadProgramMissingFile(t *testing.T) {
	c := newController(emutest.Factory(nil))

	_, err := c.LoadProgram(filepath.Join(t.TempDir(), "nope.gb"))
	require.Error(t, err)

	var serr *session.Error
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, err.Error(), "Failed to load ROM")
	assert.Contains(t, err.Error(), "not found")

	assert.Equal(t, session.StateError, c.State())
	assert.False(t, c.IsActive())

	info := c.Info()
	assert.False(t, info.HasROM)
	assert.NotEmpty(t, info.ErrorMessage)
	assert.Zero(t, info.CrashCount)
}

func TestLoadProgramClassifiedFailureIsError(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "broken.gb", "BROKEN")
	c := newController(emutest.FailingFactory("invalid rom data"))

	_, err := c.LoadProgram(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load ROM")

	assert.Equal(t, session.StateError, c.State())
	assert.Zero(t, c.Info().CrashCount)
}

func TestLoadProgramUnclassifiedFailureIsCrash(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")
	c := newController(emutest.FailingFactory("core fault"))

	_, err := c.LoadProgram(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session crashed while loading ROM")

	assert.Equal(t, session.StateCrashed, c.State())
	assert.EqualValues(t, 1, c.Info().CrashCount)
}

func TestLoadProgramPanicIsCrash(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")
	c := newController(emutest.PanickingFactory("segfault in core"))

	_, err := c.LoadProgram(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Session crashed while loading ROM")
	assert.Equal(t, session.StateCrashed, c.State())
}

func TestLoadSameROMReusesHandle(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")

	var made []*emutest.Engine
	c := newController(emutest.Factory(&made))

	first, err := c.LoadProgram(path)
	require.NoError(t, err)

	second, err := c.LoadProgram(path)
	require.NoError(t, err)

	// Same content yields the same fingerprint, and the reload still
	// constructs a fresh engine while stopping the previous one.
	assert.Equal(t, first.ROMHash, second.ROMHash)
	require.Len(t, made, 2)
	assert.True(t, made[0].Stopped)
	assert.False(t, made[1].Stopped)
}

func TestPauseResume(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")
	c := newController(emutest.Factory(nil))

	_, err := c.LoadProgram(path)
	require.NoError(t, err)

	c.Pause()
	assert.Equal(t, session.StatePaused, c.State())
	assert.True(t, c.IsActive())

	c.Resume()
	assert.Equal(t, session.StateRunning, c.State())

	// Pause and Resume are no-ops outside their source state.
	c.Resume()
	assert.Equal(t, session.StateRunning, c.State())
	c.Stop()
	c.Pause()
	assert.Equal(t, session.StateIdle, c.State())
}

func TestEnsureRunningAutoResumes(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")
	c := newController(emutest.Factory(nil))

	_, err := c.LoadProgram(path)
	require.NoError(t, err)
	c.Pause()

	require.NoError(t, c.EnsureRunning())
	assert.Equal(t, session.StateRunning, c.State())
}

func TestEnsureRunningIdle(t *testing.T) {
	c := newController(emutest.Factory(nil))

	err := c.EnsureRunning()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No ROM is loaded")
	assert.Contains(t, err.Error(), "load_rom")
}

func TestEnsureRunningErrorState(t *testing.T) {
	c := newController(emutest.Factory(nil))

	_, err := c.LoadProgram(filepath.Join(t.TempDir(), "missing.gb"))
	require.Error(t, err)
	require.Equal(t, session.StateError, c.State())

	err = c.EnsureRunning()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error state")
	assert.Equal(t, session.StateError, c.State())
}

func TestEnsureRunningRecoversCrash(t *testing.T) {
	dir := t.TempDir()
	good := emutest.WriteROM(t, dir, "good.gb", "GOOD")
	other := emutest.WriteROM(t, dir, "other.gb", "OTHER")

	var made []*emutest.Engine
	c := newController(emutest.ScriptedFactory(
		emutest.Factory(&made),
		emutest.FailingFactory("core fault"),
		emutest.Factory(&made),
	))

	_, err := c.LoadProgram(good)
	require.NoError(t, err)

	// A crashing load of a different ROM leaves the last good ROM
	// remembered for recovery.
	_, err = c.LoadProgram(other)
	require.Error(t, err)
	require.Equal(t, session.StateCrashed, c.State())

	require.NoError(t, c.EnsureRunning())
	assert.Equal(t, session.StateRunning, c.State())
	assert.Equal(t, "good.gb", c.Info().ROMName)
	assert.EqualValues(t, 1, c.Info().CrashCount)
}

func TestEnsureRunningRecoveryFailureStaysCrashed(t *testing.T) {
	dir := t.TempDir()
	good := emutest.WriteROM(t, dir, "good.gb", "GOOD")
	other := emutest.WriteROM(t, dir, "other.gb", "OTHER")

	c := newController(emutest.ScriptedFactory(
		emutest.Factory(nil),
		emutest.FailingFactory("core fault"),
	))

	_, err := c.LoadProgram(good)
	require.NoError(t, err)
	_, err = c.LoadProgram(other)
	require.Error(t, err)
	require.Equal(t, session.StateCrashed, c.State())

	err = c.EnsureRunning()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to recover crashed session")
	assert.Equal(t, session.StateCrashed, c.State())
	assert.EqualValues(t, 2, c.Info().CrashCount)

	// Each call makes exactly one more attempt.
	err = c.EnsureRunning()
	require.Error(t, err)
	assert.EqualValues(t, 3, c.Info().CrashCount)
}

func TestEnsureRunningCrashedWithoutROM(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")
	c := newController(emutest.FailingFactory("core fault"))

	_, err := c.LoadProgram(path)
	require.Error(t, err)
	require.Equal(t, session.StateCrashed, c.State())

	err = c.EnsureRunning()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ROM to recover")
}

func TestStopIdempotent(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")

	var made []*emutest.Engine
	c := newController(emutest.Factory(&made))

	_, err := c.LoadProgram(path)
	require.NoError(t, err)

	c.Stop()
	c.Stop()
	c.Stop()

	assert.Equal(t, session.StateIdle, c.State())
	require.Len(t, made, 1)
	assert.True(t, made[0].Stopped)

	info := c.Info()
	assert.False(t, info.HasROM)
	assert.Empty(t, info.ROMName)
	assert.Zero(t, info.TotalFrames)
}

func TestStopPreservesCrashCountResetClearsIt(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")
	c := newController(emutest.FailingFactory("core fault"))

	_, err := c.LoadProgram(path)
	require.Error(t, err)
	require.EqualValues(t, 1, c.Info().CrashCount)

	c.Stop()
	assert.Equal(t, session.StateIdle, c.State())
	assert.EqualValues(t, 1, c.Info().CrashCount)

	c.Reset()
	assert.Equal(t, session.StateIdle, c.State())
	assert.Zero(t, c.Info().CrashCount)
}

func TestStopFromAnyState(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")

	tests := []struct {
		name    string
		prepare func(c *session.Controller)
		factory emulator.Factory
	}{
		{"idle", func(c *session.Controller) {}, emutest.Factory(nil)},
		{"running", func(c *session.Controller) {
			_, err := c.LoadProgram(path)
			require.NoError(t, err)
		}, emutest.Factory(nil)},
		{"paused", func(c *session.Controller) {
			_, err := c.LoadProgram(path)
			require.NoError(t, err)
			c.Pause()
		}, emutest.Factory(nil)},
		{"crashed", func(c *session.Controller) {
			_, err := c.LoadProgram(path)
			require.Error(t, err)
		}, emutest.FailingFactory("core fault")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(tt.factory)
			tt.prepare(c)
			c.Stop()
			assert.Equal(t, session.StateIdle, c.State())
			assert.False(t, c.IsActive())
		})
	}
}

func TestDoRunsWithEngine(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")

	var made []*emutest.Engine
	c := newController(emutest.Factory(&made))

	_, err := c.LoadProgram(path)
	require.NoError(t, err)

	err = c.Do(func(e emulator.Engine) error {
		return e.AdvanceFrame()
	})
	require.NoError(t, err)
	require.Len(t, made, 1)
	assert.Equal(t, 1, made[0].Frames)
}

func TestDoFromIdleFails(t *testing.T) {
	c := newController(emutest.Factory(nil))

	err := c.Do(func(e emulator.Engine) error {
		t.Fatal("engine callback must not run without a ROM")
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No ROM is loaded")
}

func TestDoAutoResumesPaused(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")
	c := newController(emutest.Factory(nil))

	_, err := c.LoadProgram(path)
	require.NoError(t, err)
	c.Pause()

	err = c.Do(func(e emulator.Engine) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, session.StateRunning, c.State())
}

func TestUsageCounters(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")
	c := newController(emutest.Factory(nil))

	_, err := c.LoadProgram(path)
	require.NoError(t, err)

	c.RecordFrameAdvance(60)
	c.RecordFrameAdvance(30)
	c.RecordInput()
	c.RecordInput()
	c.RecordInput()

	info := c.Info()
	assert.EqualValues(t, 90, info.TotalFrames)
	assert.EqualValues(t, 3, info.TotalInputs)

	// A fresh load starts a fresh session: counters reset.
	_, err = c.LoadProgram(path)
	require.NoError(t, err)
	info = c.Info()
	assert.Zero(t, info.TotalFrames)
	assert.Zero(t, info.TotalInputs)
}

func TestFingerprintTracksContent(t *testing.T) {
	dir := t.TempDir()
	a := emutest.WriteROM(t, dir, "a.gb", "TITLE A")
	b := emutest.WriteROM(t, dir, "b.gb", "TITLE B")

	c := newController(emutest.Factory(nil))

	assert.Empty(t, c.Fingerprint())

	_, err := c.LoadProgram(a)
	require.NoError(t, err)
	hashA := c.Fingerprint()
	assert.Len(t, hashA, 16)

	_, err = c.LoadProgram(b)
	require.NoError(t, err)
	hashB := c.Fingerprint()
	assert.NotEqual(t, hashA, hashB)

	c.Stop()
	assert.Empty(t, c.Fingerprint())
}

func TestActiveMatchesState(t *testing.T) {
	path := emutest.WriteROM(t, t.TempDir(), "game.gb", "GAME")
	c := newController(emutest.Factory(nil))

	assert.False(t, c.IsActive())

	_, err := c.LoadProgram(path)
	require.NoError(t, err)
	assert.True(t, c.IsActive())

	c.Pause()
	assert.True(t, c.IsActive())

	c.Stop()
	assert.False(t, c.IsActive())
}

// Package emutest provides fixtures for tests that need ROM images or
// a scriptable engine: a valid cartridge image builder and a fake
// engine factory with controllable failure modes.
package emutest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroplay/gbagent/backend/internal/emulator"
)

// ROMSize is the size of generated test images: one 32 KiB bank pair,
// the smallest layout real cartridges use.
const ROMSize = 32 * 1024

// ROM builds a well-formed cartridge image with the given title and a
// correct header checksum.
func ROM(title string) []byte {
	rom := make([]byte, ROMSize)
	copy(rom[0x134:0x144], title)
	rom[0x147] = 0x00 // ROM only

	var sum uint8
	for i := 0x134; i < 0x14D; i++ {
		sum = sum - rom[i] - 1
	}
	rom[0x14D] = sum
	return rom
}

// CorruptROM builds an image whose header checksum does not match.
func CorruptROM(title string) []byte {
	rom := ROM(title)
	rom[0x14D] ^= 0xFF
	return rom
}

// WriteROM writes a valid ROM file into dir and returns its path.
func WriteROM(t *testing.T, dir, name, title string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, ROM(title), 0o644); err != nil {
		t.Fatalf("write test ROM: %v", err)
	}
	return path
}

// Engine is a scriptable in-memory engine.
type Engine struct {
	Frames     int
	Pressed    map[emulator.Button]bool
	Stopped    bool
	AdvanceErr error
	StopErr    error
}

func NewEngine() *Engine {
	return &Engine{Pressed: make(map[emulator.Button]bool)}
}

func (e *Engine) AdvanceFrame() error {
	if e.AdvanceErr != nil {
		return e.AdvanceErr
	}
	e.Frames++
	return nil
}

func (e *Engine) Framebuffer() []byte {
	fb := make([]byte, emulator.FramebufferSize)
	for i := 3; i < len(fb); i += 4 {
		fb[i] = 0xFF
	}
	return fb
}

func (e *Engine) Press(b emulator.Button)   { e.Pressed[b] = true }
func (e *Engine) Release(b emulator.Button) { delete(e.Pressed, b) }

func (e *Engine) Stop() error {
	e.Stopped = true
	return e.StopErr
}

// Factory returns an engine factory that records every engine it makes.
func Factory(made *[]*Engine) emulator.Factory {
	return func(path string, cfg emulator.Config) (emulator.Engine, error) {
		e := NewEngine()
		if made != nil {
			*made = append(*made, e)
		}
		return e, nil
	}
}

// FailingFactory returns a factory that always fails with msg.
func FailingFactory(msg string) emulator.Factory {
	return func(path string, cfg emulator.Config) (emulator.Engine, error) {
		return nil, errors.New(msg)
	}
}

// PanickingFactory returns a factory that panics, simulating an
// unexpected core fault during construction.
func PanickingFactory(msg string) emulator.Factory {
	return func(path string, cfg emulator.Config) (emulator.Engine, error) {
		panic(msg)
	}
}

// ScriptedFactory pops one factory per construction, repeating the
// last one once the script is exhausted.
func ScriptedFactory(steps ...emulator.Factory) emulator.Factory {
	var calls int
	return func(path string, cfg emulator.Config) (emulator.Engine, error) {
		step := steps[len(steps)-1]
		if calls < len(steps) {
			step = steps[calls]
		}
		calls++
		return step(path, cfg)
	}
}

// FlakyFactory fails the first n constructions, then succeeds.
func FlakyFactory(n int, made *[]*Engine) emulator.Factory {
	var calls int
	ok := Factory(made)
	return func(path string, cfg emulator.Config) (emulator.Engine, error) {
		calls++
		if calls <= n {
			return nil, errors.New("core fault")
		}
		return ok(path, cfg)
	}
}

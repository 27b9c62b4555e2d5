package emulator

// Native Game Boy display resolution.
const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// FramebufferSize is the byte length of one RGBA frame.
const FramebufferSize = ScreenWidth * ScreenHeight * 4

// Config carries engine construction options.
type Config struct {
	// DisplayMode selects the video backend. The service always runs
	// "headless"; cores may support windowed modes for local debugging.
	DisplayMode string
}

// DefaultConfig returns the configuration used by the service.
func DefaultConfig() Config {
	return Config{DisplayMode: "headless"}
}

// Engine is the narrow contract this service needs from an emulation
// core. Emulation correctness is the core's business; the session layer
// only ticks frames, reads pixels, and injects input.
type Engine interface {
	// AdvanceFrame runs the core for one video frame.
	AdvanceFrame() error

	// Framebuffer returns the current frame as RGBA bytes,
	// ScreenWidth x ScreenHeight, row-major. The returned slice must
	// not be retained across AdvanceFrame calls.
	Framebuffer() []byte

	// Press and Release inject joypad input.
	Press(Button)
	Release(Button)

	// Stop releases core resources. The engine is unusable afterwards.
	Stop() error
}

// Factory constructs an engine bound to a ROM file. Construction errors
// are classified by the Handle into program vs. state failures.
type Factory func(path string, cfg Config) (Engine, error)

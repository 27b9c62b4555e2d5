package emulator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Extensions accepted for program files, lower case.
var acceptedExtensions = map[string]struct{}{
	".gb":  {},
	".gbc": {},
}

// AcceptedExtensions returns the supported ROM file extensions.
func AcceptedExtensions() []string {
	return []string{".gb", ".gbc"}
}

// ProgramInfo describes the currently loaded ROM.
type ProgramInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	Running   bool   `json:"is_running"`
}

// Handle owns zero or one engine instance and translates recognizable
// core failures into ProgramError/StateError; unrecognized construction
// failures pass through as-is. It is exclusively owned by the session
// controller, which serializes all access; Handle itself does not lock.
type Handle struct {
	factory Factory
	cfg     Config
	log     *logging.Logger

	engine     Engine
	loadedPath string
	running    bool
}

// NewHandle creates a handle using the given engine factory.
func NewHandle(factory Factory, cfg Config, log *logging.Logger) *Handle {
	if factory == nil {
		factory = NewHeadless
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Handle{factory: factory, cfg: cfg, log: log}
}

// Start marks the handle running with no program loaded.
func (h *Handle) Start() error {
	if h.running {
		return &StateError{Msg: "Emulator is already running. Use stop() first or load a ROM directly."}
	}
	h.running = true
	return nil
}

// LoadProgram validates the path and extension, tears down any previous
// engine, and constructs a new one bound to the file.
func (h *Handle) LoadProgram(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &ProgramError{
			Msg: fmt.Sprintf("ROM file not found: %s. Check the file path and ensure the ROM file exists.", path),
			Err: err,
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := acceptedExtensions[ext]; !ok {
		return &ProgramError{
			Msg: fmt.Sprintf("Invalid ROM file extension: %s. Only .gb and .gbc files are supported.", filepath.Ext(path)),
		}
	}

	// The previous instance goes away unconditionally, even if the
	// new construction then fails.
	if h.engine != nil {
		h.Stop()
	}

	h.log.Info("loading ROM", zap.String("path", path))
	engine, err := h.factory(path, h.cfg)
	if err != nil {
		h.engine = nil
		h.loadedPath = ""
		h.running = false
		return classify(path, err)
	}

	h.engine = engine
	h.loadedPath = path
	h.running = true
	h.log.Info("ROM loaded", zap.String("name", filepath.Base(path)))
	return nil
}

// Stop tears down the engine if one exists. Failures from the core's
// own stop are logged and swallowed; the handle always ends up cleared.
// Safe to call any number of times.
func (h *Handle) Stop() {
	if h.engine != nil {
		if err := h.engine.Stop(); err != nil {
			h.log.Warn("error stopping engine", zap.Error(err))
		}
		h.engine = nil
	}
	h.loadedPath = ""
	h.running = false
}

// IsReady reports whether the handle can serve engine operations.
func (h *Handle) IsReady() bool {
	return h.running && h.engine != nil
}

// Engine returns the underlying core for frame/pixel/input operations.
func (h *Handle) Engine() (Engine, error) {
	if !h.IsReady() {
		return nil, &StateError{Msg: "Emulator is not running. Use load_rom to start emulation first."}
	}
	return h.engine, nil
}

// ProgramInfo returns metadata for the loaded ROM.
func (h *Handle) ProgramInfo() (*ProgramInfo, error) {
	if !h.running || h.loadedPath == "" {
		return nil, &StateError{Msg: "No ROM is currently loaded. Use load_rom to load a ROM first."}
	}

	fi, err := os.Stat(h.loadedPath)
	if err != nil {
		return nil, &ProgramError{
			Msg: fmt.Sprintf("Cannot access ROM file: %s. Verify the file still exists.", h.loadedPath),
			Err: err,
		}
	}

	return &ProgramInfo{
		Name:      filepath.Base(h.loadedPath),
		Path:      h.loadedPath,
		Size:      fi.Size(),
		Extension: filepath.Ext(h.loadedPath),
		Running:   h.running,
	}, nil
}

// LoadedPath returns the path of the loaded ROM, empty when none.
func (h *Handle) LoadedPath() string { return h.loadedPath }

package tools

import (
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/retroplay/gbagent/backend/internal/emulator"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
	"github.com/retroplay/gbagent/backend/internal/romlib"
	"github.com/retroplay/gbagent/backend/internal/screen"
	"github.com/retroplay/gbagent/backend/internal/session"
)

// Frame-count bounds for press_button. 60 frames is one second of
// emulated time; holding longer than that per call starves other
// waiters on the session lock.
const (
	defaultPressFrames = 1
	maxPressFrames     = 60
)

// Provider wires the game session and ROM library into callable tools.
type Provider struct {
	session *session.Controller
	library *romlib.Library
	log     *logging.Logger
	version string
	started time.Time
}

// NewProvider creates the tool provider.
func NewProvider(sess *session.Controller, lib *romlib.Library, log *logging.Logger, version string) *Provider {
	if log == nil {
		log = logging.NewNop()
	}
	return &Provider{
		session: sess,
		library: lib,
		log:     log,
		version: version,
		started: time.Now(),
	}
}

// RegisterAll registers every tool with the registry.
func (p *Provider) RegisterAll(r *Registry) error {
	regs := []struct {
		tool    Tool
		handler Handler
	}{
		{p.healthCheckTool(), p.healthCheck},
		{p.serverInfoTool(), p.serverInfo},
		{p.loadROMTool(), p.loadROM},
		{p.screenTool(), p.getScreen},
		{p.sessionInfoTool(), p.sessionInfo},
		{p.pressButtonTool(), p.pressButton},
	}
	for _, reg := range regs {
		if err := r.Register(reg.tool, reg.handler); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) healthCheckTool() Tool {
	return Tool{
		Name:        "health_check",
		Description: "Check that the server is alive and report the current session state",
		Returns:     "status, session state, and uptime",
	}
}

func (p *Provider) healthCheck(params map[string]interface{}) (*Result, error) {
	return success(map[string]interface{}{
		"status":         "ok",
		"session_state":  string(p.session.State()),
		"uptime_seconds": math.Round(time.Since(p.started).Seconds()*100) / 100,
		"version":        p.version,
	}), nil
}

func (p *Provider) serverInfoTool() Tool {
	return Tool{
		Name:        "get_server_info",
		Description: "Get server version, host platform, resource usage, and supported ROM formats",
		Returns:     "server and host metadata",
	}
}

func (p *Provider) serverInfo(params map[string]interface{}) (*Result, error) {
	data := map[string]interface{}{
		"version":             p.version,
		"go_version":          runtime.Version(),
		"goroutines":          runtime.NumGoroutine(),
		"accepted_extensions": emulator.AcceptedExtensions(),
		"screen_width":        emulator.ScreenWidth,
		"screen_height":       emulator.ScreenHeight,
		"rom_directory":       p.library.Dir(),
	}

	if hi, err := host.Info(); err == nil {
		data["hostname"] = hi.Hostname
		data["os"] = hi.OS
		data["platform"] = hi.Platform
		data["host_uptime_seconds"] = hi.Uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		data["memory_total_bytes"] = vm.Total
		data["memory_used_percent"] = math.Round(vm.UsedPercent*100) / 100
	}
	if n, err := cpu.Counts(true); err == nil {
		data["cpu_count"] = n
	}

	return success(data), nil
}

func (p *Provider) loadROMTool() Tool {
	return Tool{
		Name:        "load_rom",
		Description: "Load a Game Boy ROM and start emulation. Accepts a library file name, a path, or an archive containing a ROM",
		Parameters: []Parameter{
			{Name: "path", Type: "string", Description: "ROM file name from the library, or a path to a .gb/.gbc file or archive", Required: true},
		},
		Returns: "load outcome with ROM name, content hash, and session state",
	}
}

func (p *Provider) loadROM(params map[string]interface{}) (*Result, error) {
	raw, ok := stringParam(params, "path")
	if !ok || raw == "" {
		return failure("Missing required parameter: path. Provide a ROM file name or path."), nil
	}

	path := raw
	// Bare names resolve against the library directory.
	if raw == filepath.Base(raw) {
		resolved, err := p.library.Resolve(raw)
		if err == nil {
			path = resolved
		}
	}

	path, err := p.library.Materialize(path)
	if err != nil {
		return failure(err.Error()), nil
	}

	result, err := p.session.LoadProgram(path)
	if err != nil {
		return failure(err.Error()), nil
	}

	return success(map[string]interface{}{
		"rom_name":      result.ROMName,
		"rom_hash":      result.ROMHash,
		"session_state": result.SessionState,
		"message":       result.Message,
	}), nil
}

func (p *Provider) screenTool() Tool {
	return Tool{
		Name:        "get_screen",
		Description: "Capture the current emulator screen as a base64-encoded PNG image",
		Returns:     "PNG image data with dimensions",
	}
}

func (p *Provider) getScreen(params map[string]interface{}) (*Result, error) {
	var fb []byte
	err := p.session.Do(func(e emulator.Engine) error {
		fb = append([]byte(nil), e.Framebuffer()...)
		return nil
	})
	if err != nil {
		return failure(err.Error()), nil
	}

	capture, err := screen.Encode(fb)
	if err != nil {
		return failure(err.Error()), nil
	}

	return success(map[string]interface{}{
		"format":        capture.Format,
		"width":         capture.Width,
		"height":        capture.Height,
		"base64_data":   capture.Base64,
		"session_state": string(p.session.State()),
	}), nil
}

func (p *Provider) sessionInfoTool() Tool {
	return Tool{
		Name:        "get_session_info",
		Description: "Get the current session state, loaded ROM details, and usage counters",
		Returns:     "session snapshot",
	}
}

func (p *Provider) sessionInfo(params map[string]interface{}) (*Result, error) {
	info := p.session.Info()

	data := map[string]interface{}{
		"state":        info.State,
		"has_rom":      info.HasROM,
		"crash_count":  info.CrashCount,
		"total_frames": info.TotalFrames,
		"total_inputs": info.TotalInputs,
	}
	if info.ErrorMessage != "" {
		data["error_message"] = info.ErrorMessage
	}
	if info.HasROM {
		data["rom_name"] = info.ROMName
		data["rom_path"] = info.ROMPath
		data["rom_hash"] = info.ROMHash
		data["session_duration_seconds"] = info.SessionDurationSeconds
		data["idle_time_seconds"] = info.IdleTimeSeconds
	}
	if info.Message != "" {
		data["message"] = info.Message
	}
	return success(data), nil
}

func (p *Provider) pressButtonTool() Tool {
	return Tool{
		Name:        "press_button",
		Description: "Press a Game Boy button for a number of frames, then release it. Buttons: A, B, START, SELECT, UP, DOWN, LEFT, RIGHT",
		Parameters: []Parameter{
			{Name: "button", Type: "string", Description: "Button to press (case-insensitive)", Required: true},
			{Name: "duration", Type: "integer", Description: fmt.Sprintf("Frames to hold the button, 1-%d (default %d)", maxPressFrames, defaultPressFrames), Required: false},
		},
		Returns: "button pressed, hold duration, and frames advanced",
	}
}

func (p *Provider) pressButton(params map[string]interface{}) (*Result, error) {
	raw, ok := stringParam(params, "button")
	if !ok || raw == "" {
		return failure("Missing required parameter: button. Valid buttons are: A, B, DOWN, LEFT, RIGHT, SELECT, START, UP."), nil
	}
	button, err := emulator.ParseButton(raw)
	if err != nil {
		return failure(err.Error()), nil
	}

	frames := defaultPressFrames
	if v, ok := intParam(params, "duration"); ok {
		if v < 1 || v > maxPressFrames {
			return failure(fmt.Sprintf("Invalid duration: %d. Use a value between 1 and %d frames.", v, maxPressFrames)), nil
		}
		frames = v
	}

	err = p.session.Do(func(e emulator.Engine) error {
		e.Press(button)
		// The release lands before the final frame so the game's input
		// poll observes both edges.
		for i := 0; i < frames; i++ {
			if i == frames-1 {
				e.Release(button)
			}
			if err := e.AdvanceFrame(); err != nil {
				e.Release(button)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return failure(err.Error()), nil
	}

	p.session.RecordFrameAdvance(frames)
	p.session.RecordInput()

	return success(map[string]interface{}{
		"button":          string(button),
		"duration":        frames,
		"frames_advanced": frames,
		"session_state":   string(p.session.State()),
	}), nil
}

func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intParam(params map[string]interface{}, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
	"github.com/retroplay/gbagent/backend/internal/romlib"
	"github.com/retroplay/gbagent/backend/internal/session"
	"github.com/retroplay/gbagent/backend/internal/tools"
	"github.com/retroplay/gbagent/backend/internal/ws"
)

// Handlers contains all HTTP handlers for the web debugger API. They
// reuse the tool registry so REST calls and protocol calls share one
// execution path.
type Handlers struct {
	session  *session.Controller
	registry *tools.Registry
	library  *romlib.Library
	hub      *ws.Hub
	log      *logging.Logger
	version  string
}

// NewHandlers creates the handler set.
func NewHandlers(
	sess *session.Controller,
	registry *tools.Registry,
	library *romlib.Library,
	hub *ws.Hub,
	log *logging.Logger,
	version string,
) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{
		session:  sess,
		registry: registry,
		library:  library,
		hub:      hub,
		log:      log,
		version:  version,
	}
}

// Root handles the banner endpoint.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Game Boy Agent Server",
		"version": h.version,
	})
}

// Health handles the health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"session_state": string(h.session.State()),
		"tools":         len(h.registry.List()),
	})
}

// GetSession returns the session snapshot.
func (h *Handlers) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Info())
}

// ResetSession stops the session and clears diagnostics.
func (h *Handlers) ResetSession(c *gin.Context) {
	h.session.Reset()
	if h.hub != nil {
		h.hub.Broadcast("session_reset", h.session.Info())
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": h.session.Info(),
	})
}

type loadROMRequest struct {
	Path string `json:"path" binding:"required"`
}

// LoadROM loads a ROM through the shared tool path.
func (h *Handlers) LoadROM(c *gin.Context) {
	var req loadROMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: path. Provide a ROM file name or path."})
		return
	}

	result := h.registry.Execute("load_rom", map[string]interface{}{"path": req.Path})
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": *result.Error})
		return
	}

	if h.hub != nil {
		h.hub.Broadcast("rom_loaded", result.Data)
	}
	c.JSON(http.StatusOK, result.Data)
}

type buttonRequest struct {
	Button string `json:"button" binding:"required"`
	// Pointer so an explicit 0 stays distinguishable from an absent
	// field and reaches tool validation instead of the default.
	Duration *int `json:"duration"`
}

// PressButton injects one input through the shared tool path.
func (h *Handlers) PressButton(c *gin.Context) {
	var req buttonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: button. Valid buttons are: A, B, DOWN, LEFT, RIGHT, SELECT, START, UP."})
		return
	}

	params := map[string]interface{}{"button": req.Button}
	if req.Duration != nil {
		params["duration"] = *req.Duration
	}

	result := h.registry.Execute("press_button", params)
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": *result.Error})
		return
	}

	if h.hub != nil {
		h.hub.Broadcast("button_pressed", result.Data)
	}
	c.JSON(http.StatusOK, result.Data)
}

// Screen captures the current frame.
func (h *Handlers) Screen(c *gin.Context) {
	result := h.registry.Execute("get_screen", nil)
	if !result.Success {
		c.JSON(http.StatusConflict, gin.H{"error": *result.Error})
		return
	}
	c.JSON(http.StatusOK, result.Data)
}

// ListROMs lists the ROM library.
func (h *Handlers) ListROMs(c *gin.Context) {
	entries, err := h.library.Scan()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []romlib.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"roms":  entries,
		"count": len(entries),
	})
}

// ServerInfo reports server and host metadata.
func (h *Handlers) ServerInfo(c *gin.Context) {
	result := h.registry.Execute("get_server_info", nil)
	if !result.Success {
		c.JSON(http.StatusInternalServerError, gin.H{"error": *result.Error})
		return
	}
	c.JSON(http.StatusOK, result.Data)
}

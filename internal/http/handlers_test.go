package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retroplay/gbagent/backend/internal/emulator"
	"github.com/retroplay/gbagent/backend/internal/emulator/emutest"
	"github.com/retroplay/gbagent/backend/internal/romlib"
	"github.com/retroplay/gbagent/backend/internal/session"
	"github.com/retroplay/gbagent/backend/internal/tools"
)

func newTestRouter(t *testing.T) (*gin.Engine, *session.Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	emutest.WriteROM(t, dir, "zelda.gb", "ZELDA")

	sess := session.NewController(emutest.Factory(nil), emulator.DefaultConfig(), nil)
	library := romlib.New(dir, nil)

	registry := tools.NewRegistry(nil)
	provider := tools.NewProvider(sess, library, nil, "1.0.0-test")
	require.NoError(t, provider.RegisterAll(registry))

	h := NewHandlers(sess, registry, library, nil, nil, "1.0.0-test")

	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/api/session", h.GetSession)
	router.POST("/api/session/reset", h.ResetSession)
	router.POST("/api/load-rom", h.LoadROM)
	router.POST("/api/button", h.PressButton)
	router.GET("/api/screen", h.Screen)
	router.GET("/api/roms", h.ListROMs)
	router.GET("/api/server-info", h.ServerInfo)
	return router, sess
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func loadROM(t *testing.T, router *gin.Engine) {
	t.Helper()
	w, _ := do(t, router, http.MethodPost, "/api/load-rom", gin.H{"path": "zelda.gb"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRootAndHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := do(t, router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", body["status"])

	w, body = do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "idle", body["session_state"])
	assert.EqualValues(t, 6, body["tools"])
}

func TestGetSession(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := do(t, router, http.MethodGet, "/api/session", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, false, body["has_rom"])
}

func TestLoadROM(t *testing.T) {
	router, sess := newTestRouter(t)

	w, body := do(t, router, http.MethodPost, "/api/load-rom", gin.H{"path": "zelda.gb"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "zelda.gb", body["rom_name"])
	assert.Equal(t, "running", body["session_state"])
	assert.Equal(t, session.StateRunning, sess.State())
}

func TestLoadROMValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := do(t, router, http.MethodPost, "/api/load-rom", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "path")

	w, _ = do(t, router, http.MethodPost, "/api/load-rom", gin.H{"path": "missing.gb"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPressButton(t *testing.T) {
	router, _ := newTestRouter(t)
	loadROM(t, router)

	w, body := do(t, router, http.MethodPost, "/api/button", gin.H{"button": "a", "duration": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A", body["button"])
	assert.EqualValues(t, 5, body["duration"])
	assert.EqualValues(t, 5, body["frames_advanced"])
}

func TestPressButtonDurationValidation(t *testing.T) {
	router, _ := newTestRouter(t)
	loadROM(t, router)

	// An explicit zero must be rejected, not swallowed as "absent".
	for _, duration := range []int{0, 61} {
		w, body := do(t, router, http.MethodPost, "/api/button", gin.H{"button": "A", "duration": duration})
		assert.Equal(t, http.StatusBadRequest, w.Code, "duration %d", duration)
		assert.Contains(t, body["error"], "between 1 and 60")
	}

	// Omitting the field still gets the default.
	w, body := do(t, router, http.MethodPost, "/api/button", gin.H{"button": "A"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotZero(t, body["frames_advanced"])
}

func TestPressButtonWithoutROM(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := do(t, router, http.MethodPost, "/api/button", gin.H{"button": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "No ROM is loaded")
}

func TestScreen(t *testing.T) {
	router, _ := newTestRouter(t)

	w, _ := do(t, router, http.MethodGet, "/api/screen", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	loadROM(t, router)

	w, body := do(t, router, http.MethodGet, "/api/screen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", body["format"])
	assert.NotEmpty(t, body["base64_data"])
}

func TestListROMs(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := do(t, router, http.MethodGet, "/api/roms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	roms := body["roms"].([]interface{})
	require.Len(t, roms, 1)
	assert.Equal(t, "zelda.gb", roms[0].(map[string]interface{})["name"])
}

func TestResetSession(t *testing.T) {
	router, sess := newTestRouter(t)
	loadROM(t, router)

	w, body := do(t, router, http.MethodPost, "/api/session/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, session.StateIdle, sess.State())
}

func TestServerInfo(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := do(t, router, http.MethodGet, "/api/server-info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0.0-test", body["version"])
}

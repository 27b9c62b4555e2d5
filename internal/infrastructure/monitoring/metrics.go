package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Tool-call metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec

	// Session metrics
	ROMLoads       *prometheus.CounterVec
	SessionCrashes prometheus.Counter
	SessionActive  prometheus.Gauge
	FramesAdvanced prometheus.Counter
	InputsRecorded prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector and registers its collectors
// with the default registry. Call once per process.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbagent_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gbagent_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		ToolCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbagent_tool_calls_total",
				Help: "Total number of tool invocations",
			},
			[]string{"tool", "status"},
		),
		ToolDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gbagent_tool_duration_seconds",
				Help:    "Tool invocation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"tool"},
		),

		ROMLoads: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbagent_rom_loads_total",
				Help: "Total number of ROM load attempts by outcome",
			},
			[]string{"status"},
		),
		SessionCrashes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gbagent_session_crashes_total",
				Help: "Total number of unexpected session crashes",
			},
		),
		SessionActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gbagent_session_active",
				Help: "Whether the session currently holds a live ROM (0 or 1)",
			},
		),
		FramesAdvanced: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gbagent_frames_advanced_total",
				Help: "Total number of emulation frames advanced",
			},
		),
		InputsRecorded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gbagent_inputs_recorded_total",
				Help: "Total number of injected button inputs",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gbagent_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbagent_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gbagent_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordToolCall records a tool invocation.
func (m *Metrics) RecordToolCall(tool, status string, duration time.Duration) {
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordROMLoad records a ROM load attempt outcome
// ("success", "error", or "crash").
func (m *Metrics) RecordROMLoad(status string) {
	m.ROMLoads.WithLabelValues(status).Inc()
}

// IncSessionCrashes increments the crash counter.
func (m *Metrics) IncSessionCrashes() {
	m.SessionCrashes.Inc()
}

// SetSessionActive flags whether the session holds a live ROM.
func (m *Metrics) SetSessionActive(active bool) {
	if active {
		m.SessionActive.Set(1)
	} else {
		m.SessionActive.Set(0)
	}
}

// AddFramesAdvanced adds to the frame counter.
func (m *Metrics) AddFramesAdvanced(frames int) {
	if frames > 0 {
		m.FramesAdvanced.Add(float64(frames))
	}
}

// IncInputsRecorded increments the input counter.
func (m *Metrics) IncInputsRecorded() {
	m.InputsRecorded.Inc()
}

// RecordWSMessage records a WebSocket message.
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections.
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections.
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

package ws

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/retroplay/gbagent/backend/internal/emulator"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/monitoring"
	"github.com/retroplay/gbagent/backend/internal/screen"
	"github.com/retroplay/gbagent/backend/internal/session"
	"github.com/retroplay/gbagent/backend/internal/shared/ident"
)

// Message is one outbound event frame.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Hub fans session events and periodic screen updates out to connected
// debugger clients. Each client owns a buffered send channel; a client
// that cannot keep up is dropped rather than allowed to stall the rest.
type Hub struct {
	session  *session.Controller
	log      *logging.Logger
	metrics  *monitoring.Metrics
	interval time.Duration

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan Message
	done       chan struct{}

	lastFrame string
}

// NewHub creates a hub pushing screen updates at the given interval.
func NewHub(sess *session.Controller, interval time.Duration, log *logging.Logger) *Hub {
	if log == nil {
		log = logging.NewNop()
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Hub{
		session:    sess,
		log:        log,
		interval:   interval,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan Message, 16),
		done:       make(chan struct{}),
	}
}

// WithMetrics attaches a metrics collector.
func (h *Hub) WithMetrics(m *monitoring.Metrics) *Hub {
	h.metrics = m
	return h
}

// Run owns the client set and the update tickers until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	frames := time.NewTicker(h.interval)
	defer frames.Stop()
	status := time.NewTicker(time.Second)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			// Releases pumps still trying to hand their client back.
			close(h.done)
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.metrics != nil {
				h.metrics.IncWSConnections()
			}
			h.log.Info("debugger client connected", zap.Int("clients", len(h.clients)))
			c.enqueue(h.encode(Message{
				Type:      "session_update",
				Data:      h.session.Info(),
				Timestamp: time.Now().Unix(),
			}))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}

		case msg := <-h.events:
			h.fanOut(msg)

		case <-frames.C:
			h.pushFrame()

		case <-status.C:
			if len(h.clients) == 0 {
				continue
			}
			h.fanOut(Message{
				Type:      "session_update",
				Data:      h.session.Info(),
				Timestamp: time.Now().Unix(),
			})
		}
	}
}

// Broadcast queues an event for all clients.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	msg := Message{Type: msgType, Data: data, Timestamp: time.Now().Unix()}
	select {
	case h.events <- msg:
	default:
		h.log.Warn("event queue full, dropping broadcast", zap.String("type", msgType))
	}
}

// pushFrame captures and broadcasts the screen if it changed since the
// last push. Idle sessions and unchanged frames cost nothing on the
// wire.
func (h *Hub) pushFrame() {
	if len(h.clients) == 0 || !h.session.IsActive() {
		return
	}

	var fb []byte
	err := h.session.Do(func(e emulator.Engine) error {
		fb = append([]byte(nil), e.Framebuffer()...)
		return nil
	})
	if err != nil {
		return
	}

	fp := ident.Fingerprint(fb)
	if fp == h.lastFrame {
		return
	}
	h.lastFrame = fp

	capture, err := screen.Encode(fb)
	if err != nil {
		h.log.Warn("failed to encode frame for broadcast", zap.Error(err))
		return
	}
	h.fanOut(Message{Type: "screen_update", Data: capture, Timestamp: time.Now().Unix()})
}

func (h *Hub) fanOut(msg Message) {
	data := h.encode(msg)
	if data == nil {
		return
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", msg.Type)
	}
	for c := range h.clients {
		if !c.enqueue(data) {
			h.log.Warn("dropping slow debugger client")
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
}

func (h *Hub) encode(msg Message) []byte {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.log.Error("failed to encode ws message", zap.Error(err))
		return nil
	}
	return data
}

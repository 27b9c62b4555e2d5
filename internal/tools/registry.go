package tools

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/monitoring"
)

// Registry manages tool discovery and execution.
type Registry struct {
	tools   sync.Map
	log     *logging.Logger
	metrics *monitoring.Metrics
}

type registration struct {
	tool    Tool
	handler Handler
}

// NewRegistry creates a tool registry.
func NewRegistry(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{log: log}
}

// WithMetrics attaches a metrics collector.
func (r *Registry) WithMetrics(m *monitoring.Metrics) *Registry {
	r.metrics = m
	return r
}

// Register adds a tool with its handler.
func (r *Registry) Register(tool Tool, handler Handler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}
	r.tools.Store(tool.Name, registration{tool: tool, handler: handler})
	return nil
}

// Get retrieves a tool definition by name.
func (r *Registry) Get(name string) (Tool, bool) {
	val, ok := r.tools.Load(name)
	if !ok {
		return Tool{}, false
	}
	return val.(registration).tool, true
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Tool {
	var out []Tool
	r.tools.Range(func(_, value interface{}) bool {
		out = append(out, value.(registration).tool)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute runs a tool by name. Unknown tools and handler panics come
// back as failed results, never as process faults: a misbehaving tool
// must not take down the protocol loop.
func (r *Registry) Execute(name string, params map[string]interface{}) (result *Result) {
	val, ok := r.tools.Load(name)
	if !ok {
		return failure(fmt.Sprintf("Unknown tool: %s. Use tools/list to see available tools.", name))
	}
	reg := val.(registration)

	timer := monitoring.NewTimer(r.metrics, name)
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("tool handler panicked",
				zap.String("tool", name),
				zap.Any("panic", rec))
			timer.Stop("panic")
			result = failure(fmt.Sprintf("Tool %s failed unexpectedly: %v. Try again or restart the server.", name, rec))
		}
	}()

	result, err := reg.handler(params)
	if err != nil {
		timer.Stop("error")
		r.log.Warn("tool returned error", zap.String("tool", name), zap.Error(err))
		return failure(err.Error())
	}
	if result == nil {
		timer.Stop("error")
		return failure(fmt.Sprintf("Tool %s returned no result. This is a bug; please report it.", name))
	}

	if result.Success {
		timer.Stop("success")
	} else {
		timer.Stop("error")
	}
	return result
}

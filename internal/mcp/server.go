package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
	"github.com/retroplay/gbagent/backend/internal/tools"
)

// maxLineSize bounds one inbound request line. Requests are small;
// anything larger is a malformed client.
const maxLineSize = 1 << 20

// Server speaks newline-delimited JSON-RPC 2.0 over a byte stream,
// stdin/stdout in production. Log output must go to stderr: stdout
// carries the protocol.
type Server struct {
	registry *tools.Registry
	log      *logging.Logger
	in       io.Reader
	out      io.Writer
	name     string
	version  string

	writeMu sync.Mutex
}

// NewServer creates a protocol server over the given streams.
func NewServer(registry *tools.Registry, in io.Reader, out io.Writer, log *logging.Logger, name, version string) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	return &Server{
		registry: registry,
		log:      log,
		in:       in,
		out:      out,
		name:     name,
		version:  version,
	}
}

// Serve reads requests until EOF or context cancellation. EOF is the
// normal shutdown signal: the client closed our stdin.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	s.log.Info("protocol server listening",
		zap.String("name", s.name),
		zap.String("version", s.version))

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.handleLine([]byte(line))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("protocol stream read failed: %w", err)
	}
	s.log.Info("protocol stream closed, shutting down")
	return nil
}

func (s *Server) handleLine(line []byte) {
	var req request
	if err := sonic.Unmarshal(line, &req); err != nil {
		s.writeError(nil, codeParseError, "Parse error: request is not valid JSON")
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		s.writeError(req.ID, codeInvalidRequest, "Invalid request: jsonrpc must be \"2.0\" and method must be set")
		return
	}

	// Notifications get handled but never answered.
	if req.isNotification() {
		s.log.Debug("notification received", zap.String("method", req.Method))
		return
	}

	switch req.Method {
	case "initialize":
		s.writeResult(req.ID, map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    s.name,
				"version": s.version,
			},
		})

	case "ping":
		s.writeResult(req.ID, map[string]interface{}{})

	case "tools/list":
		s.writeResult(req.ID, s.listTools())

	case "tools/call":
		s.handleCall(&req)

	default:
		s.writeError(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (s *Server) listTools() map[string]interface{} {
	all := s.registry.List()
	descriptors := make([]toolDescriptor, 0, len(all))
	for _, t := range all {
		descriptors = append(descriptors, toolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
		})
	}
	return map[string]interface{}{"tools": descriptors}
}

func (s *Server) handleCall(req *request) {
	var params callParams
	if len(req.Params) > 0 {
		if err := sonic.Unmarshal(req.Params, &params); err != nil {
			s.writeError(req.ID, codeInvalidParams, "Invalid params: expected {\"name\": ..., \"arguments\": {...}}")
			return
		}
	}
	if params.Name == "" {
		s.writeError(req.ID, codeInvalidParams, "Invalid params: tool name is required")
		return
	}

	s.log.Info("tool call", zap.String("tool", params.Name))
	result := s.registry.Execute(params.Name, params.Arguments)

	// Tool failures are results, not protocol errors: the agent needs
	// the message, not a broken RPC.
	if !result.Success {
		msg := "Tool execution failed"
		if result.Error != nil {
			msg = *result.Error
		}
		s.writeResult(req.ID, callResult{
			Content: []content{{Type: "text", Text: msg}},
			IsError: true,
		})
		return
	}

	text, err := sonic.MarshalString(result.Data)
	if err != nil {
		s.writeError(req.ID, codeInvalidRequest, fmt.Sprintf("Failed to encode tool result: %v", err))
		return
	}
	s.writeResult(req.ID, callResult{
		Content: []content{{Type: "text", Text: text}},
	})
}

func (s *Server) writeResult(id interface{}, result interface{}) {
	s.write(response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id interface{}, code int, msg string) {
	s.write(response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}})
}

func (s *Server) write(resp response) {
	data, err := sonic.Marshal(resp)
	if err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.log.Error("failed to write response", zap.Error(err))
	}
}

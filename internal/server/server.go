package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/image-views/internal/config"
	"github.com/ironsheep/image-views/internal/imaging"
	"github.com/ironsheep/image-views/internal/viewset"
)

// Name and Version are reported in the initialize handshake.
var (
	Name    = "image-views"
	Version = "dev"
)

// Server handles MCP protocol communication and owns the view set it
// exposes.
type Server struct {
	cfg    config.Config
	cache  *imaging.Cache
	views  *viewset.Set
	log    log.FieldLogger
	source string

	// pending holds notifications raised while handling the current
	// request. They are written ahead of its response.
	pending []MCPNotification
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a server from cfg. A nil logger uses the logrus standard
// logger.
func New(cfg config.Config, logger log.FieldLogger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	cache, err := imaging.NewCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	lib, err := cfg.Library()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.ViewOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger

	s := &Server{
		cfg:   cfg,
		cache: cache,
		log:   logger,
	}
	s.views, err = viewset.New(opts, lib, s.onViewEvent)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Run serves requests from stdin, writing to stdout, until stdin closes.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses and
// notifications to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("failed to parse request")
			continue
		}

		resp := s.handleRequest(&req)
		for _, n := range s.drainNotifications() {
			if err := encoder.Encode(n); err != nil {
				s.log.WithError(err).Warn("failed to encode notification")
			}
		}
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.WithError(err).Warn("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools":   map[string]interface{}{},
				"logging": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": Version,
			},
		},
	}
}

// viewEvent is the payload of a view change notification.
type viewEvent struct {
	Event string        `json:"event"`
	View  *viewset.Name `json:"view,omitempty"`
}

// onViewEvent is the Notifier of the view set. Clients are told which view
// to show; the server never pushes pixels on its own.
func (s *Server) onViewEvent(ev viewset.Event) {
	data := viewEvent{Event: ev.Kind.String()}
	if ev.Kind != viewset.Cleared {
		v := ev.View
		data.View = &v
	}
	s.pending = append(s.pending, MCPNotification{
		JSONRPC: "2.0",
		Method:  "notifications/message",
		Params: map[string]interface{}{
			"level":  "info",
			"logger": Name,
			"data":   data,
		},
	})
}

func (s *Server) drainNotifications() []MCPNotification {
	out := s.pending
	s.pending = nil
	return out
}

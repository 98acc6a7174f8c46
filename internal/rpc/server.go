// internal/rpc/server.go
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/correlation"
)

// HandlerFunc serves one operation. Returning a *faults.Fault (directly or
// wrapped) renders a 422 fault envelope; any other error renders a 500, which
// callers treat as a retryable transport failure.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Server exposes a collaborator's operations under POST /rpc/<operation>.
// Success replies are 200 with the handler's result as JSON; business faults
// are 422 with the {"fault_code","message"} envelope.
type Server struct {
	name   string
	logger logger.Logger
	mu     sync.RWMutex
	ops    map[string]HandlerFunc
}

func NewServer(name string, log logger.Logger) *Server {
	return &Server{
		name:   name,
		logger: log,
		ops:    make(map[string]HandlerFunc),
	}
}

// Register binds an operation name to its handler. Registering the same name
// twice panics; that is a wiring bug, not a runtime condition.
func (s *Server) Register(operation string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ops[operation]; exists {
		panic(fmt.Sprintf("rpc: operation %q registered twice on %s", operation, s.name))
	}
	s.ops[operation] = fn
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": s.name})
		return
	}

	operation, ok := strings.CutPrefix(r.URL.Path, "/rpc/")
	if !ok || operation == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	s.mu.RLock()
	fn, ok := s.ops[operation]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown operation %q", operation)})
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable request body"})
		return
	}

	ctx := r.Context()
	if id := r.Header.Get("X-Correlation-ID"); id != "" {
		ctx = correlation.WithID(ctx, id)
	}

	result, err := fn(ctx, payload)
	if err != nil {
		if f := faults.From(err); f != nil {
			writeJSON(w, http.StatusUnprocessableEntity, f)
			return
		}
		s.logger.Error("operation handler failed", map[string]interface{}{
			"service":        s.name,
			"operation":      operation,
			"correlation_id": correlation.FromContext(ctx),
			"error":          err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

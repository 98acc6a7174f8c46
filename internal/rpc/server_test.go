package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/correlation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer("directory", logger.NewTestLogger(t))
}

func TestServerDispatchesOperation(t *testing.T) {
	srv := newTestServer(t)
	srv.Register("get_client_profile", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args echoArgs
		require.NoError(t, json.Unmarshal(payload, &args))
		assert.Equal(t, "ABCD1234", correlation.FromContext(ctx))
		return echoReply{Greeting: "hello " + args.ClientID}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/rpc/get_client_profile",
		strings.NewReader(`{"client_id":"client-001"}`))
	req.Header.Set("X-Correlation-ID", "ABCD1234")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var reply echoReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "hello client-001", reply.Greeting)
}

func TestServerRendersFaultEnvelope(t *testing.T) {
	srv := newTestServer(t)
	srv.Register("get_client_profile", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		return nil, faults.New(faults.ClientNotFound, "client client-999 inconnu")
	})

	req := httptest.NewRequest(http.MethodPost, "/rpc/get_client_profile", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var envelope struct {
		FaultCode string `json:"fault_code"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Client.NotFound", envelope.FaultCode)
	assert.Equal(t, "client client-999 inconnu", envelope.Message)
}

func TestServerWrapsInternalErrors(t *testing.T) {
	srv := newTestServer(t)
	srv.Register("get_client_profile", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		return nil, errors.New("database on fire")
	})

	req := httptest.NewRequest(http.MethodPost, "/rpc/get_client_profile", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database on fire")
}

func TestServerUnknownOperation(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/rpc/divine_intervention", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	srv.Register("get_client_profile", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/rpc/get_client_profile", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestServerDuplicateRegistrationPanics(t *testing.T) {
	srv := newTestServer(t)
	srv.Register("get_client_profile", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		return nil, nil
	})

	assert.Panics(t, func() {
		srv.Register("get_client_profile", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
			return nil, nil
		})
	})
}

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"loan-orchestrator/internal/common/config"
	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/correlation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type echoArgs struct {
	ClientID string `json:"client_id"`
}

type echoReply struct {
	Greeting string `json:"greeting"`
}

func newTestClient(t *testing.T, baseURL string, maxRetries int) *Client {
	t.Helper()
	return NewClient(
		config.RPCConfig{MaxRetries: maxRetries, BackoffMs: 1, TimeoutMs: 2000},
		map[string]config.CollaboratorConfig{
			"directory": {BaseURL: baseURL, Enabled: true},
		},
		logger.NewTestLogger(t),
	)
}

// ==========================
// Tests
// ==========================

func TestCallSuccess(t *testing.T) {
	var gotCorrelation atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rpc/get_client_profile", r.URL.Path)
		gotCorrelation.Store(r.Header.Get("X-Correlation-ID"))

		var args echoArgs
		require.NoError(t, json.NewDecoder(r.Body).Decode(&args))
		assert.Equal(t, "client-001", args.ClientID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(echoReply{Greeting: "hello " + args.ClientID})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 2)
	ctx := correlation.WithID(context.Background(), "ABCD1234")

	var reply echoReply
	err := client.Call(ctx, "directory", "get_client_profile", echoArgs{ClientID: "client-001"}, &reply)

	require.NoError(t, err)
	assert.Equal(t, "hello client-001", reply.Greeting)
	assert.Equal(t, "ABCD1234", gotCorrelation.Load())
}

func TestCallBusinessFaultNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(faults.New(faults.ClientNotFound, "client client-999 inconnu"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 3)
	err := client.Call(context.Background(), "directory", "get_client_profile", echoArgs{ClientID: "client-999"}, nil)

	require.Error(t, err)
	fault := faults.From(err)
	require.NotNil(t, fault, "business fault should surface as *faults.Fault")
	assert.Equal(t, faults.ClientNotFound, fault.Code)
	assert.Equal(t, "client client-999 inconnu", fault.Detail)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "business faults must not be retried")
}

func TestCallRetriesServerErrorThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(echoReply{Greeting: "recovered"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 3)

	var reply echoReply
	err := client.Call(context.Background(), "directory", "get_client_profile", echoArgs{ClientID: "client-001"}, &reply)

	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.Greeting)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCallTransportErrorAfterRetriesExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 2)
	err := client.Call(context.Background(), "directory", "get_client_profile", echoArgs{ClientID: "client-001"}, nil)

	require.Error(t, err)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "directory", te.Collaborator)
	assert.Equal(t, "get_client_profile", te.Operation)
	assert.Equal(t, 3, te.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Nil(t, faults.From(err), "transport errors must not look like business faults")
}

func TestCallConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL, 1)
	err := client.Call(context.Background(), "directory", "get_client_profile", echoArgs{}, nil)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 2, te.Attempts)
}

func TestCallUnknownCollaborator(t *testing.T) {
	client := newTestClient(t, "http://localhost:1", 1)
	err := client.Call(context.Background(), "astrology", "predict", nil, nil)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "astrology", te.Collaborator)
}

func TestCallUnexpectedStatusNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 3)
	err := client.Call(context.Background(), "directory", "get_client_profile", echoArgs{}, nil)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"loan-orchestrator/internal/common/database"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndexer(t *testing.T, handler http.HandlerFunc) *Indexer {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return NewIndexer(&database.ElasticsearchClient{Client: es}, "loan-results", logger.NewTestLogger(t))
}

func TestIndexResult(t *testing.T) {
	var gotPath string
	var gotDoc map[string]interface{}

	indexer := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	result := &models.LoanApplicationResult{
		CorrelationID: "ABCD1234",
		ClientEmail:   "alice.smith@example.com",
		Status:        models.StatusSuccess,
	}

	err := indexer.IndexResult(context.Background(), result)

	require.NoError(t, err)
	assert.Equal(t, "/loan-results/_doc/ABCD1234", gotPath)
	assert.Equal(t, "ABCD1234", gotDoc["correlation_id"])
	assert.Equal(t, "SUCCESS", gotDoc["status"])
}

func TestIndexResultServerError(t *testing.T) {
	indexer := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"unavailable"}`))
	})

	err := indexer.IndexResult(context.Background(), &models.LoanApplicationResult{CorrelationID: "ABCD1234"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit index error")
}

// internal/audit/indexer.go

// Package audit indexes final loan application results into Elasticsearch
// for offline analysis. Indexing is best effort; failures are logged and
// never surface to the request path.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"loan-orchestrator/internal/common/database"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/models"
)

type Indexer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *Indexer {
	return &Indexer{es: es, index: index, logger: log}
}

// IndexResult writes one result document, keyed by correlation id.
func (i *Indexer) IndexResult(ctx context.Context, result *models.LoanApplicationResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode audit document: %w", err)
	}

	res, err := i.es.Client.Index(
		i.index,
		bytes.NewReader(body),
		i.es.Client.Index.WithContext(ctx),
		i.es.Client.Index.WithDocumentID(result.CorrelationID),
	)
	if err != nil {
		return fmt.Errorf("failed to index audit document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("audit index error: %s", res.Status())
	}

	i.logger.Info("result indexed for audit", map[string]interface{}{
		"correlation_id": result.CorrelationID,
		"index":          i.index,
		"status":         result.Status,
	})
	return nil
}

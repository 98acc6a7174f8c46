// internal/store/store.go

// Package store persists loan request records in Redis. The orchestrator
// writes to it best effort around the saga: a store failure is logged by the
// caller and never aborts a request.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loan-orchestrator/internal/common/database"
	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const (
	requestKeyPrefix = "loan:request:"
	requestTTL       = 30 * 24 * time.Hour

	// StatusReceived is the initial record status.
	StatusReceived = "REÇUE"
)

// RequestRecord is the stored trace of one loan request.
type RequestRecord struct {
	CorrelationID string          `json:"correlation_id"`
	Status        string          `json:"status"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

type Store struct {
	redis  *database.RedisClient
	logger logger.Logger
	now    func() time.Time
}

func New(rdb *database.RedisClient, log logger.Logger) *Store {
	return &Store{redis: rdb, logger: log, now: time.Now}
}

func requestKey(correlationID string) string {
	return requestKeyPrefix + correlationID
}

// SaveRequest writes the initial record for a request.
func (s *Store) SaveRequest(ctx context.Context, correlationID string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return faults.Newf(faults.ServerStorageError, "%v", err)
	}

	record := RequestRecord{
		CorrelationID: correlationID,
		Status:        StatusReceived,
		CreatedAt:     s.now().UTC().Format(time.RFC3339),
		Data:          raw,
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return faults.Newf(faults.ServerStorageError, "%v", err)
	}

	if err := s.redis.Set(ctx, requestKey(correlationID), encoded, requestTTL); err != nil {
		return faults.Newf(faults.ServerStorageError, "%v", err)
	}

	s.logger.Info("loan request saved", map[string]interface{}{
		"correlation_id": correlationID,
		"status":         StatusReceived,
	})
	return nil
}

// UpdateStatus transitions an existing record to a new status.
func (s *Store) UpdateStatus(ctx context.Context, correlationID, status string) error {
	raw, err := s.redis.Get(ctx, requestKey(correlationID))
	if errors.Is(err, redis.Nil) {
		return faults.Newf(faults.ServerStorageError, "Demande %s non trouvée.", correlationID)
	}
	if err != nil {
		return faults.Newf(faults.ServerStorageError, "%v", err)
	}

	var record RequestRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return faults.Newf(faults.ServerStorageError, "%v", err)
	}

	record.Status = status
	record.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	encoded, err := json.Marshal(record)
	if err != nil {
		return faults.Newf(faults.ServerStorageError, "%v", err)
	}

	if err := s.redis.Set(ctx, requestKey(correlationID), encoded, requestTTL); err != nil {
		return faults.Newf(faults.ServerStorageError, "%v", err)
	}

	s.logger.Info("loan request status updated", map[string]interface{}{
		"correlation_id": correlationID,
		"status":         status,
	})
	return nil
}

// GetRequest loads a stored record.
func (s *Store) GetRequest(ctx context.Context, correlationID string) (*RequestRecord, error) {
	raw, err := s.redis.Get(ctx, requestKey(correlationID))
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("request %s not found", correlationID)
	}
	if err != nil {
		return nil, err
	}

	var record RequestRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// internal/directory/service.go

// Package directory implements the client directory collaborator: read-only
// identity, financials and credit history lookups keyed by client id.
package directory

import (
	"context"
	"regexp"

	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/models"
)

var clientIDPattern = regexp.MustCompile(`^client-\d{3}$`)

type Service struct {
	store  Store
	logger logger.Logger
}

func NewService(store Store, log logger.Logger) *Service {
	return &Service{store: store, logger: log}
}

func (s *Service) validate(clientID string) error {
	if !clientIDPattern.MatchString(clientID) {
		return faults.New(faults.ClientValidationError, "Format clientId invalide. Attendu: client-XXX")
	}
	return nil
}

// GetIdentity returns the client's identity record.
func (s *Service) GetIdentity(ctx context.Context, clientID string) (*models.ClientIdentity, error) {
	s.logger.Info("directory lookup", map[string]interface{}{
		"operation": "get_client_identity",
		"client_id": clientID,
	})

	if err := s.validate(clientID); err != nil {
		return nil, err
	}

	rec, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &models.ClientIdentity{
		ClientID: rec.ClientID,
		Name:     rec.Name,
		Address:  rec.Address,
		Email:    rec.Email,
	}, nil
}

// GetFinancials returns the client's monthly cash flow figures.
func (s *Service) GetFinancials(ctx context.Context, clientID string) (*models.Financials, error) {
	s.logger.Info("directory lookup", map[string]interface{}{
		"operation": "get_client_financials",
		"client_id": clientID,
	})

	if err := s.validate(clientID); err != nil {
		return nil, err
	}

	rec, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &models.Financials{
		MonthlyIncome:   rec.MonthlyIncome,
		MonthlyExpenses: rec.MonthlyExpenses,
	}, nil
}

// GetCreditHistory returns the client's credit bureau record.
func (s *Service) GetCreditHistory(ctx context.Context, clientID string) (*models.CreditHistory, error) {
	s.logger.Info("directory lookup", map[string]interface{}{
		"operation": "get_client_credit_history",
		"client_id": clientID,
	})

	if err := s.validate(clientID); err != nil {
		return nil, err
	}

	rec, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &models.CreditHistory{
		Debt:          rec.Debt,
		LatePayments:  rec.LatePayments,
		HasBankruptcy: rec.HasBankruptcy,
	}, nil
}

// internal/directory/store.go
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"loan-orchestrator/internal/common/database"
	"loan-orchestrator/internal/common/faults"
)

// Store reads client records. Implementations return Client.NotFound for
// unknown ids; format validation happens in the service layer, not here.
type Store interface {
	GetClient(ctx context.Context, clientID string) (*clientRecord, error)
}

// ==========================
// In-memory store
// ==========================

// memoryStore is the seeded fixture store used when no database is
// configured. The seed mirrors the reference client base.
type memoryStore struct {
	clients map[string]clientRecord
}

// NewMemoryStore returns a Store preloaded with the fixture clients.
func NewMemoryStore() Store {
	return &memoryStore{clients: map[string]clientRecord{
		"client-001": {
			ClientID: "client-001", Name: "John Doe",
			Address: "123 Main St, Boston MA", Email: "john.doe@example.com",
			MonthlyIncome: 4000, MonthlyExpenses: 3000,
			Debt: 5000, LatePayments: 2, HasBankruptcy: false,
		},
		"client-002": {
			ClientID: "client-002", Name: "Alice Smith",
			Address: "456 Elm St, NYC", Email: "alice.smith@example.com",
			MonthlyIncome: 5500, MonthlyExpenses: 2500,
			Debt: 2000, LatePayments: 0, HasBankruptcy: false,
		},
		"client-003": {
			ClientID: "client-003", Name: "Bob Johnson",
			Address: "789 Oak St, LA", Email: "bob.johnson@example.com",
			MonthlyIncome: 3500, MonthlyExpenses: 3200,
			Debt: 15000, LatePayments: 5, HasBankruptcy: true,
		},
		"client-004": {
			ClientID: "client-004", Name: "Sarah Harrouche",
			Address: "UVSQ", Email: "sarahharrouche2004@gmail.com",
			MonthlyIncome: 4500, MonthlyExpenses: 2500,
			Debt: 1000, LatePayments: 1, HasBankruptcy: true,
		},
	}}
}

func (s *memoryStore) GetClient(ctx context.Context, clientID string) (*clientRecord, error) {
	rec, ok := s.clients[clientID]
	if !ok {
		return nil, faults.Newf(faults.ClientNotFound, "Client '%s' non trouvé dans le système.", clientID)
	}
	return &rec, nil
}

// ==========================
// Postgres store
// ==========================

const getClientQuery = `
SELECT client_id, name, address, email,
       monthly_income, monthly_expenses,
       debt, late_payments, has_bankruptcy
FROM clients
WHERE client_id = $1`

type postgresStore struct {
	db *database.PostgresClient
}

// NewPostgresStore returns a Store backed by the clients table.
func NewPostgresStore(db *database.PostgresClient) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) GetClient(ctx context.Context, clientID string) (*clientRecord, error) {
	var rec clientRecord
	err := s.db.QueryRow(ctx, getClientQuery, clientID).Scan(
		&rec.ClientID, &rec.Name, &rec.Address, &rec.Email,
		&rec.MonthlyIncome, &rec.MonthlyExpenses,
		&rec.Debt, &rec.LatePayments, &rec.HasBankruptcy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.Newf(faults.ClientNotFound, "Client '%s' non trouvé dans le système.", clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client %s: %w", clientID, err)
	}
	return &rec, nil
}

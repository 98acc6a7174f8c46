package directory

import (
	"context"
	"testing"

	"loan-orchestrator/internal/common/database"
	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemoryStore(), logger.NewTestLogger(t))
}

func TestGetIdentityKnownClient(t *testing.T) {
	svc := newTestService(t)

	identity, err := svc.GetIdentity(context.Background(), "client-002")

	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", identity.Name)
	assert.Equal(t, "456 Elm St, NYC", identity.Address)
	assert.Equal(t, "alice.smith@example.com", identity.Email)
}

func TestGetIdentityInvalidFormat(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		clientID string
	}{
		{"empty", ""},
		{"wrong prefix", "customer-001"},
		{"too few digits", "client-12"},
		{"too many digits", "client-1234"},
		{"letters in suffix", "client-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetIdentity(context.Background(), tt.clientID)

			fault := faults.From(err)
			require.NotNil(t, fault)
			assert.Equal(t, faults.ClientValidationError, fault.Code)
		})
	}
}

func TestGetIdentityUnknownClient(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetIdentity(context.Background(), "client-999")

	fault := faults.From(err)
	require.NotNil(t, fault)
	assert.Equal(t, faults.ClientNotFound, fault.Code)
	assert.Contains(t, fault.Detail, "client-999")
}

func TestGetFinancials(t *testing.T) {
	svc := newTestService(t)

	fin, err := svc.GetFinancials(context.Background(), "client-002")

	require.NoError(t, err)
	assert.Equal(t, 5500.0, fin.MonthlyIncome)
	assert.Equal(t, 2500.0, fin.MonthlyExpenses)
}

func TestGetCreditHistory(t *testing.T) {
	svc := newTestService(t)

	hist, err := svc.GetCreditHistory(context.Background(), "client-003")

	require.NoError(t, err)
	assert.Equal(t, 15000.0, hist.Debt)
	assert.Equal(t, 5, hist.LatePayments)
	assert.True(t, hist.HasBankruptcy)
}

// ==========================
// Postgres store
// ==========================

func TestPostgresStoreGetClient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"client_id", "name", "address", "email",
		"monthly_income", "monthly_expenses",
		"debt", "late_payments", "has_bankruptcy",
	}).AddRow("client-002", "Alice Smith", "456 Elm St, NYC", "alice.smith@example.com",
		5500.0, 2500.0, 2000.0, 0, false)

	mock.ExpectQuery("SELECT client_id, name, address, email").
		WithArgs("client-002").
		WillReturnRows(rows)

	store := NewPostgresStore(&database.PostgresClient{DB: db})
	rec, err := store.GetClient(context.Background(), "client-002")

	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", rec.Name)
	assert.Equal(t, 5500.0, rec.MonthlyIncome)
	assert.False(t, rec.HasBankruptcy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreClientNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT client_id, name, address, email").
		WithArgs("client-999").
		WillReturnRows(sqlmock.NewRows([]string{
			"client_id", "name", "address", "email",
			"monthly_income", "monthly_expenses",
			"debt", "late_payments", "has_bankruptcy",
		}))

	store := NewPostgresStore(&database.PostgresClient{DB: db})
	_, err = store.GetClient(context.Background(), "client-999")

	fault := faults.From(err)
	require.NotNil(t, fault)
	assert.Equal(t, faults.ClientNotFound, fault.Code)
}

package scoring

import (
	"context"
	"testing"

	"loan-orchestrator/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(logger.NewTestLogger(t))
}

func TestComputeScore(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name          string
		debt          float64
		latePayments  int
		hasBankruptcy bool
		wantScore     int
		wantGrade     string
	}{
		{"clean profile", 0, 0, false, 1000, "A+"},
		{"alice smith", 2000, 0, false, 800, "A"},
		{"john doe", 5000, 2, false, 400, "D"},
		{"bankruptcy penalty", 1000, 1, true, 650, "C"},
		{"deep debt clamps to zero", 50000, 10, true, 0, "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.ComputeScore(context.Background(), "client-001",
				tt.debt, tt.latePayments, tt.hasBankruptcy)

			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, result.Score)
			assert.Equal(t, tt.wantGrade, result.Grade)
		})
	}
}

func TestGradeBoundaries(t *testing.T) {
	assert.Equal(t, "A+", gradeFor(850))
	assert.Equal(t, "A", gradeFor(849))
	assert.Equal(t, "A", gradeFor(800))
	assert.Equal(t, "B", gradeFor(799))
	assert.Equal(t, "B", gradeFor(700))
	assert.Equal(t, "C", gradeFor(699))
	assert.Equal(t, "C", gradeFor(600))
	assert.Equal(t, "D", gradeFor(599))
}

func TestDecideSolvency(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		income   float64
		expenses float64
		score    int
		solvent  bool
	}{
		{"good score and surplus", 5500, 2500, 800, true},
		{"score at threshold", 5500, 2500, 700, true},
		{"score below threshold", 5500, 2500, 699, false},
		{"income equals expenses", 3000, 3000, 800, false},
		{"expenses exceed income", 3000, 3200, 800, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := svc.DecideSolvency(context.Background(), tt.income, tt.expenses, tt.score)

			require.NoError(t, err)
			assert.Equal(t, tt.solvent, decision.IsSolvent)
			if tt.solvent {
				assert.Equal(t, "solvent", decision.Status)
			} else {
				assert.Equal(t, "not_solvent", decision.Status)
			}
		})
	}
}

func TestExplainHighScoreSaver(t *testing.T) {
	svc := newTestService(t)

	expl, err := svc.Explain(context.Background(), 800, 5500, 2500, 2000, 0, false)

	require.NoError(t, err)
	assert.Contains(t, expl.Credit, "Excellent")
	assert.Contains(t, expl.Credit, "800/1000")
	assert.Contains(t, expl.Income, "capacité d'épargne")
	assert.Contains(t, expl.History, "aucun paiement en retard")
}

func TestExplainBankruptcyOverridesLatePayments(t *testing.T) {
	svc := newTestService(t)

	expl, err := svc.Explain(context.Background(), 450, 3500, 3200, 15000, 5, true)

	require.NoError(t, err)
	assert.Contains(t, expl.Credit, "Faible")
	assert.Contains(t, expl.History, "faillite")
	assert.NotContains(t, expl.History, "5 paiement(s)")
}

func TestExplainOverspending(t *testing.T) {
	svc := newTestService(t)

	expl, err := svc.Explain(context.Background(), 650, 3000, 3200, 8000, 3, false)

	require.NoError(t, err)
	assert.Contains(t, expl.Income, "dépassent vos revenus")
	assert.Contains(t, expl.History, "3 paiement(s)")
}

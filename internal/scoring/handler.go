// internal/scoring/handler.go
package scoring

import (
	"context"
	"encoding/json"

	"loan-orchestrator/internal/rpc"
)

// ComputeScoreArgs is the request body for compute_credit_score.
type ComputeScoreArgs struct {
	ClientID      string  `json:"client_id"`
	Debt          float64 `json:"debt"`
	LatePayments  int     `json:"late_payments"`
	HasBankruptcy bool    `json:"has_bankruptcy"`
}

// DecideSolvencyArgs is the request body for decide_solvency.
type DecideSolvencyArgs struct {
	MonthlyIncome   float64 `json:"monthly_income"`
	MonthlyExpenses float64 `json:"monthly_expenses"`
	Score           int     `json:"score"`
}

// ExplainArgs is the request body for generate_explanations.
type ExplainArgs struct {
	Score           int     `json:"score"`
	MonthlyIncome   float64 `json:"monthly_income"`
	MonthlyExpenses float64 `json:"monthly_expenses"`
	Debt            float64 `json:"debt"`
	LatePayments    int     `json:"late_payments"`
	HasBankruptcy   bool    `json:"has_bankruptcy"`
}

// RegisterOps exposes the scoring operations on an rpc.Server.
func RegisterOps(srv *rpc.Server, svc *Service) {
	srv.Register("compute_credit_score", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args ComputeScoreArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.ComputeScore(ctx, args.ClientID, args.Debt, args.LatePayments, args.HasBankruptcy)
	})

	srv.Register("decide_solvency", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args DecideSolvencyArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.DecideSolvency(ctx, args.MonthlyIncome, args.MonthlyExpenses, args.Score)
	})

	srv.Register("generate_explanations", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args ExplainArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.Explain(ctx, args.Score, args.MonthlyIncome, args.MonthlyExpenses,
			args.Debt, args.LatePayments, args.HasBankruptcy)
	})
}

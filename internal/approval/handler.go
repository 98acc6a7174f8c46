// internal/approval/handler.go
package approval

import (
	"context"
	"encoding/json"

	"loan-orchestrator/internal/rpc"
)

// ApproveArgs is the request body for approve_loan.
type ApproveArgs struct {
	CreditScore       int     `json:"credit_score"`
	SolvencyStatus    string  `json:"solvency_status"`
	PropertyValue     float64 `json:"property_value"`
	LoanAmount        float64 `json:"loan_amount"`
	PropertyCompliant bool    `json:"property_compliant"`
	MonthlyIncome     float64 `json:"monthly_income"`
	MonthlyExpenses   float64 `json:"monthly_expenses"`
}

// RegisterOps exposes the approval operation on an rpc.Server.
func RegisterOps(srv *rpc.Server, svc *Service) {
	srv.Register("approve_loan", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args ApproveArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.Approve(ctx, args.CreditScore, args.SolvencyStatus, args.PropertyValue,
			args.LoanAmount, args.PropertyCompliant, args.MonthlyIncome, args.MonthlyExpenses)
	})
}

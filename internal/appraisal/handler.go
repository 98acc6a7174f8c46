// internal/appraisal/handler.go
package appraisal

import (
	"context"
	"encoding/json"

	"loan-orchestrator/internal/rpc"
)

// EvaluateArgs is the request body for evaluate_property.
type EvaluateArgs struct {
	PropertyAddress     string  `json:"property_address"`
	PropertyDescription string  `json:"property_description"`
	ClientID            string  `json:"client_id"`
	LoanAmount          float64 `json:"loan_amount"`
	PropertySurface     int     `json:"property_surface"`
	ConstructionYear    int     `json:"construction_year"`
}

// RegisterOps exposes the appraisal operation on an rpc.Server.
func RegisterOps(srv *rpc.Server, svc *Service) {
	srv.Register("evaluate_property", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args EvaluateArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.Evaluate(ctx, args.PropertyAddress, args.PropertyDescription,
			args.ClientID, args.LoanAmount, args.PropertySurface, args.ConstructionYear)
	})
}

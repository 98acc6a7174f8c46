// internal/notification/handler.go
package notification

import (
	"context"
	"encoding/json"

	"loan-orchestrator/internal/rpc"
)

// SendArgs is the request body for send_notification.
type SendArgs struct {
	CorrelationID     string `json:"correlation_id"`
	ClientID          string `json:"client_id"`
	ClientName        string `json:"client_name"`
	ClientEmail       string `json:"client_email"`
	DecisionStatus    string `json:"decision_status"`
	SimpleExplanation string `json:"simple_explanation"`
}

// RegisterOps exposes the notification operation on an rpc.Server.
func RegisterOps(srv *rpc.Server, svc *Service) {
	srv.Register("send_notification", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args SendArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.Send(ctx, args.CorrelationID, args.ClientID, args.ClientName,
			args.ClientEmail, args.DecisionStatus, args.SimpleExplanation)
	})
}

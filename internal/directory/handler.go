// internal/directory/handler.go
package directory

import (
	"context"
	"encoding/json"

	"loan-orchestrator/internal/rpc"
)

// RegisterOps exposes the directory operations on an rpc.Server.
func RegisterOps(srv *rpc.Server, svc *Service) {
	srv.Register("get_client_identity", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args ClientIDArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.GetIdentity(ctx, args.ClientID)
	})

	srv.Register("get_client_financials", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args ClientIDArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.GetFinancials(ctx, args.ClientID)
	})

	srv.Register("get_client_credit_history", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args ClientIDArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.GetCreditHistory(ctx, args.ClientID)
	})
}

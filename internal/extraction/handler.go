// internal/extraction/handler.go
package extraction

import (
	"context"
	"encoding/json"

	"loan-orchestrator/internal/rpc"
)

// ExtractArgs is the request body for extract_property_info.
type ExtractArgs struct {
	ClientID    string `json:"client_id"`
	RequestText string `json:"request_text"`
}

// RegisterOps exposes the extraction operation on an rpc.Server.
func RegisterOps(srv *rpc.Server, svc *Service) {
	srv.Register("extract_property_info", func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var args ExtractArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return nil, err
		}
		return svc.Extract(ctx, args.ClientID, args.RequestText)
	})
}

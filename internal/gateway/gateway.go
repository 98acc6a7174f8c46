// internal/gateway/gateway.go

// Package gateway exposes the public REST surface of the loan workflow. It
// validates inbound applications against a JSON schema before the saga runs,
// and maps saga outcomes (faults, transport failures) onto the HTTP error
// envelope external callers expect.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"

	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/models"
	"loan-orchestrator/internal/rpc"
)

const maxBodyBytes = 1 << 20

// requestSchema guards the ingress payload. Schema violations are rejected
// before the orchestrator is invoked.
const requestSchema = `{
	"type": "object",
	"required": ["client_id", "request_text"],
	"properties": {
		"client_id": {"type": "string", "minLength": 1},
		"request_text": {"type": "string", "minLength": 1}
	}
}`

// LoanProcessor runs the underwriting saga for one application.
// *orchestrator.Orchestrator satisfies it.
type LoanProcessor interface {
	Process(ctx context.Context, req models.LoanApplicationRequest) (*models.LoanApplicationResult, error)
}

type Gateway struct {
	processor LoanProcessor
	logger    logger.Logger
	schema    *gojsonschema.Schema
}

type errorEnvelope struct {
	Error     string `json:"error"`
	Status    string `json:"status"`
	FaultCode string `json:"fault_code,omitempty"`
}

// successEnvelope is the public REST contract for a processed application.
// Its status is the envelope-level "success", distinct from the saga's
// internal SUCCESS/ABORTED outcome enum.
type successEnvelope struct {
	Status             string                       `json:"status"`
	CorrelationID      string                       `json:"correlation_id"`
	ClientEmail        string                       `json:"client_email"`
	Timestamp          string                       `json:"timestamp"`
	ExtractedInfo      models.ExtractedPropertyInfo `json:"extracted_info"`
	CreditAssessment   models.CreditAssessment      `json:"credit_assessment"`
	PropertyEvaluation models.PropertyEvaluation    `json:"property_evaluation"`
	FinalDecision      models.ApprovalDecision      `json:"final_decision"`
	SimpleExplanation  string                       `json:"simple_explanation"`
}

func newSuccessEnvelope(result *models.LoanApplicationResult) successEnvelope {
	return successEnvelope{
		Status:             "success",
		CorrelationID:      result.CorrelationID,
		ClientEmail:        result.ClientEmail,
		Timestamp:          result.Timestamp,
		ExtractedInfo:      result.ExtractedInfo,
		CreditAssessment:   result.CreditAssessment,
		PropertyEvaluation: result.PropertyEvaluation,
		FinalDecision:      result.FinalDecision,
		SimpleExplanation:  result.SimpleExplanation,
	}
}

func New(processor LoanProcessor, log logger.Logger) (*Gateway, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	if err != nil {
		return nil, err
	}
	return &Gateway{
		processor: processor,
		logger:    log,
		schema:    schema,
	}, nil
}

// Handler builds the gateway's full route table, metrics endpoint included.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/api/health", g.handleAPIHealth)
	mux.HandleFunc("/api/loan/apply", g.handleApply)
	mux.Handle("/metrics", promhttp.Handler())
	return g.withNotFound(mux)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Loan Gateway",
	})
}

func (g *Gateway) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Loan Processing API",
		"version": "2.0",
	})
}

func (g *Gateway) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope{
			Error:  "Méthode non autorisée",
			Status: "error",
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{
			Error:  "Corps de requête illisible",
			Status: "error",
		})
		return
	}

	if status, message, ok := g.validate(body); !ok {
		writeJSON(w, status, errorEnvelope{
			Error:  message,
			Status: "error",
		})
		return
	}

	var req models.LoanApplicationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{
			Error:  "Corps de requête invalide",
			Status: "error",
		})
		return
	}

	g.logger.Info("loan application received", map[string]interface{}{
		"client_id": req.ClientID,
	})

	result, err := g.processor.Process(r.Context(), req)
	if err != nil {
		g.writeProcessError(w, req.ClientID, err)
		return
	}

	g.logger.Info("loan application processed", map[string]interface{}{
		"client_id":      req.ClientID,
		"correlation_id": result.CorrelationID,
		"approved":       result.FinalDecision.Approved,
	})
	writeJSON(w, http.StatusOK, newSuccessEnvelope(result))
}

// validate checks the raw body against the ingress schema. It reports the
// fixed missing-fields message when a required property is absent, and the
// schema's own description otherwise.
func (g *Gateway) validate(body []byte) (int, string, bool) {
	result, err := g.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return http.StatusBadRequest, "Corps de requête invalide", false
	}
	if result.Valid() {
		return 0, "", true
	}

	var details []string
	for _, violation := range result.Errors() {
		if violation.Type() == "required" {
			return http.StatusBadRequest,
				"Champs manquants : client_id et request_text sont obligatoires", false
		}
		details = append(details, violation.String())
	}
	return http.StatusBadRequest, "Requête invalide : " + strings.Join(details, "; "), false
}

func (g *Gateway) writeProcessError(w http.ResponseWriter, clientID string, err error) {
	var transport *rpc.TransportError
	if errors.As(err, &transport) {
		g.logger.Error("orchestrator unreachable", map[string]interface{}{
			"client_id": clientID,
			"error":     err.Error(),
		})
		writeJSON(w, http.StatusServiceUnavailable, errorEnvelope{
			Error:     "Services indisponibles. L'orchestrator ne répond pas. Veuillez réessayer dans quelques instants.",
			Status:    "error",
			FaultCode: string(faults.CodeConnectivity),
		})
		return
	}

	if f := faults.From(err); f != nil {
		status, message, code := faults.Map(f)
		g.logger.Error("loan application rejected", map[string]interface{}{
			"client_id":  clientID,
			"fault_code": string(code),
			"message":    message,
		})
		writeJSON(w, status, errorEnvelope{
			Error:     message,
			Status:    "error",
			FaultCode: string(code),
		})
		return
	}

	g.logger.Error("unexpected processing error", map[string]interface{}{
		"client_id": clientID,
		"error":     err.Error(),
	})
	writeJSON(w, http.StatusInternalServerError, errorEnvelope{
		Error:     "Erreur serveur interne. " + err.Error(),
		Status:    "error",
		FaultCode: string(faults.CodeInternal),
	})
}

// withNotFound wraps the mux so unknown routes get the JSON envelope instead
// of the stdlib plain-text 404.
func (g *Gateway) withNotFound(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern == "" {
			writeJSON(w, http.StatusNotFound, errorEnvelope{
				Error:  "Endpoint non trouvé",
				Status: "error",
			})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Package models holds the shared data model of the loan underwriting
// workflow: the inbound request, the per-stage aggregates and the final
// result assembled by the orchestrator.
package models

// Saga outcome statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusAborted = "ABORTED"
)

// Property evaluation statuses.
const (
	EvaluationCompleted    = "COMPLETED"
	EvaluationExpertReview = "EXPERT_REVIEW"
)

// Decision statuses handed to the notification collaborator.
const (
	DecisionApproved     = "APPROVED"
	DecisionRejected     = "REJECTED"
	DecisionExpertReview = "EXPERT_REVIEW"
)

// Risk levels produced by the approval collaborator.
const (
	RiskLow          = "FAIBLE"
	RiskMedium       = "MOYEN"
	RiskMediumHigh   = "MOYEN_ÉLEVÉ"
	RiskHigh         = "ÉLEVÉ"
	RiskVeryHigh     = "TRÈS_ÉLEVÉ"
	RiskExpertReview = "EXPERT_REVIEW"
)

// LoanApplicationRequest is the inbound request created at gateway ingress.
// It is immutable for the lifetime of the saga.
type LoanApplicationRequest struct {
	ClientID    string `json:"client_id"`
	RequestText string `json:"request_text"`
}

// ClientIdentity is the identity record held by the client directory.
type ClientIdentity struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Email    string `json:"email"`
}

// Financials holds a client's monthly cash flow figures.
type Financials struct {
	MonthlyIncome   float64 `json:"monthly_income"`
	MonthlyExpenses float64 `json:"monthly_expenses"`
}

// CreditHistory holds a client's credit bureau record.
type CreditHistory struct {
	Debt          float64 `json:"debt"`
	LatePayments  int     `json:"late_payments"`
	HasBankruptcy bool    `json:"has_bankruptcy"`
}

// ClientProfile is the full read-only client record.
type ClientProfile struct {
	Identity      ClientIdentity `json:"identity"`
	Financials    Financials     `json:"financials"`
	CreditHistory CreditHistory  `json:"credit_history"`
}

// ExtractedPropertyInfo is produced by the information extraction
// collaborator. FullName is the only optional field; absence of any other
// field is a hard failure at the extraction stage.
type ExtractedPropertyInfo struct {
	ClientID            string  `json:"client_id"`
	FullName            string  `json:"full_name"`
	LoanAmount          float64 `json:"loan_amount"`
	LoanDuration        int     `json:"loan_duration"`
	PropertyAddress     string  `json:"property_address"`
	PropertyDescription string  `json:"property_description"`
	PropertySurface     int     `json:"property_surface"`
	ConstructionYear    int     `json:"construction_year"`
	Confidence          float64 `json:"extraction_confidence"`
}

// CreditScore is the scoring collaborator's raw output.
type CreditScore struct {
	Score int    `json:"score"`
	Grade string `json:"grade"`
}

// SolvencyDecision is the solvency collaborator's output.
type SolvencyDecision struct {
	Status    string `json:"status"`
	IsSolvent bool   `json:"is_solvent"`
}

// Explanations carries the three plain-language explanation strings.
type Explanations struct {
	Credit  string `json:"credit"`
	Income  string `json:"income"`
	History string `json:"history"`
}

// CreditAssessment aggregates score, grade, solvency and explanations.
type CreditAssessment struct {
	Score        int          `json:"score"`
	Grade        string       `json:"grade"`
	Status       string       `json:"status"`
	Explanations Explanations `json:"explanations"`
}

// PropertyEvaluation is the appraisal outcome. Status is COMPLETED for a
// normal market valuation and EXPERT_REVIEW for the synthesized fallback
// when the property region is unknown.
type PropertyEvaluation struct {
	EstimatedValue float64 `json:"estimated_value"`
	IsCompliant    bool    `json:"is_compliant"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
}

// ApprovalDecision is the final underwriting decision.
type ApprovalDecision struct {
	Approved          bool    `json:"approved"`
	Decision          string  `json:"decision"`
	InterestRate      float64 `json:"interest_rate"`
	Justification     string  `json:"justification"`
	RiskLevel         string  `json:"risk_level"`
	SimpleExplanation string  `json:"simple_explanation,omitempty"`
}

// NotificationReceipt is returned by the notification collaborator.
type NotificationReceipt struct {
	NotificationID string `json:"notification_id"`
	Status         string `json:"status"`
	Recipient      string `json:"recipient"`
	Message        string `json:"message"`
}

// LoanApplicationResult is the aggregate the orchestrator builds stage by
// stage and returns on success. It is discarded after the response is sent;
// the request store and audit indexer keep their own best-effort copies.
type LoanApplicationResult struct {
	CorrelationID      string                `json:"correlation_id"`
	ClientEmail        string                `json:"client_email"`
	Timestamp          string                `json:"timestamp"`
	Status             string                `json:"status"`
	ExtractedInfo      ExtractedPropertyInfo `json:"extracted_info"`
	CreditAssessment   CreditAssessment      `json:"credit_assessment"`
	PropertyEvaluation PropertyEvaluation    `json:"property_evaluation"`
	FinalDecision      ApprovalDecision      `json:"final_decision"`
	SimpleExplanation  string                `json:"simple_explanation"`
}

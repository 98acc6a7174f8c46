// internal/orchestrator/orchestrator.go

// Package orchestrator drives the loan underwriting saga: nine sequential
// stages across six collaborators, with the region-not-found fallback at the
// appraisal stage and best-effort notification at the end. A fault from any
// mandatory stage aborts the saga and surfaces verbatim to the caller.
package orchestrator

import (
	"context"
	"time"

	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/common/metrics"
	"loan-orchestrator/internal/common/observability"
	"loan-orchestrator/internal/correlation"
	"loan-orchestrator/internal/models"
)

// Collaborator names as wired in configuration.
const (
	collabDirectory    = "directory"
	collabExtraction   = "extraction"
	collabScoring      = "scoring"
	collabAppraisal    = "appraisal"
	collabApproval     = "approval"
	collabNotification = "notification"
)

// Saga stage names, in execution order.
const (
	stageValidate  = "validate"
	stageExtract   = "extract"
	stageFetchData = "fetch_data"
	stageScore     = "score"
	stageSolvency  = "solvency"
	stageExplain   = "explain"
	stageAppraise  = "appraise"
	stageApprove   = "approve"
	stageNotify    = "notify"
)

const expertReviewReason = "La région de votre propriété n'est pas dans notre base de données standard. " +
	"Une évaluation spécialisée par nos experts sera nécessaire."

const expertReviewExplanation = "Votre demande a reçu une attention particulière. " +
	"La propriété demande une évaluation spécialisée par nos experts. " +
	"Vous serez notifié par email de la décision finale dans 5-7 jours ouvrables."

// Caller is the remote service client surface the orchestrator depends on.
// *rpc.Client satisfies it.
type Caller interface {
	Call(ctx context.Context, collaborator, operation string, args interface{}, out interface{}) error
}

// RequestStore persists request records best effort around the saga.
type RequestStore interface {
	SaveRequest(ctx context.Context, correlationID string, data interface{}) error
	UpdateStatus(ctx context.Context, correlationID, status string) error
}

// ResultIndexer archives final results best effort.
type ResultIndexer interface {
	IndexResult(ctx context.Context, result *models.LoanApplicationResult) error
}

type Orchestrator struct {
	caller Caller
	store  RequestStore
	audit  ResultIndexer
	obs    *observability.Observability
	logger logger.Logger
	now    func() time.Time
}

// Options carries the optional dependencies. Store, Audit and Obs may be nil;
// the saga then runs without persistence, archiving or tracing.
type Options struct {
	Store RequestStore
	Audit ResultIndexer
	Obs   *observability.Observability
}

func New(caller Caller, log logger.Logger, opts Options) *Orchestrator {
	return &Orchestrator{
		caller: caller,
		store:  opts.Store,
		audit:  opts.Audit,
		obs:    opts.Obs,
		logger: log,
		now:    time.Now,
	}
}

// Process runs the full saga for one loan application. On success it returns
// the assembled result; on abort it returns the originating fault (or the
// transport error) and no partial aggregate.
func (o *Orchestrator) Process(ctx context.Context, req models.LoanApplicationRequest) (*models.LoanApplicationResult, error) {
	correlationID := correlation.NewID()
	ctx = correlation.WithID(ctx, correlationID)
	start := o.now()

	metrics.ApplicationsActive.Inc()
	defer metrics.ApplicationsActive.Dec()

	o.logger.Info("processing loan request", map[string]interface{}{
		"correlation_id": correlationID,
		"client_id":      req.ClientID,
	})

	o.saveRequest(ctx, correlationID, req)

	result, err := o.run(ctx, correlationID, req)
	if err != nil {
		o.updateStatus(ctx, correlationID, models.StatusAborted)
		o.recordOutcome(ctx, models.StatusAborted, start)
		o.logger.Error("loan request aborted", map[string]interface{}{
			"correlation_id": correlationID,
			"client_id":      req.ClientID,
			"error":          err.Error(),
		})
		return nil, err
	}

	finalStatus := o.deriveStatus(result.FinalDecision.RiskLevel == models.RiskExpertReview, result.FinalDecision.Approved)
	o.updateStatus(ctx, correlationID, finalStatus)
	o.indexResult(ctx, result)
	o.recordOutcome(ctx, models.StatusSuccess, start)

	o.logger.Info("loan request completed", map[string]interface{}{
		"correlation_id": correlationID,
		"client_id":      req.ClientID,
		"approved":       result.FinalDecision.Approved,
		"risk_level":     result.FinalDecision.RiskLevel,
		"duration_ms":    o.now().Sub(start).Milliseconds(),
	})
	return result, nil
}

// run executes the stage sequence. It owns no side effects beyond the remote
// calls themselves; persistence and metrics wrap it in Process.
func (o *Orchestrator) run(ctx context.Context, correlationID string, req models.LoanApplicationRequest) (*models.LoanApplicationResult, error) {
	// ===== 1. Validate =====
	identity, err := o.validateClient(ctx, correlationID, req.ClientID)
	if err != nil {
		return nil, err
	}

	clientEmail := identity.Email
	if clientEmail == "" {
		clientEmail = req.ClientID + "@banque.local"
	}

	// ===== 2. Extract =====
	extracted, err := o.extract(ctx, correlationID, req)
	if err != nil {
		return nil, err
	}

	// ===== 3. FetchData =====
	profile, err := o.fetchClientData(ctx, correlationID, req.ClientID, identity)
	if err != nil {
		return nil, err
	}

	// ===== 4. Score =====
	score, err := o.computeScore(ctx, correlationID, req.ClientID, &profile.CreditHistory)
	if err != nil {
		return nil, err
	}

	// ===== 5. Solvency =====
	solvency, err := o.decideSolvency(ctx, correlationID, &profile.Financials, score.Score)
	if err != nil {
		return nil, err
	}

	// ===== 6. Explain =====
	explanations, err := o.explain(ctx, correlationID, score.Score, &profile.Financials, &profile.CreditHistory)
	if err != nil {
		return nil, err
	}

	// ===== 7. Appraise (with the region-not-found branch) =====
	evaluation, expertReview, err := o.appraise(ctx, correlationID, req.ClientID, extracted)
	if err != nil {
		return nil, err
	}

	// ===== 8. Approve (bypassed when the branch was taken) =====
	decision, err := o.approve(ctx, correlationID, expertReview, score.Score, solvency.Status,
		evaluation, extracted.LoanAmount, &profile.Financials)
	if err != nil {
		return nil, err
	}

	// ===== 9. Notify (best effort) =====
	derivedStatus := o.deriveStatus(expertReview, decision.Approved)
	o.notify(ctx, correlationID, req.ClientID, identity.Name, clientEmail, derivedStatus, decision.SimpleExplanation)

	return &models.LoanApplicationResult{
		CorrelationID: correlationID,
		ClientEmail:   clientEmail,
		Timestamp:     o.now().UTC().Format(time.RFC3339),
		Status:        models.StatusSuccess,
		ExtractedInfo: *extracted,
		CreditAssessment: models.CreditAssessment{
			Score:        score.Score,
			Grade:        score.Grade,
			Status:       solvency.Status,
			Explanations: *explanations,
		},
		PropertyEvaluation: *evaluation,
		FinalDecision:      *decision,
		SimpleExplanation:  decision.SimpleExplanation,
	}, nil
}

func (o *Orchestrator) validateClient(ctx context.Context, correlationID, clientID string) (*models.ClientIdentity, error) {
	ctx, end := o.startStage(ctx, stageValidate, correlationID)
	defer end()

	var identity models.ClientIdentity
	err := o.caller.Call(ctx, collabDirectory, "get_client_identity",
		map[string]string{"client_id": clientID}, &identity)
	if err != nil {
		return nil, o.failStage(stageValidate, err)
	}

	o.completeStage(stageValidate)
	return &identity, nil
}

func (o *Orchestrator) extract(ctx context.Context, correlationID string, req models.LoanApplicationRequest) (*models.ExtractedPropertyInfo, error) {
	ctx, end := o.startStage(ctx, stageExtract, correlationID)
	defer end()

	var extracted models.ExtractedPropertyInfo
	err := o.caller.Call(ctx, collabExtraction, "extract_property_info",
		map[string]string{"client_id": req.ClientID, "request_text": req.RequestText}, &extracted)
	if err != nil {
		return nil, o.failStage(stageExtract, err)
	}

	o.completeStage(stageExtract)
	return &extracted, nil
}

// fetchClientData completes the client profile: the identity from Validate
// plus the financials and credit history fetched here.
func (o *Orchestrator) fetchClientData(ctx context.Context, correlationID, clientID string, identity *models.ClientIdentity) (*models.ClientProfile, error) {
	ctx, end := o.startStage(ctx, stageFetchData, correlationID)
	defer end()

	args := map[string]string{"client_id": clientID}

	var financials models.Financials
	if err := o.caller.Call(ctx, collabDirectory, "get_client_financials", args, &financials); err != nil {
		return nil, o.failStage(stageFetchData, err)
	}

	var history models.CreditHistory
	if err := o.caller.Call(ctx, collabDirectory, "get_client_credit_history", args, &history); err != nil {
		return nil, o.failStage(stageFetchData, err)
	}

	o.completeStage(stageFetchData)
	return &models.ClientProfile{
		Identity:      *identity,
		Financials:    financials,
		CreditHistory: history,
	}, nil
}

func (o *Orchestrator) computeScore(ctx context.Context, correlationID, clientID string, history *models.CreditHistory) (*models.CreditScore, error) {
	ctx, end := o.startStage(ctx, stageScore, correlationID)
	defer end()

	var score models.CreditScore
	err := o.caller.Call(ctx, collabScoring, "compute_credit_score", map[string]interface{}{
		"client_id":      clientID,
		"debt":           history.Debt,
		"late_payments":  history.LatePayments,
		"has_bankruptcy": history.HasBankruptcy,
	}, &score)
	if err != nil {
		return nil, o.failStage(stageScore, err)
	}

	o.completeStage(stageScore)
	return &score, nil
}

func (o *Orchestrator) decideSolvency(ctx context.Context, correlationID string, financials *models.Financials, score int) (*models.SolvencyDecision, error) {
	ctx, end := o.startStage(ctx, stageSolvency, correlationID)
	defer end()

	var solvency models.SolvencyDecision
	err := o.caller.Call(ctx, collabScoring, "decide_solvency", map[string]interface{}{
		"monthly_income":   financials.MonthlyIncome,
		"monthly_expenses": financials.MonthlyExpenses,
		"score":            score,
	}, &solvency)
	if err != nil {
		return nil, o.failStage(stageSolvency, err)
	}

	o.completeStage(stageSolvency)
	return &solvency, nil
}

func (o *Orchestrator) explain(ctx context.Context, correlationID string, score int, financials *models.Financials, history *models.CreditHistory) (*models.Explanations, error) {
	ctx, end := o.startStage(ctx, stageExplain, correlationID)
	defer end()

	var explanations models.Explanations
	err := o.caller.Call(ctx, collabScoring, "generate_explanations", map[string]interface{}{
		"score":            score,
		"monthly_income":   financials.MonthlyIncome,
		"monthly_expenses": financials.MonthlyExpenses,
		"debt":             history.Debt,
		"late_payments":    history.LatePayments,
		"has_bankruptcy":   history.HasBankruptcy,
	}, &explanations)
	if err != nil {
		return nil, o.failStage(stageExplain, err)
	}

	o.completeStage(stageExplain)
	return &explanations, nil
}

// appraise returns the property evaluation and whether the expert-review
// branch was taken. A Property.RegionNotFound fault is absorbed here: the
// evaluation is synthesized at 80% of the requested amount and the saga
// continues on the bypass path.
func (o *Orchestrator) appraise(ctx context.Context, correlationID, clientID string, extracted *models.ExtractedPropertyInfo) (*models.PropertyEvaluation, bool, error) {
	ctx, end := o.startStage(ctx, stageAppraise, correlationID)
	defer end()

	var evaluation models.PropertyEvaluation
	err := o.caller.Call(ctx, collabAppraisal, "evaluate_property", map[string]interface{}{
		"property_address":     extracted.PropertyAddress,
		"property_description": extracted.PropertyDescription,
		"client_id":            clientID,
		"loan_amount":          extracted.LoanAmount,
		"property_surface":     extracted.PropertySurface,
		"construction_year":    extracted.ConstructionYear,
	}, &evaluation)

	if err != nil {
		if f := faults.From(err); f != nil && f.Code == faults.PropertyRegionNotFound {
			o.logger.Warn("unknown region, switching to expert review", map[string]interface{}{
				"correlation_id": correlationID,
				"client_id":      clientID,
			})
			o.completeStage(stageAppraise)
			return &models.PropertyEvaluation{
				EstimatedValue: extracted.LoanAmount * 0.8,
				IsCompliant:    true,
				Reason:         expertReviewReason,
				Status:         models.EvaluationExpertReview,
			}, true, nil
		}
		return nil, false, o.failStage(stageAppraise, err)
	}

	o.completeStage(stageAppraise)
	return &evaluation, false, nil
}

// approve issues the real approval call, or synthesizes the fixed pending
// decision when the expert-review branch was taken.
func (o *Orchestrator) approve(ctx context.Context, correlationID string, expertReview bool, score int, solvencyStatus string, evaluation *models.PropertyEvaluation, loanAmount float64, financials *models.Financials) (*models.ApprovalDecision, error) {
	ctx, end := o.startStage(ctx, stageApprove, correlationID)
	defer end()

	if expertReview {
		o.completeStage(stageApprove)
		return &models.ApprovalDecision{
			Approved:          false,
			Decision:          "EN ATTENTE",
			InterestRate:      0.0,
			Justification:     "Évaluation experte en cours",
			RiskLevel:         models.RiskExpertReview,
			SimpleExplanation: expertReviewExplanation,
		}, nil
	}

	var decision models.ApprovalDecision
	err := o.caller.Call(ctx, collabApproval, "approve_loan", map[string]interface{}{
		"credit_score":       score,
		"solvency_status":    solvencyStatus,
		"property_value":     evaluation.EstimatedValue,
		"loan_amount":        loanAmount,
		"property_compliant": evaluation.IsCompliant,
		"monthly_income":     financials.MonthlyIncome,
		"monthly_expenses":   financials.MonthlyExpenses,
	}, &decision)
	if err != nil {
		return nil, o.failStage(stageApprove, err)
	}

	o.completeStage(stageApprove)
	return &decision, nil
}

// notify delivers the decision notification. Failures are absorbed: they are
// logged and counted but never change the saga outcome.
func (o *Orchestrator) notify(ctx context.Context, correlationID, clientID, clientName, clientEmail, derivedStatus, explanation string) {
	ctx, end := o.startStage(ctx, stageNotify, correlationID)
	defer end()

	var receipt models.NotificationReceipt
	err := o.caller.Call(ctx, collabNotification, "send_notification", map[string]string{
		"correlation_id":     correlationID,
		"client_id":          clientID,
		"client_name":        clientName,
		"client_email":       clientEmail,
		"decision_status":    derivedStatus,
		"simple_explanation": explanation,
	}, &receipt)
	if err != nil {
		metrics.StagesFailed.WithLabelValues(stageNotify, faultCode(err)).Inc()
		o.logger.Warn("notification failed, continuing", map[string]interface{}{
			"correlation_id": correlationID,
			"client_id":      clientID,
			"error":          err.Error(),
		})
		return
	}

	o.completeStage(stageNotify)
}

func (o *Orchestrator) deriveStatus(expertReview, approved bool) string {
	if expertReview {
		return models.DecisionExpertReview
	}
	if approved {
		return models.DecisionApproved
	}
	return models.DecisionRejected
}

// failStage records the failure and passes the error through untouched:
// business faults surface verbatim, transport errors keep their type for the
// gateway's connectivity mapping.
func (o *Orchestrator) failStage(stage string, err error) error {
	metrics.StagesFailed.WithLabelValues(stage, faultCode(err)).Inc()
	return err
}

func (o *Orchestrator) completeStage(stage string) {
	metrics.StagesCompleted.WithLabelValues(stage).Inc()
}

func (o *Orchestrator) startStage(ctx context.Context, stage, correlationID string) (context.Context, func()) {
	start := o.now()
	spanCtx := ctx
	endSpan := func() {}
	if o.obs != nil {
		spanCtx, endSpan = o.obs.StartStage(ctx, stage, correlationID)
	}
	return spanCtx, func() {
		endSpan()
		metrics.StageDuration.WithLabelValues(stage).Observe(o.now().Sub(start).Seconds())
	}
}

func (o *Orchestrator) saveRequest(ctx context.Context, correlationID string, req models.LoanApplicationRequest) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveRequest(ctx, correlationID, req); err != nil {
		o.logger.Warn("request record save failed", map[string]interface{}{
			"correlation_id": correlationID,
			"error":          err.Error(),
		})
	}
}

func (o *Orchestrator) updateStatus(ctx context.Context, correlationID, status string) {
	if o.store == nil {
		return
	}
	if err := o.store.UpdateStatus(ctx, correlationID, status); err != nil {
		o.logger.Warn("request status update failed", map[string]interface{}{
			"correlation_id": correlationID,
			"error":          err.Error(),
		})
	}
}

func (o *Orchestrator) indexResult(ctx context.Context, result *models.LoanApplicationResult) {
	if o.audit == nil {
		return
	}
	if err := o.audit.IndexResult(ctx, result); err != nil {
		o.logger.Warn("audit indexing failed", map[string]interface{}{
			"correlation_id": result.CorrelationID,
			"error":          err.Error(),
		})
	}
}

func (o *Orchestrator) recordOutcome(ctx context.Context, status string, start time.Time) {
	metrics.ApplicationsProcessed.WithLabelValues(status).Inc()
	if o.obs != nil {
		o.obs.RecordApplicationProcessed(ctx, status)
		o.obs.RecordApplicationDuration(ctx, o.now().Sub(start), status)
	}
}

func faultCode(err error) string {
	if f := faults.From(err); f != nil {
		return string(f.Code)
	}
	return "transport"
}

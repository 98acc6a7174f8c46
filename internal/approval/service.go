// internal/approval/service.go

// Package approval implements the approval decision collaborator: the
// LTV/DTI threshold ladder, the risk-based interest rate, and the
// applicant-facing decision wording.
package approval

import (
	"context"
	"fmt"

	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/models"
)

const baseRate = 3.0

var riskPremiums = map[string]float64{
	models.RiskLow:        0.0,
	models.RiskMedium:     0.75,
	models.RiskMediumHigh: 1.5,
	models.RiskHigh:       2.5,
	models.RiskVeryHigh:   4.0,
}

type Service struct {
	logger logger.Logger
}

func NewService(log logger.Logger) *Service {
	return &Service{logger: log}
}

// Approve combines score, solvency, appraisal and cash flow into the final
// underwriting decision with its interest rate.
func (s *Service) Approve(ctx context.Context, creditScore int, solvencyStatus string, propertyValue, loanAmount float64, propertyCompliant bool, income, expenses float64) (*models.ApprovalDecision, error) {
	ltv := 100.0
	if propertyValue > 0 {
		ltv = loanAmount / propertyValue * 100
	}

	dti := 100.0
	if income > 0 {
		dti = expenses / income * 100
	}

	approved, riskLevel, justification := makeDecision(creditScore, solvencyStatus, ltv, dti, propertyCompliant)
	interestRate := calculateInterestRate(creditScore, riskLevel, ltv, dti)
	simpleExplanation := generateExplanation(approved, creditScore, riskLevel, dti, propertyCompliant, justification)

	decisionText := "❌ REJETÉE"
	if approved {
		decisionText = "✅ APPROUVÉE"
	}

	s.logger.Info("approval decided", map[string]interface{}{
		"score":         creditScore,
		"ltv":           ltv,
		"dti":           dti,
		"approved":      approved,
		"risk_level":    riskLevel,
		"interest_rate": interestRate,
	})

	return &models.ApprovalDecision{
		Approved:          approved,
		Decision:          decisionText,
		InterestRate:      interestRate,
		Justification:     justification,
		RiskLevel:         riskLevel,
		SimpleExplanation: simpleExplanation,
	}, nil
}

// makeDecision walks the rejection conditions in priority order, then the
// acceptance ladder. Threshold values are business policy.
func makeDecision(creditScore int, solvencyStatus string, ltv, dti float64, propertyCompliant bool) (bool, string, string) {
	if !propertyCompliant {
		return false, models.RiskVeryHigh, "La propriété ne respecte pas les normes de conformité"
	}

	if creditScore < 600 {
		return false, models.RiskVeryHigh, "Score de crédit insuffisant"
	}

	if solvencyStatus != "solvent" {
		return false, models.RiskHigh, "Profil de solvabilité insuffisant"
	}

	if ltv > 95 {
		return false, models.RiskHigh, "Ratio LTV trop élevé (> 95%)"
	}

	if dti > 50 {
		return false, models.RiskMedium, "Ratio DTI trop élevé (> 50%)"
	}

	switch {
	case creditScore >= 800 && ltv <= 80 && dti <= 35:
		return true, models.RiskLow, "Profil excellent"
	case creditScore >= 700 && ltv <= 85 && dti <= 40:
		return true, models.RiskMedium, "Profil satisfaisant"
	case creditScore >= 650 && ltv <= 90 && dti <= 45:
		return true, models.RiskMediumHigh, "Profil acceptable"
	default:
		return true, models.RiskHigh, "Profil limité - approbation conditionnelle"
	}
}

func calculateInterestRate(creditScore int, riskLevel string, ltv, dti float64) float64 {
	scoreAdj := float64(800-creditScore) / 100 * 0.3

	ltvAdj := (ltv - 80) / 100 * 0.2
	if ltvAdj < 0 {
		ltvAdj = 0
	}

	dtiAdj := (dti - 40) / 100 * 0.15
	if dtiAdj < 0 {
		dtiAdj = 0
	}

	rate := baseRate + riskPremiums[riskLevel] + scoreAdj + ltvAdj + dtiAdj

	if rate < 2.5 {
		rate = 2.5
	}
	if rate > 8.0 {
		rate = 8.0
	}
	return rate
}

func generateExplanation(approved bool, creditScore int, riskLevel string, dti float64, compliant bool, justification string) string {
	if approved {
		switch riskLevel {
		case models.RiskLow:
			return "Votre dossier est approuvé avec une évaluation très favorable. " +
				"Vous bénéficiez d'un taux d'intérêt compétitif basé sur votre excellent profil financier."
		case models.RiskMedium:
			return "Votre dossier est approuvé avec une bonne évaluation. " +
				"Les conditions standard de crédit s'appliquent à votre situation."
		default:
			return "Votre dossier a été approuvé. " +
				"Veuillez consulter les détails pour connaître les conditions spécifiques applicables."
		}
	}

	switch {
	case !compliant:
		return "Malheureusement, la propriété ne répond pas aux critères de conformité requis par notre établissement."
	case creditScore < 600:
		return "Votre score de crédit est actuellement insuffisant. " +
			"Nous vous recommandons de nous recontacter après amélioration de votre profil."
	case dti > 50:
		return "Vos charges mensuelles dépassent le seuil acceptable. " +
			"Réduire vos dépenses permettrait de reconsidérer votre demande."
	default:
		return fmt.Sprintf("Votre demande ne peut pas être approuvée actuellement. Motif: %s. "+
			"Nous restons disponibles pour discuter de solutions alternatives.", justification)
	}
}

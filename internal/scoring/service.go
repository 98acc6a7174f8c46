// internal/scoring/service.go

// Package scoring implements the credit scoring collaborator: the raw score
// formula, the solvency decision and the plain-language explanations handed
// back to the applicant.
package scoring

import (
	"context"
	"fmt"

	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/models"
)

const solvencyScoreThreshold = 700

type Service struct {
	logger logger.Logger
}

func NewService(log logger.Logger) *Service {
	return &Service{logger: log}
}

// ComputeScore applies the score formula
// 1000 - 0.1*debt - 50*latePayments - (bankruptcy ? 200 : 0), clamped to
// [0, 1000].
func (s *Service) ComputeScore(ctx context.Context, clientID string, debt float64, latePayments int, hasBankruptcy bool) (*models.CreditScore, error) {
	penalty := 0.0
	if hasBankruptcy {
		penalty = 200
	}

	score := int(1000 - 0.1*debt - 50*float64(latePayments) - penalty)
	if score < 0 {
		score = 0
	}
	if score > 1000 {
		score = 1000
	}

	grade := gradeFor(score)
	s.logger.Info("credit score computed", map[string]interface{}{
		"client_id": clientID,
		"score":     score,
		"grade":     grade,
	})

	return &models.CreditScore{Score: score, Grade: grade}, nil
}

// DecideSolvency applies the solvency rule: score >= 700 and income strictly
// above expenses.
func (s *Service) DecideSolvency(ctx context.Context, income, expenses float64, score int) (*models.SolvencyDecision, error) {
	isSolvent := score >= solvencyScoreThreshold && income > expenses
	status := "not_solvent"
	if isSolvent {
		status = "solvent"
	}

	s.logger.Info("solvency decided", map[string]interface{}{
		"score":  score,
		"status": status,
	})

	return &models.SolvencyDecision{Status: status, IsSolvent: isSolvent}, nil
}

// Explain produces the three applicant-facing explanation strings. The tone
// and wording are business-owned copy; do not reword casually.
func (s *Service) Explain(ctx context.Context, score int, income, expenses, debt float64, latePayments int, hasBankruptcy bool) (*models.Explanations, error) {
	out := &models.Explanations{}

	switch {
	case score >= 800:
		out.Credit = fmt.Sprintf(
			"✓ Excellent ! Votre score de crédit est très bon (%d/1000). "+
				"Vous avez un historique financier solide et fiable.", score)
	case score >= 700:
		out.Credit = fmt.Sprintf(
			"✓ Satisfaisant. Votre score de crédit est bon (%d/1000). "+
				"Vous êtes dans une position favorable pour obtenir un crédit.", score)
	case score >= 600:
		out.Credit = fmt.Sprintf(
			"⚠ Moyen. Votre score de crédit est acceptable (%d/1000), "+
				"mais il y a des domaines à améliorer.", score)
	default:
		out.Credit = fmt.Sprintf(
			"✗ Faible. Votre score de crédit est bas (%d/1000). "+
				"Nous vous recommandons d'améliorer votre historique de paiement avant de faire une nouvelle demande.", score)
	}

	if income <= expenses {
		out.Income = fmt.Sprintf(
			"✗ Attention. Vos dépenses mensuelles ($%.0f) égalent ou dépassent vos revenus ($%.0f). "+
				"C'est un point de préoccupation pour notre évaluation.", expenses, income)
	} else {
		diff := income - expenses
		pctSavings := 0.0
		if income > 0 {
			pctSavings = diff / income * 100
		}
		out.Income = fmt.Sprintf(
			"✓ Positif. Vous avez une capacité d'épargne de $%.0f par mois (%.1f%% de vos revenus). "+
				"C'est un facteur favorable.", diff, pctSavings)
	}

	switch {
	case hasBankruptcy:
		out.History = fmt.Sprintf(
			"✗ Vous avez une faillite antérieure dans votre dossier. "+
				"C'est un facteur significatif qui affecte notre évaluation. "+
				"Votre dossier crédit actuel: $%.0f de dette.", debt)
	case latePayments > 0:
		out.History = fmt.Sprintf(
			"⚠ Vous avez %d paiement(s) en retard antérieurement. "+
				"Vos dettes actuelles totalisent $%.0f. "+
				"Un paiement à jour depuis est positif.", latePayments, debt)
	default:
		out.History = fmt.Sprintf(
			"✓ Parfait ! Vous n'avez aucun paiement en retard. "+
				"Votre historique est solide (dettes actuelles: $%.0f).", debt)
	}

	return out, nil
}

func gradeFor(score int) string {
	switch {
	case score >= 850:
		return "A+"
	case score >= 800:
		return "A"
	case score >= 700:
		return "B"
	case score >= 600:
		return "C"
	default:
		return "D"
	}
}

// internal/appraisal/service.go

// Package appraisal implements the property appraisal collaborator: market
// valuation from regional comparables, with compliance screening. An address
// outside the covered regions raises Property.RegionNotFound, which the
// orchestrator handles as the expert-review branch rather than an abort.
package appraisal

import (
	"context"
	"fmt"
	"strings"

	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/models"
)

// baselineYear anchors the property age computation; it matches the vintage
// of the comparables in the region table.
const baselineYear = 2024

var riskKeywords = []string{
	"dispute", "damage", "flood", "condemned",
	"non-conforme", "dangereux", "effondrement", "interdit", "zone rouge",
}

type Service struct {
	market MarketSource
	logger logger.Logger
}

func NewService(market MarketSource, log logger.Logger) *Service {
	return &Service{market: market, logger: log}
}

// Evaluate appraises the property from regional comparables, adjusted for
// surface and age, and screens it for compliance problems.
func (s *Service) Evaluate(ctx context.Context, address, description, clientID string, loanAmount float64, surface, year int) (*models.PropertyEvaluation, error) {
	if len(strings.TrimSpace(address)) < 3 {
		return nil, faults.New(faults.PropertyValidationError, "Adresse de propriété invalide")
	}

	city := extractCity(address)

	market, ok, err := s.market.Region(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("failed to load market data for %s: %w", city, err)
	}
	if !ok {
		s.logger.Warn("unknown property region", map[string]interface{}{
			"client_id": clientID,
			"city":      city,
		})
		return nil, faults.Newf(faults.PropertyRegionNotFound,
			"La région '%s' n'est pas dans notre base. Expertise requise.", city)
	}

	avgPrice := 400000.0
	avgSurface := 100.0
	if len(market.Comparables) > 0 {
		var priceSum, surfaceSum float64
		for _, c := range market.Comparables {
			priceSum += c.Price
			surfaceSum += float64(c.Surface)
		}
		avgPrice = priceSum / float64(len(market.Comparables))
		avgSurface = surfaceSum / float64(len(market.Comparables))
	}

	surfaceFactor := 1.0 + (float64(surface)-avgSurface)*0.005

	age := baselineYear - year
	var ageFactor float64
	switch {
	case age <= 5:
		ageFactor = 1.10
	case age <= 15:
		ageFactor = 1.0
	case age <= 30:
		ageFactor = 0.95
	default:
		ageFactor = 0.85
	}

	estimatedValue := float64(int(avgPrice * surfaceFactor * ageFactor))
	isCompliant := checkCompliance(address, year)
	reason := buildExplanation(estimatedValue, city, surface, age, isCompliant)

	s.logger.Info("property appraised", map[string]interface{}{
		"client_id":       clientID,
		"city":            city,
		"estimated_value": estimatedValue,
		"is_compliant":    isCompliant,
	})

	return &models.PropertyEvaluation{
		EstimatedValue: estimatedValue,
		IsCompliant:    isCompliant,
		Reason:         reason,
		Status:         models.EvaluationCompleted,
	}, nil
}

// extractCity takes the first word of the last comma-separated segment, so
// "456 Elm St, NYC" yields "nyc" and "123 Main St, Boston MA" yields
// "boston".
func extractCity(address string) string {
	parts := strings.Split(strings.ToLower(address), ",")
	words := strings.Fields(strings.TrimSpace(parts[len(parts)-1]))
	if len(words) == 0 {
		return "default"
	}
	return words[0]
}

func checkCompliance(address string, year int) bool {
	if year < 1970 {
		return false
	}

	text := strings.ToLower(address)
	for _, keyword := range riskKeywords {
		if strings.Contains(text, keyword) {
			return false
		}
	}

	return true
}

func buildExplanation(value float64, city string, surface, age int, compliant bool) string {
	var ageDesc, ageDetail string
	switch {
	case age <= 5:
		ageDesc, ageDetail = "Propriété très récente en bon état", "+10% pour récence"
	case age <= 15:
		ageDesc, ageDetail = "Propriété moderne, bien entretenue", "Valeur standard pour cet âge"
	case age <= 30:
		ageDesc, ageDetail = "Propriété d'âge moyen", "-5% pour l'âge"
	default:
		ageDesc, ageDetail = "Propriété ancienne", "-15% pour l'ancienneté"
	}

	var surfaceNote string
	switch {
	case surface < 1500:
		surfaceNote = fmt.Sprintf("%d m² (petit)", surface)
	case surface < 2500:
		surfaceNote = fmt.Sprintf("%d m² (moyen)", surface)
	default:
		surfaceNote = fmt.Sprintf("%d m² (grand)", surface)
	}

	complianceText := "✓ La propriété respecte toutes les normes de conformité."
	if !compliant {
		complianceText = "✗ La propriété présente des problèmes de conformité."
	}

	return fmt.Sprintf("Valeur estimée: $%.0f. Région: %s. Surface: %s. État: %s (%s). %s",
		value, capitalize(city), surfaceNote, ageDesc, ageDetail, complianceText)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

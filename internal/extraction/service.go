// internal/extraction/service.go

// Package extraction implements the information extraction collaborator. It
// parses KEY: VALUE lines out of the free-text loan request; every field
// except the applicant name is mandatory.
package extraction

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/models"
)

const (
	minRequestTextLen = 20
	maxLoanDuration   = 40
)

var (
	clientIDPattern    = regexp.MustCompile(`^client-\d{3}$`)
	fullNamePattern    = regexp.MustCompile(`(?im)FULL_NAME\s*:\s*(.+?)(?:\n|$)`)
	loanAmountPattern  = regexp.MustCompile(`(?im)LOAN_AMOUNT\s*:\s*(\d+)`)
	durationPattern    = regexp.MustCompile(`(?im)LOAN_DURATION\s*:\s*(\d+)`)
	addressPattern     = regexp.MustCompile(`(?im)PROPERTY_ADDRESS\s*:\s*(.+?)(?:\n|$)`)
	descriptionPattern = regexp.MustCompile(`(?im)PROPERTY_DESCRIPTION\s*:\s*(.+?)(?:\n|$)`)
	surfacePattern     = regexp.MustCompile(`(?im)PROPERTY_SURFACE\s*:\s*(\d+)`)
	yearPattern        = regexp.MustCompile(`(?im)CONSTRUCTION_YEAR\s*:\s*(\d{4})`)
)

type Service struct {
	logger logger.Logger
}

func NewService(log logger.Logger) *Service {
	return &Service{logger: log}
}

// Extract parses the structured fields out of the request text. Missing
// mandatory fields are reported together, by their user-facing names, in a
// single Property.IncompleteData fault.
func (s *Service) Extract(ctx context.Context, clientID, requestText string) (*models.ExtractedPropertyInfo, error) {
	s.logger.Info("extracting property info", map[string]interface{}{
		"client_id": clientID,
	})

	if len(strings.TrimSpace(requestText)) < minRequestTextLen {
		return nil, faults.New(faults.PropertyValidationError,
			"Texte de demande trop court (minimum 20 caractères)")
	}

	if !clientIDPattern.MatchString(clientID) {
		return nil, faults.New(faults.ClientValidationError,
			"Format clientId invalide: attendu 'client-XXX'")
	}

	text := strings.TrimSpace(requestText)
	info := &models.ExtractedPropertyInfo{
		ClientID:   clientID,
		FullName:   "N/A",
		Confidence: 1.0,
	}
	var missing []string

	if name := extractValue(fullNamePattern, text); name != "" {
		info.FullName = name
	}

	if amount := extractNumber(loanAmountPattern, text); amount > 0 {
		info.LoanAmount = float64(amount)
	} else {
		missing = append(missing, "montant prêt")
	}

	if duration := extractNumber(durationPattern, text); duration > 0 {
		if duration > maxLoanDuration {
			duration = maxLoanDuration
		}
		info.LoanDuration = duration
	} else {
		missing = append(missing, "durée prêt")
	}

	if address := extractValue(addressPattern, text); address != "" {
		info.PropertyAddress = address
	} else {
		missing = append(missing, "adresse propriété")
	}

	if description := extractValue(descriptionPattern, text); description != "" {
		info.PropertyDescription = description
	} else {
		missing = append(missing, "description propriété")
	}

	if surface := extractNumber(surfacePattern, text); surface > 0 {
		info.PropertySurface = surface
	} else {
		missing = append(missing, "surface propriété")
	}

	if year := extractNumber(yearPattern, text); year > 0 {
		info.ConstructionYear = year
	} else {
		missing = append(missing, "année construction")
	}

	if len(missing) > 0 {
		missingStr := strings.Join(missing, ", ")
		s.logger.Warn("extraction incomplete", map[string]interface{}{
			"client_id": clientID,
			"missing":   missingStr,
		})
		return nil, faults.Newf(faults.PropertyIncompleteData,
			"%s. Veuillez fournir tous les champs au format requis.", missingStr)
	}

	return info, nil
}

func extractValue(pattern *regexp.Regexp, text string) string {
	if m := pattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractNumber(pattern *regexp.Regexp, text string) int {
	if m := pattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(m[1])); err == nil {
			return n
		}
	}
	return 0
}

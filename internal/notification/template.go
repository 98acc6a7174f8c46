// internal/notification/template.go
package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

// decisionEmailTemplate is the applicant-facing decision email. The layout
// and copy mirror the reference notification design.
var decisionEmailTemplate = template.Must(template.New("decision").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: {{.Color}}; color: white; padding: 20px; border-radius: 5px; text-align: center; }
        .content { background-color: #f9f9f9; padding: 20px; margin-top: 20px; border-left: 4px solid {{.Color}}; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; text-align: center; border-top: 1px solid #ddd; padding-top: 20px; }
        .status { font-size: 24px; margin: 10px 0; }
        .explanation { margin: 20px 0; padding: 15px; background-color: #fff; border-radius: 3px; }
        .correlation { font-size: 12px; color: #999; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>LoanApp Decision</h1>
            <div class="status">{{.Emoji}} {{.Status}}</div>
        </div>

        <div class="content">
            <p>Bonjour <strong>{{.ClientName}}</strong>,</p>

            <div class="explanation">
                <p>{{.Explanation}}</p>
            </div>

            <p>Si vous avez des questions concernant cette décision, n'hésitez pas à nous contacter.</p>

            <p>Cordialement,<br>
            <strong>LoanApp System</strong></p>
        </div>

        <div class="footer">
            <p>Cet email a été généré automatiquement - Veuillez ne pas répondre à cet email</p>
            <div class="correlation">ID de demande: {{.CorrelationID}}</div>
            <p>&copy; 2025 LoanApp. Tous droits réservés.</p>
        </div>
    </div>
</body>
</html>
`))

type templateData struct {
	ClientName    string
	Status        string
	Explanation   string
	CorrelationID string
	Color         template.CSS
	Emoji         string
}

func subjectFor(status string) string {
	switch status {
	case "APPROVED":
		return "✓ Bonne nouvelle! Votre demande de prêt est APPROUVÉE"
	case "REJECTED":
		return "✗ Décision concernant votre demande de prêt"
	case "EXPERT_REVIEW":
		return "⏳ Votre demande est en cours d'examen"
	default:
		return "Décision concernant votre demande de prêt"
	}
}

func colorFor(status string) template.CSS {
	switch status {
	case "APPROVED":
		return "#28a745"
	case "REJECTED":
		return "#dc3545"
	case "EXPERT_REVIEW":
		return "#ffc107"
	default:
		return "#007bff"
	}
}

func emojiFor(status string) string {
	switch status {
	case "APPROVED":
		return "✓"
	case "REJECTED":
		return "✗"
	case "EXPERT_REVIEW":
		return "⏳"
	default:
		return "•"
	}
}

func renderDecisionEmail(clientName, status, explanation, correlationID string) (string, error) {
	var buf bytes.Buffer
	err := decisionEmailTemplate.Execute(&buf, templateData{
		ClientName:    clientName,
		Status:        status,
		Explanation:   explanation,
		CorrelationID: correlationID,
		Color:         colorFor(status),
		Emoji:         emojiFor(status),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render decision email: %w", err)
	}
	return buf.String(), nil
}

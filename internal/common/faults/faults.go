// Package faults provides the closed fault taxonomy shared by the
// orchestrator and the gateway: domain-prefixed fault codes, the HTTP
// mapping table for external callers, and a last-resort substring
// classifier for codes outside the closed set.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a domain-prefixed fault identifier, e.g. "Property.RegionNotFound".
type Code string

const (
	ClientNotFound        Code = "Client.NotFound"
	ClientValidationError Code = "Client.ValidationError"
	ClientDataError       Code = "Client.DataError"

	PropertyNotFound        Code = "Property.NotFound"
	PropertyValidationError Code = "Property.ValidationError"
	PropertyIncompleteData  Code = "Property.IncompleteData"
	PropertyRegionNotFound  Code = "Property.RegionNotFound"
	PropertyAppraisalError  Code = "Property.AppraisalError"

	BusinessScoringError     Code = "Business.ScoringError"
	BusinessDecisionError    Code = "Business.DecisionError"
	BusinessExplanationError Code = "Business.ExplanationError"

	ApprovalDecisionError Code = "Approval.DecisionError"

	ServerOrchestrationError Code = "Server.OrchestrationError"
	ServerExtractionError    Code = "Server.ExtractionError"
	ServerNotificationError  Code = "Server.NotificationError"
	ServerStorageError       Code = "Server.StorageError"
)

// Synthetic codes used only at the gateway boundary.
const (
	CodeConnectivity Code = "ConnectivityError"
	CodeInternal     Code = "InternalServerError"
	CodeUnknown      Code = "Unknown"
)

// Fault is a structured business error raised by a collaborator or by the
// orchestrator itself. It crosses the RPC boundary verbatim (code + detail).
type Fault struct {
	Code   Code   `json:"fault_code"`
	Detail string `json:"message"`
}

func New(code Code, detail string) *Fault {
	return &Fault{Code: code, Detail: detail}
}

func Newf(code Code, format string, args ...interface{}) *Fault {
	return &Fault{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Detail)
}

// DomainPrefix returns the taxonomy group of the code ("Client", "Property",
// "Business", "Approval", "Server").
func (f *Fault) DomainPrefix() string {
	if i := strings.IndexByte(string(f.Code), '.'); i > 0 {
		return string(f.Code)[:i]
	}
	return string(f.Code)
}

// From extracts a *Fault from an error chain, or nil if the error does not
// carry one.
func From(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return nil
}

// Is lets errors.Is match faults by code.
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	return ok && t.Code == f.Code
}

// mapping binds a known code to an HTTP status and a message template. The
// template receives the fault's detail text.
type mapping struct {
	status  int
	message string
}

var faultTable = map[Code]mapping{
	ClientNotFound:        {404, "Client non trouvé. %s"},
	ClientValidationError: {400, "Identifiant client invalide. %s"},
	ClientDataError:       {500, "Erreur d'accès aux données client. %s"},

	PropertyValidationError: {400, "Adresse de propriété invalide. %s"},
	PropertyIncompleteData:  {400, "Champs manquants : %s"},
	PropertyRegionNotFound:  {202, "La région de la propriété n'est pas reconnue. %s Votre demande sera traitée par nos experts."},
	PropertyAppraisalError:  {400, "Erreur d'évaluation de propriété. %s"},

	BusinessScoringError:     {500, "Erreur de calcul du score de crédit. %s"},
	BusinessDecisionError:    {500, "Erreur d'évaluation de solvabilité. %s"},
	BusinessExplanationError: {500, "Erreur de génération des explications. %s"},

	ApprovalDecisionError: {500, "Erreur lors de la décision d'approbation. %s"},

	ServerOrchestrationError: {500, "Erreur de traitement global. %s"},
	ServerExtractionError:    {400, "Erreur d'extraction des données. %s"},
	ServerNotificationError:  {500, "Erreur d'envoi de notification. %s"},
	ServerStorageError:       {500, "Erreur de sauvegarde de la demande. %s"},
}

// Map converts a fault into the (HTTP status, message, code) triple rendered
// to external callers. It is total and never panics: a nil fault or a code
// outside the closed set still yields a usable triple, classified by the
// substring heuristic kept as a compatibility shim for unmapped codes.
func Map(f *Fault) (status int, message string, code Code) {
	if f == nil {
		return 500, "Erreur de traitement.", CodeUnknown
	}

	if m, ok := faultTable[f.Code]; ok {
		return m.status, fmt.Sprintf(m.message, f.Detail), f.Code
	}

	codeStr := string(f.Code)
	switch {
	case strings.Contains(codeStr, "NotFound"):
		return 404, fmt.Sprintf("Ressource non trouvée. %s", f.Detail), f.Code
	case strings.Contains(codeStr, "ValidationError"):
		return 400, fmt.Sprintf("Données invalides. %s", f.Detail), f.Code
	case strings.Contains(codeStr, "IncompleteData"):
		return 400, fmt.Sprintf("Informations incomplètes. %s", f.Detail), f.Code
	default:
		return 500, fmt.Sprintf("Erreur de traitement. %s", f.Detail), f.Code
	}
}

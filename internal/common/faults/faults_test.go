package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_KnownCodes(t *testing.T) {
	tests := []struct {
		name           string
		fault          *Fault
		expectedStatus int
		contains       string
	}{
		{
			name:           "client not found maps to 404",
			fault:          New(ClientNotFound, "Client 'client-999' non trouvé dans le système."),
			expectedStatus: 404,
			contains:       "client-999",
		},
		{
			name:           "client validation maps to 400",
			fault:          New(ClientValidationError, "Format clientId invalide."),
			expectedStatus: 400,
			contains:       "Identifiant client invalide",
		},
		{
			name:           "incomplete data maps to 400",
			fault:          New(PropertyIncompleteData, "montant prêt, durée prêt"),
			expectedStatus: 400,
			contains:       "Champs manquants",
		},
		{
			name:           "region not found maps to 202",
			fault:          New(PropertyRegionNotFound, "La région 'miami' n'est pas dans notre base."),
			expectedStatus: 202,
			contains:       "experts",
		},
		{
			name:           "scoring error maps to 500",
			fault:          New(BusinessScoringError, "division par zéro"),
			expectedStatus: 500,
			contains:       "score de crédit",
		},
		{
			name:           "orchestration error maps to 500",
			fault:          New(ServerOrchestrationError, "boom"),
			expectedStatus: 500,
			contains:       "Erreur de traitement global",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message, code := Map(tt.fault)
			assert.Equal(t, tt.expectedStatus, status)
			assert.Contains(t, message, tt.contains)
			assert.Equal(t, tt.fault.Code, code)
		})
	}
}

func TestMap_HeuristicFallback(t *testing.T) {
	tests := []struct {
		code           Code
		expectedStatus int
	}{
		{"Request.NotFound", 404},
		{"Payload.ValidationError", 400},
		{"Form.IncompleteData", 400},
		{"Weird.Unclassified", 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			status, message, code := Map(New(tt.code, "détail"))
			assert.Equal(t, tt.expectedStatus, status)
			assert.Contains(t, message, "détail")
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestMap_NilFault(t *testing.T) {
	status, message, code := Map(nil)
	assert.Equal(t, 500, status)
	assert.NotEmpty(t, message)
	assert.Equal(t, CodeUnknown, code)
}

func TestFrom(t *testing.T) {
	f := New(ClientNotFound, "absent")
	wrapped := fmt.Errorf("stage validate: %w", f)

	got := From(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ClientNotFound, got.Code)

	assert.Nil(t, From(errors.New("plain error")))
	assert.Nil(t, From(nil))
}

func TestDomainPrefix(t *testing.T) {
	assert.Equal(t, "Property", New(PropertyRegionNotFound, "").DomainPrefix())
	assert.Equal(t, "ConnectivityError", New(CodeConnectivity, "").DomainPrefix())
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(PropertyRegionNotFound, "région inconnue"))
	assert.True(t, errors.Is(err, New(PropertyRegionNotFound, "")))
	assert.False(t, errors.Is(err, New(PropertyValidationError, "")))
}

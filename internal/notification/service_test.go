package notification

import (
	"context"
	"errors"
	"testing"

	"loan-orchestrator/internal/common/config"
	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func emailEnabledConfig() config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "loanapp@example.com"
	cfg.Email.SenderName = "LoanApp System"
	return cfg
}

// ==========================
// Tests
// ==========================

func TestSendDeliversEmail(t *testing.T) {
	emailer := new(MockEmailSender)
	emailer.On("SendEmail", mock.Anything, mock.MatchedBy(func(input *ses.SendEmailInput) bool {
		return len(input.Destination.ToAddresses) == 1 &&
			input.Destination.ToAddresses[0] == "alice.smith@example.com"
	})).Return(&ses.SendEmailOutput{}, nil)

	svc := NewService(emailEnabledConfig(), emailer, nil, logger.NewTestLogger(t))

	receipt, err := svc.Send(context.Background(), "ABCD1234", "client-002",
		"Alice Smith", "alice.smith@example.com", "APPROVED", "Votre dossier est approuvé.")

	require.NoError(t, err)
	assert.Equal(t, "NOTIF-ABCD1234", receipt.NotificationID)
	assert.Equal(t, "SENT", receipt.Status)
	assert.Equal(t, "alice.smith@example.com", receipt.Recipient)
	emailer.AssertExpectations(t)
}

func TestSendSimulationMode(t *testing.T) {
	var cfg config.NotificationConfig

	svc := NewService(cfg, nil, nil, logger.NewTestLogger(t))

	receipt, err := svc.Send(context.Background(), "ABCD1234", "client-002",
		"Alice Smith", "alice.smith@example.com", "REJECTED", "Score insuffisant.")

	require.NoError(t, err)
	assert.Equal(t, "SENT", receipt.Status)
}

func TestSendEmailFailureRaisesNotificationFault(t *testing.T) {
	emailer := new(MockEmailSender)
	emailer.On("SendEmail", mock.Anything, mock.Anything).
		Return(nil, errors.New("ses throttled"))

	svc := NewService(emailEnabledConfig(), emailer, nil, logger.NewTestLogger(t))

	_, err := svc.Send(context.Background(), "ABCD1234", "client-002",
		"Alice Smith", "alice.smith@example.com", "APPROVED", "ok")

	fault := faults.From(err)
	require.NotNil(t, fault)
	assert.Equal(t, faults.ServerNotificationError, fault.Code)
	assert.Contains(t, fault.Detail, "ses throttled")
}

func TestSendPublishesDecisionEvent(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(input *sns.PublishInput) bool {
		return *input.TopicArn == "arn:aws:sns:eu-west-1:000000000000:loan-decisions"
	})).Return(&sns.PublishOutput{}, nil)

	cfg := config.NotificationConfig{}
	cfg.SNS.Enabled = true
	cfg.SNS.TopicARN = "arn:aws:sns:eu-west-1:000000000000:loan-decisions"

	svc := NewService(cfg, nil, publisher, logger.NewTestLogger(t))

	_, err := svc.Send(context.Background(), "ABCD1234", "client-002",
		"Alice Smith", "alice.smith@example.com", "APPROVED", "ok")

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestSendPublishFailureIsAbsorbed(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).
		Return(nil, errors.New("topic gone"))

	cfg := config.NotificationConfig{}
	cfg.SNS.Enabled = true
	cfg.SNS.TopicARN = "arn:aws:sns:eu-west-1:000000000000:loan-decisions"

	svc := NewService(cfg, nil, publisher, logger.NewTestLogger(t))

	receipt, err := svc.Send(context.Background(), "ABCD1234", "client-002",
		"Alice Smith", "alice.smith@example.com", "APPROVED", "ok")

	require.NoError(t, err)
	assert.Equal(t, "SENT", receipt.Status)
}

func TestRenderDecisionEmail(t *testing.T) {
	html, err := renderDecisionEmail("Alice Smith", "APPROVED", "Votre dossier est approuvé.", "ABCD1234")

	require.NoError(t, err)
	assert.Contains(t, html, "Alice Smith")
	assert.Contains(t, html, "APPROVED")
	assert.Contains(t, html, "ABCD1234")
	assert.Contains(t, html, "#28a745")
}

func TestSubjectPerStatus(t *testing.T) {
	assert.Contains(t, subjectFor("APPROVED"), "APPROUVÉE")
	assert.Contains(t, subjectFor("REJECTED"), "Décision")
	assert.Contains(t, subjectFor("EXPERT_REVIEW"), "examen")
	assert.Equal(t, "Décision concernant votre demande de prêt", subjectFor("SOMETHING_ELSE"))
}

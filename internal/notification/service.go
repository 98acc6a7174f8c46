// internal/notification/service.go

// Package notification implements the notification collaborator: it renders
// the decision email and delivers it over SES, or logs it in simulation mode
// when email delivery is disabled. Decision events can additionally be
// published to an SNS topic.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"loan-orchestrator/internal/common/config"
	"loan-orchestrator/internal/common/faults"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/models"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// EventPublisher is satisfied by aws.SNSClient.
type EventPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Service struct {
	cfg       config.NotificationConfig
	emailer   EmailSender
	publisher EventPublisher
	logger    logger.Logger
}

// NewService builds the notification service. emailer and publisher may be
// nil; delivery then runs in simulation mode regardless of configuration.
func NewService(cfg config.NotificationConfig, emailer EmailSender, publisher EventPublisher, log logger.Logger) *Service {
	return &Service{cfg: cfg, emailer: emailer, publisher: publisher, logger: log}
}

// Send renders and delivers the decision notification. Delivery problems are
// raised as Server.NotificationError; the caller decides whether that aborts
// anything (the orchestrator absorbs it).
func (s *Service) Send(ctx context.Context, correlationID, clientID, clientName, clientEmail, decisionStatus, explanation string) (*models.NotificationReceipt, error) {
	s.logger.Info("sending decision notification", map[string]interface{}{
		"correlation_id": correlationID,
		"client_id":      clientID,
		"status":         decisionStatus,
	})

	subject := subjectFor(decisionStatus)
	htmlBody, err := renderDecisionEmail(clientName, decisionStatus, explanation, correlationID)
	if err != nil {
		return nil, faults.Newf(faults.ServerNotificationError, "Notification failed: %v", err)
	}

	if s.cfg.Email.Enabled && s.emailer != nil {
		if err := s.sendEmail(ctx, clientEmail, subject, htmlBody); err != nil {
			return nil, faults.Newf(faults.ServerNotificationError, "Notification failed: %v", err)
		}
		s.logger.Info("decision email delivered", map[string]interface{}{
			"correlation_id": correlationID,
			"recipient":      clientEmail,
		})
	} else {
		s.logger.Info("simulation mode, email not sent", map[string]interface{}{
			"correlation_id": correlationID,
			"recipient":      clientEmail,
			"subject":        subject,
			"status":         decisionStatus,
		})
	}

	s.publishEvent(ctx, correlationID, clientID, decisionStatus)

	return &models.NotificationReceipt{
		NotificationID: fmt.Sprintf("NOTIF-%s", correlationID),
		Status:         "SENT",
		Recipient:      clientEmail,
		Message:        fmt.Sprintf("Notification %s envoyée à %s", decisionStatus, clientEmail),
	}, nil
}

func (s *Service) sendEmail(ctx context.Context, recipient, subject, htmlBody string) error {
	from := fmt.Sprintf("%s <%s>", s.cfg.Email.SenderName, s.cfg.Email.FromEmail)

	_, err := s.emailer.SendEmail(ctx, &ses.SendEmailInput{
		Source: awssdk.String(from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{recipient},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{
				Data:    awssdk.String(subject),
				Charset: awssdk.String("UTF-8"),
			},
			Body: &sestypes.Body{
				Html: &sestypes.Content{
					Data:    awssdk.String(htmlBody),
					Charset: awssdk.String("UTF-8"),
				},
			},
		},
	})
	return err
}

// publishEvent pushes the decision event to SNS. Best effort: a publish
// failure is logged and never fails the notification.
func (s *Service) publishEvent(ctx context.Context, correlationID, clientID, decisionStatus string) {
	if !s.cfg.SNS.Enabled || s.publisher == nil {
		return
	}

	event, err := json.Marshal(map[string]string{
		"correlation_id": correlationID,
		"client_id":      clientID,
		"status":         decisionStatus,
	})
	if err != nil {
		return
	}

	_, err = s.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(s.cfg.SNS.TopicARN),
		Subject:  awssdk.String("loan.decision"),
		Message:  awssdk.String(string(event)),
	})
	if err != nil {
		s.logger.Warn("decision event publish failed", map[string]interface{}{
			"correlation_id": correlationID,
			"error":          err.Error(),
		})
	}
}

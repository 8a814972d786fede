package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"portal/internal/common"
	"portal/internal/config"
	"portal/internal/models"
	"portal/internal/repositories"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MailDispatcher delivers a support message and returns the provider response for audit
type MailDispatcher interface {
	Send(ctx context.Context, to, replyTo string, msg *models.Message) (json.RawMessage, error)
}

type sesDispatcher struct {
	client *ses.SES
	sender string
}

// NewMailDispatcher uses SES when a region is configured, otherwise it only logs
func NewMailDispatcher(cfg config.SESConfig, logger *zap.Logger) (MailDispatcher, error) {
	if cfg.Region == "" {
		logger.Info("ses not configured, support messages will be logged only")
		return &logDispatcher{logger: logger, sender: cfg.Sender}, nil
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.Region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &sesDispatcher{client: ses.New(sess), sender: cfg.Sender}, nil
}

func (d *sesDispatcher) Send(ctx context.Context, to, replyTo string, msg *models.Message) (json.RawMessage, error) {
	input := &ses.SendEmailInput{
		Source:      aws.String(d.sender),
		Destination: &ses.Destination{ToAddresses: []*string{aws.String(to)}},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String("UTF-8"), Data: aws.String(msg.Subject)},
			Body: &ses.Body{
				Text: &ses.Content{Charset: aws.String("UTF-8"), Data: aws.String(msg.Body)},
			},
		},
	}
	if replyTo != "" {
		input.ReplyToAddresses = []*string{aws.String(replyTo)}
	}

	out, err := d.client.SendEmailWithContext(ctx, input)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{
		"provider":   "ses",
		"message_id": aws.StringValue(out.MessageId),
		"from":       d.sender,
		"to":         to,
	})
}

type logDispatcher struct {
	logger *zap.Logger
	sender string
}

func (d *logDispatcher) Send(ctx context.Context, to, replyTo string, msg *models.Message) (json.RawMessage, error) {
	d.logger.Info("support message",
		zap.String("message_id", msg.ID.String()),
		zap.String("tenant", msg.TenantSlug),
		zap.String("to", to),
		zap.String("subject", msg.Subject),
	)
	return json.Marshal(map[string]string{
		"provider":   "log",
		"message_id": "msg_" + msg.ID.String(),
		"from":       d.sender,
		"to":         to,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
}

type MessageService interface {
	Send(ctx context.Context, session *models.Session, tenantSlug string, req *SendMessageRequest) (*models.Message, error)
	List(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.Message, error)
}

type messageService struct {
	messageRepo repositories.MessageRepository
	tenants     TenantService
	dispatcher  MailDispatcher
	events      EventPublisher
	recipient   string
	logger      *zap.Logger
}

type SendMessageRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewMessageService sends to recipient when set, otherwise to the tenant's support address
func NewMessageService(messageRepo repositories.MessageRepository, tenants TenantService, dispatcher MailDispatcher, events EventPublisher, recipient string, logger *zap.Logger) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		tenants:     tenants,
		dispatcher:  dispatcher,
		events:      events,
		recipient:   recipient,
		logger:      logger,
	}
}

func (s *messageService) Send(ctx context.Context, session *models.Session, tenantSlug string, req *SendMessageRequest) (*models.Message, error) {
	subject := strings.TrimSpace(req.Subject)
	body := strings.TrimSpace(req.Body)
	if subject == "" || body == "" {
		return nil, common.ValidationError("subject and body are required")
	}

	tenant, err := s.tenants.GetBySlug(ctx, tenantSlug)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:             uuid.New(),
		UserID:         session.UserID,
		TenantSlug:     tenantSlug,
		Subject:        subject,
		Body:           body,
		DeliveryStatus: models.DeliveryPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	to := s.recipient
	if to == "" {
		to = tenant.SupportEmail
	}

	raw, sendErr := s.dispatcher.Send(ctx, to, session.Email, msg)
	msg.DeliveryStatus = models.DeliverySent
	if sendErr != nil {
		s.logger.Error("support message delivery failed", zap.String("message_id", msg.ID.String()), zap.Error(sendErr))
		msg.DeliveryStatus = models.DeliveryFailed
		raw, _ = json.Marshal(map[string]string{"error": sendErr.Error()})
	}
	msg.Raw = raw

	if err := s.messageRepo.UpdateDelivery(ctx, msg.ID, msg.DeliveryStatus, raw); err != nil {
		return nil, err
	}

	if msg.DeliveryStatus == models.DeliverySent {
		s.events.Publish(ctx, Event{
			Type:       EventMessageSent,
			TenantSlug: tenantSlug,
			UserID:     session.UserID.String(),
			OccurredAt: msg.CreatedAt,
			Data:       map[string]string{"message_id": msg.ID.String(), "subject": subject},
		})
	}
	return msg, nil
}

func (s *messageService) List(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.Message, error) {
	return s.messageRepo.ListByUser(ctx, userID, tenantSlug)
}

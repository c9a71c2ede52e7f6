package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edubridge-ng/portal-api/internal/models"
	"github.com/edubridge-ng/portal-api/pkg/jobs"
)

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// RecipientNotification is the payload delivered per recipient after a
// publish.
type RecipientNotification struct {
	Recipient models.Recipient `json:"recipient"`
	Subject   string           `json:"subject"`
	Body      string           `json:"body"`
	RecordID  string           `json:"record_id"`
}

// NotificationService fans out per-recipient notifications on the job
// queue so publishing never blocks on delivery.
type NotificationService struct {
	queue  jobDispatcher
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(queue jobDispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, logger: logger}
}

// NotifyPublished enqueues one delivery per recipient of a freshly
// published report card. Enqueue failures are logged, not propagated:
// the publish has already been applied.
func (s *NotificationService) NotifyPublished(ctx context.Context, card *models.ReportCard) {
	if s == nil || s.queue == nil || card == nil {
		return
	}
	for _, recipient := range card.PublishedTo {
		payload := RecipientNotification{
			Recipient: recipient,
			Subject:   fmt.Sprintf("%s report card published", card.StudentName),
			Body:      fmt.Sprintf("The %s %s report card for %s is now available.", card.Term, card.Session, card.StudentName),
			RecordID:  card.ID,
		}
		if err := s.queue.Enqueue(jobs.Job{ID: card.ID + ":" + recipient.ParentID, Type: "recipient_notification", Payload: payload}); err != nil {
			s.logger.Warn("failed to enqueue recipient notification",
				zap.String("record_id", card.ID),
				zap.String("parent_id", recipient.ParentID),
				zap.Error(err))
		}
	}
}

// DeliveryHandler returns the queue handler that performs delivery.
// There is no mail transport in this service; delivery is a structured
// log line the gateway in front of us tails.
func DeliveryHandler(logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(RecipientNotification)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		logger.Info("notification delivered",
			zap.String("record_id", notification.RecordID),
			zap.String("parent_id", notification.Recipient.ParentID),
			zap.String("email", notification.Recipient.Email),
			zap.String("subject", notification.Subject))
		return nil
	}
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/acadplan/acadplan-api/internal/models"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string, readAt time.Time) error
}

// NotificationService delivers and lists in-app notifications.
type NotificationService struct {
	repo   notificationRepository
	logger *zap.Logger
}

// NewNotificationService instantiates NotificationService.
func NewNotificationService(repo notificationRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// Notify records a notification for a user. Delivery failures are logged and
// swallowed; a missed notification never fails the triggering operation.
func (s *NotificationService) Notify(ctx context.Context, institutionID, userID string, kind models.NotificationKind, title, body string) {
	notification := models.Notification{
		InstitutionID: institutionID,
		UserID:        userID,
		Kind:          kind,
		Title:         title,
		Body:          body,
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		s.logger.Warn("failed to deliver notification",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

// ListMine returns the caller's notifications with an unread count.
func (s *NotificationService) ListMine(ctx context.Context, userID string, limit int) ([]models.Notification, int, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, unread, nil
}

// MarkRead stamps one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.repo.MarkRead(ctx, notificationID, userID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

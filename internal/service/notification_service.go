package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-service/internal/auth"
	"github.com/spec-kit/shift-service/internal/config"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/events"
	"github.com/spec-kit/shift-service/internal/observability"
	"github.com/spec-kit/shift-service/internal/repository"
)

// Publisher pushes a payload to a realtime channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationService turns notification intents into stored, published notifications.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	publisher     Publisher
	dispatcher    events.Dispatcher
	gate          *auth.Gate
	metrics       *observability.Metrics
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Publisher        Publisher
	Dispatcher       events.Dispatcher
	Gate             *auth.Gate
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	Config           config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		publisher:     deps.Publisher,
		dispatcher:    deps.Dispatcher,
		gate:          deps.Gate,
		metrics:       deps.Metrics,
		logger:        loggerOrNop(deps.Logger),
		cfg:           deps.Config,
	}
}

// RegisterHandlers subscribes to every event that may carry intents.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.handleEvent)
	}
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	if len(event.Intents) == 0 {
		return nil
	}
	err := n.Deliver(ctx, event.Intents)
	if err != nil {
		n.logger.Warn("notification delivery incomplete",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("shift_id", event.ShiftID),
			zap.Error(err))
	}
	return err
}

// Deliver resolves each intent's audience, stores one notification per
// recipient and publishes the stored rows. Every failure is collected.
func (n *NotificationService) Deliver(ctx context.Context, intents []domain.NotificationIntent) error {
	var errs error
	var pending []domain.Notification

	for _, intent := range intents {
		recipients, err := n.recipients(ctx, intent)
		if err != nil {
			n.metrics.RecordNotificationFailure("resolve")
			errs = multierr.Append(errs, fmt.Errorf("resolve %s audience: %w", intent.Audience, err))
			continue
		}
		for _, userID := range recipients {
			pending = append(pending, domain.Notification{
				UserID:  userID,
				Type:    intent.Type,
				Title:   intent.Title,
				Message: intent.Message,
				ShiftID: intent.ShiftID,
			})
		}
	}
	if len(pending) == 0 {
		return errs
	}

	if err := n.notifications.CreateMany(ctx, pending); err != nil {
		n.metrics.RecordNotificationFailure("persist")
		return multierr.Append(errs, fmt.Errorf("persist notifications: %w", err))
	}
	n.metrics.RecordNotificationsCreated(len(pending))

	if n.cfg.RedisPublish && n.publisher != nil {
		for i := range pending {
			if err := n.publish(ctx, &pending[i]); err != nil {
				n.metrics.RecordNotificationFailure("publish")
				errs = multierr.Append(errs, err)
			}
		}
	}
	return errs
}

// List returns the caller's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, actor domain.Identity, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if err := n.gate.Authorize(actor, auth.OpNotificationList); err != nil {
		return nil, err
	}
	result, err := n.notifications.ListForUser(ctx, actor.UserID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []domain.Notification{}
	}
	return result, nil
}

// MarkAllRead marks every unread notification of the caller read.
func (n *NotificationService) MarkAllRead(ctx context.Context, actor domain.Identity) (int64, error) {
	if err := n.gate.Authorize(actor, auth.OpNotificationRead); err != nil {
		return 0, err
	}
	return n.notifications.MarkAllRead(ctx, actor.UserID)
}

func (n *NotificationService) recipients(ctx context.Context, intent domain.NotificationIntent) ([]string, error) {
	var roles []domain.Role
	switch intent.Audience {
	case domain.AudienceUser:
		if intent.UserID == "" {
			return nil, fmt.Errorf("user intent without recipient")
		}
		return []string{intent.UserID}, nil
	case domain.AudienceStoreStaff:
		roles = []domain.Role{domain.RoleAdmin, domain.RoleManager}
	case domain.AudienceStoreAdmins:
		roles = []domain.Role{domain.RoleAdmin}
	default:
		return nil, fmt.Errorf("unknown audience %q", intent.Audience)
	}

	users, err := n.users.ListActiveByStore(ctx, intent.StoreID, roles...)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids, nil
}

type realtimeNotification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	ShiftID   *string   `json:"shiftId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n *NotificationService) publish(ctx context.Context, notification *domain.Notification) error {
	payload, err := json.Marshal(realtimeNotification{
		ID:        notification.ID,
		Type:      string(notification.Type),
		Title:     notification.Title,
		Message:   notification.Message,
		ShiftID:   notification.ShiftID,
		CreatedAt: notification.CreatedAt,
	})
	if err != nil {
		return err
	}
	channel := UserChannel(n.cfg.ChannelPrefix, notification.UserID)
	if err := n.publisher.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// UserChannel names the realtime channel of a user.
func UserChannel(prefix, userID string) string {
	if prefix == "" {
		prefix = "shifts"
	}
	return prefix + ":user:" + userID
}

package service

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/postroute/postal-service/internal/events"
	"github.com/postroute/postal-service/internal/observability"
)

// MessagePublisher writes keyed messages to a topic.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// NotificationService reacts to committed workflow events: it logs them,
// counts them and forwards them to the message broker when one is configured.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	publisher  MessagePublisher
	topic      string
}

// NotificationDependencies bundles collaborators. Publisher may be nil.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Publisher  MessagePublisher
	Topic      string
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		publisher:  deps.Publisher,
		topic:      deps.Topic,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.MailEventTypes {
		n.dispatcher.Subscribe(eventType, n.handleMailEvent)
	}
	n.dispatcher.Subscribe(events.EventActivitiesExpired, n.handleActivitiesExpired)
}

func (n *NotificationService) handleMailEvent(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("mail_id", event.MailID),
		zap.String("user", event.Actor.UserName),
	}
	if payload, ok := event.Payload.(events.MailTransitionPayload); ok {
		fields = append(fields,
			zap.String("old_state", string(payload.OldState)),
			zap.String("new_state", string(payload.NewState)))
		n.metrics.RecordTransition(string(payload.Activity), string(payload.NewState))
	}
	n.logger.Info("mail transition", fields...)
	return n.forward(ctx, event)
}

func (n *NotificationService) handleActivitiesExpired(ctx context.Context, event events.Event) error {
	n.metrics.RecordActivityExpiry()
	n.logger.Info("activities expired", zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.publisher == nil {
		return nil
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := []byte(strconv.FormatInt(event.MailID, 10))
	if err := n.publisher.Publish(ctx, n.topic, key, value); err != nil {
		n.metrics.RecordNotification(false)
		n.logger.Warn("mail event not published", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}
	n.metrics.RecordNotification(true)
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/events"
	"github.com/postroute/postal-service/internal/listing"
	"github.com/postroute/postal-service/internal/repository"
)

// ActivityService reads and expires the activity log. Entries are written by
// MailService only.
type ActivityService struct {
	activities repository.ActivityRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewActivityService constructs the service.
func NewActivityService(store repository.Store, dispatcher events.Dispatcher) *ActivityService {
	return &ActivityService{
		activities: store.Activities(),
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of the entries matching query, most recent first
// unless opts ask for another order.
func (s *ActivityService) List(ctx context.Context, query repository.ActivityQuery, opts listing.Options) (*listing.Page[domain.ActivityEntry], error) {
	if err := ActivityListing.Validate(opts); err != nil {
		return nil, err
	}
	entries, err := s.activities.List(ctx, query)
	if err != nil {
		return nil, err
	}
	return ActivityListing.Apply(entries, opts)
}

// DeleteBefore removes every entry older than cutoff.
func (s *ActivityService) DeleteBefore(ctx context.Context, cutoff time.Time) error {
	if err := s.activities.DeleteBefore(ctx, cutoff); err != nil {
		return err
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventActivitiesExpired,
			Timestamp: s.now(),
			Payload:   events.ActivitiesExpiredPayload{Cutoff: cutoff},
		})
	}
	return nil
}

// ExpireOlderThan removes entries older than maxAge.
func (s *ActivityService) ExpireOlderThan(ctx context.Context, maxAge time.Duration) error {
	return s.DeleteBefore(ctx, s.now().Add(-maxAge))
}

package memory

import (
	"context"
	"slices"
	"time"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/repository"
)

type activityRepo struct {
	s *Store
}

func (r *activityRepo) Create(_ context.Context, entry *domain.ActivityEntry) error {
	defer r.s.lock()()
	if _, ok := r.s.d.mail[entry.MailID]; !ok {
		return repository.ErrReferenced
	}
	entry.ID = r.s.d.id()
	if entry.Time.IsZero() {
		entry.Time = r.s.now()
	}
	stored := *entry
	stored.BranchID = copyInt(entry.BranchID)
	stored.CarID = copyInt(entry.CarID)
	r.s.d.activities = append(r.s.d.activities, stored)
	return nil
}

func (r *activityRepo) List(_ context.Context, query repository.ActivityQuery) ([]domain.ActivityEntry, error) {
	defer r.s.lock()()
	result := []domain.ActivityEntry{}
	for _, e := range r.s.d.activities {
		if !query.Matches(&e) {
			continue
		}
		e.BranchID = copyInt(e.BranchID)
		e.CarID = copyInt(e.CarID)
		result = append(result, e)
	}
	slices.SortStableFunc(result, func(a, b domain.ActivityEntry) int {
		if c := b.Time.Compare(a.Time); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return result, nil
}

func (r *activityRepo) DeleteBefore(_ context.Context, cutoff time.Time) error {
	defer r.s.lock()()
	r.s.d.activities = slices.DeleteFunc(r.s.d.activities, func(e domain.ActivityEntry) bool {
		return e.Time.Before(cutoff)
	})
	return nil
}

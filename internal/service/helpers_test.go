package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/events"
	"github.com/postroute/postal-service/internal/listing"
	"github.com/postroute/postal-service/internal/repository"
	"github.com/postroute/postal-service/internal/repository/memory"
)

var errCommit = errors.New("commit failed")

// failingCommitStore runs the unit of work and then reports a failed commit.
type failingCommitStore struct {
	repository.Store
}

func (s failingCommitStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return errCommit
	})
}

// countingStore records how often mail is listed.
type countingStore struct {
	repository.Store
	mailLists int
}

type countingMail struct {
	repository.MailRepository
	calls *int
}

func (m countingMail) List(ctx context.Context, q repository.MailQuery) ([]domain.MailItem, error) {
	*m.calls++
	return m.MailRepository.List(ctx, q)
}

func (s *countingStore) Mail() repository.MailRepository {
	return countingMail{MailRepository: s.Store.Mail(), calls: &s.mailLists}
}

type recordingDispatcher struct {
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type world struct {
	store   *memory.Store
	central *domain.Branch
	north   *domain.Branch
	van     *domain.Car
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clock := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	w := &world{
		store:   store,
		central: &domain.Branch{Name: "Central", Address: "1 Main St"},
		north:   &domain.Branch{Name: "North", Address: "9 Hill Rd"},
		van:     &domain.Car{Model: "Transit", Number: "PX-100"},
	}
	require.NoError(t, store.Branches().Create(ctx, w.central))
	require.NoError(t, store.Branches().Create(ctx, w.north))
	require.NoError(t, store.Cars().Create(ctx, w.van))
	return w
}

func actorAt(name string, branch *domain.Branch, car *domain.Car) Actor {
	return Actor{
		User:   &domain.User{ID: 100, Username: name, FirstName: name},
		Branch: branch,
		Car:    car,
	}
}

func page(size int) listing.Options {
	return listing.Options{Page: 1, PageSize: size}
}

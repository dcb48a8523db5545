package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/events"
	"github.com/postroute/postal-service/internal/repository"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

// Workflow operation names, reported in WorkflowError.Op.
const (
	OpCreate  = "create"
	OpStock   = "stock"
	OpLoad    = "load"
	OpUnload  = "unload"
	OpDeliver = "deliver"
)

// MailService runs the mail lifecycle. Every transition updates the item and
// appends one activity entry in a single transaction.
type MailService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	now        func() time.Time
}

// MailDependencies bundles collaborators for the mail service.
type MailDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
}

// NewMailService constructs the service.
func NewMailService(deps MailDependencies) *MailService {
	return &MailService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateMailInput describes a mail item handed in at the counter.
type CreateMailInput struct {
	PersonFrom          string
	PersonTo            string
	AddressTo           string
	DestinationBranchID int64
}

// Create registers a new item at the actor's branch.
func (s *MailService) Create(ctx context.Context, actor Actor, input CreateMailInput) (*domain.MailItem, error) {
	if actor.Branch == nil {
		return nil, precondition(OpCreate, 0, "no branch selected")
	}
	input.PersonFrom = strings.TrimSpace(input.PersonFrom)
	input.PersonTo = strings.TrimSpace(input.PersonTo)
	input.AddressTo = strings.TrimSpace(input.AddressTo)
	details := map[string]any{}
	if input.PersonFrom == "" {
		details["person_from"] = "required"
	}
	if input.PersonTo == "" {
		details["person_to"] = "required"
	}
	if input.AddressTo == "" {
		details["address_to"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid mail item", details)
	}

	mail := &domain.MailItem{
		PersonFrom:          input.PersonFrom,
		PersonTo:            input.PersonTo,
		AddressTo:           input.AddressTo,
		CurrentBranchID:     actor.branchID(),
		SourceBranchID:      actor.Branch.ID,
		DestinationBranchID: input.DestinationBranchID,
		State:               domain.MailStateCreated,
	}

	entry := &domain.ActivityEntry{
		Type:     domain.ActivityCreated,
		UserName: actor.name(),
		BranchID: actor.branchID(),
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		destination, err := tx.Branches().GetByID(ctx, input.DestinationBranchID)
		if err != nil {
			return storeError(err, "destination branch", input.DestinationBranchID)
		}
		if err := tx.Mail().Create(ctx, mail); err != nil {
			return err
		}
		entry.MailID = mail.ID
		entry.Time = s.now()
		entry.Message = fmt.Sprintf("Mail #%d registered at %s for delivery to %s", mail.ID, actor.Branch.Name, destination.Name)
		return tx.Activities().Create(ctx, entry)
	})
	if err != nil {
		return nil, workflowFailure(OpCreate, mail.ID, err)
	}

	created, err := s.Get(ctx, mail.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, actor, created, "", entry)
	return created, nil
}

// Stock places an item that sits in the actor's branch on a shelf.
func (s *MailService) Stock(ctx context.Context, actor Actor, id int64, shelf string) (*domain.MailItem, error) {
	shelf = strings.TrimSpace(shelf)
	return s.transition(ctx, actor, OpStock, id, func(m *domain.MailItem) (*domain.ActivityEntry, error) {
		if actor.Branch == nil {
			return nil, precondition(OpStock, id, "no branch selected")
		}
		if shelf == "" {
			return nil, precondition(OpStock, id, "shelf address is required")
		}
		if !m.AtBranch(actor.Branch.ID) {
			return nil, precondition(OpStock, id, "mail item is not at the selected branch")
		}
		if m.State != domain.MailStateCreated && m.State != domain.MailStateInBranchStock {
			return nil, precondition(OpStock, id, fmt.Sprintf("mail item in state %s cannot be stocked", m.State))
		}
		m.State = domain.MailStateInBranchStock
		m.BranchStockAddress = &shelf
		return &domain.ActivityEntry{
			Type:     domain.ActivityMovedToBranchStock,
			Message:  fmt.Sprintf("Mail #%d placed on shelf %s at %s", m.ID, shelf, actor.Branch.Name),
			BranchID: actor.branchID(),
		}, nil
	})
}

// LoadToCar moves a shelved item from the actor's branch into the actor's
// car. forDelivery selects the courier variant, which heads to the recipient
// instead of another branch.
func (s *MailService) LoadToCar(ctx context.Context, actor Actor, id int64, forDelivery bool) (*domain.MailItem, error) {
	return s.transition(ctx, actor, OpLoad, id, func(m *domain.MailItem) (*domain.ActivityEntry, error) {
		if actor.Branch == nil {
			return nil, precondition(OpLoad, id, "no branch selected")
		}
		if actor.Car == nil {
			return nil, precondition(OpLoad, id, "no car selected")
		}
		if !m.AtBranch(actor.Branch.ID) {
			return nil, precondition(OpLoad, id, "mail item is not at the selected branch")
		}
		if m.State != domain.MailStateInBranchStock {
			return nil, precondition(OpLoad, id, fmt.Sprintf("mail item in state %s cannot be loaded", m.State))
		}
		addressedHere := m.DestinationBranchID == actor.Branch.ID
		if forDelivery && !addressedHere {
			return nil, precondition(OpLoad, id, "mail item is not addressed to the selected branch")
		}
		if !forDelivery && addressedHere {
			return nil, precondition(OpLoad, id, "mail item has already reached its destination branch")
		}
		m.State = domain.MailStateInDeliveryToBranchStock
		if forDelivery {
			m.State = domain.MailStateInDeliveryToPerson
		}
		m.CurrentBranchID = nil
		m.BranchStockAddress = nil
		m.CurrentCarID = actor.carID()
		return &domain.ActivityEntry{
			Type:    domain.ActivityMovedToCar,
			Message: fmt.Sprintf("Mail #%d loaded into car %s (%s) at %s", m.ID, actor.Car.Model, actor.Car.Number, actor.Branch.Name),
			CarID:   actor.carID(),
		}, nil
	})
}

// UnloadToBranch hands an item in transit over to the actor's branch.
func (s *MailService) UnloadToBranch(ctx context.Context, actor Actor, id int64) (*domain.MailItem, error) {
	return s.transition(ctx, actor, OpUnload, id, func(m *domain.MailItem) (*domain.ActivityEntry, error) {
		if actor.Branch == nil {
			return nil, precondition(OpUnload, id, "no branch selected")
		}
		if actor.Car == nil {
			return nil, precondition(OpUnload, id, "no car selected")
		}
		if !m.InCar(actor.Car.ID) {
			return nil, precondition(OpUnload, id, "mail item is not in the selected car")
		}
		if m.State != domain.MailStateInDeliveryToBranchStock {
			return nil, precondition(OpUnload, id, fmt.Sprintf("mail item in state %s cannot be unloaded", m.State))
		}
		m.State = domain.MailStateInBranchStock
		m.CurrentBranchID = actor.branchID()
		m.CurrentCarID = nil
		m.BranchStockAddress = nil
		return &domain.ActivityEntry{
			Type:     domain.ActivityMovedToBranchStock,
			Message:  fmt.Sprintf("Mail #%d unloaded from car %s at %s", m.ID, actor.Car.Number, actor.Branch.Name),
			BranchID: actor.branchID(),
			CarID:    actor.carID(),
		}, nil
	})
}

// Deliver hands an item to its recipient. With fromCar set the item must be
// on its way to the recipient in the actor's car; otherwise it must sit in
// the actor's branch.
func (s *MailService) Deliver(ctx context.Context, actor Actor, id int64, fromCar bool) (*domain.MailItem, error) {
	return s.transition(ctx, actor, OpDeliver, id, func(m *domain.MailItem) (*domain.ActivityEntry, error) {
		entry := &domain.ActivityEntry{Type: domain.ActivityDelivered}
		if fromCar {
			if actor.Car == nil {
				return nil, precondition(OpDeliver, id, "no car selected")
			}
			if !m.InCar(actor.Car.ID) {
				return nil, precondition(OpDeliver, id, "mail item is not in the selected car")
			}
			if m.State != domain.MailStateInDeliveryToPerson {
				return nil, precondition(OpDeliver, id, fmt.Sprintf("mail item in state %s is not out for delivery", m.State))
			}
			entry.CarID = actor.carID()
			entry.Message = fmt.Sprintf("Mail #%d delivered to %s at %s by car %s", m.ID, m.PersonTo, m.AddressTo, actor.Car.Number)
		} else {
			if actor.Branch == nil {
				return nil, precondition(OpDeliver, id, "no branch selected")
			}
			if !m.AtBranch(actor.Branch.ID) {
				return nil, precondition(OpDeliver, id, "mail item is not at the selected branch")
			}
			if m.State != domain.MailStateCreated && m.State != domain.MailStateInBranchStock {
				return nil, precondition(OpDeliver, id, fmt.Sprintf("mail item in state %s cannot be handed out", m.State))
			}
			entry.BranchID = actor.branchID()
			entry.Message = fmt.Sprintf("Mail #%d handed to %s at %s", m.ID, m.PersonTo, actor.Branch.Name)
		}
		m.State = domain.MailStateDelivered
		m.CurrentBranchID = nil
		m.BranchStockAddress = nil
		m.CurrentCarID = nil
		return entry, nil
	})
}

// Get returns one item with its branch and car references.
func (s *MailService) Get(ctx context.Context, id int64) (*domain.MailItem, error) {
	mail, err := s.store.Mail().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "mail item", id)
	}
	return mail, nil
}

// transition loads the item, lets apply check preconditions and mutate it,
// then persists the item and the returned activity atomically.
func (s *MailService) transition(
	ctx context.Context,
	actor Actor,
	op string,
	id int64,
	apply func(m *domain.MailItem) (*domain.ActivityEntry, error),
) (*domain.MailItem, error) {
	var (
		oldState domain.MailState
		entry    *domain.ActivityEntry
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		mail, err := tx.Mail().GetByID(ctx, id)
		if err != nil {
			return storeError(err, "mail item", id)
		}
		oldState = mail.State
		entry, err = apply(mail)
		if err != nil {
			return err
		}
		if err := tx.Mail().Update(ctx, mail); err != nil {
			return err
		}
		entry.MailID = mail.ID
		entry.UserName = actor.name()
		entry.Time = s.now()
		return tx.Activities().Create(ctx, entry)
	})
	if err != nil {
		return nil, workflowFailure(op, id, err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, actor, updated, oldState, entry)
	return updated, nil
}

// workflowFailure passes typed failures through and reports anything else,
// including a failed commit, as a persistence failure.
func workflowFailure(op string, id int64, err error) error {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return err
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return &WorkflowError{Op: op, MailID: id, Reason: "changes could not be saved", Err: err}
}

func eventFor(activity domain.ActivityType) events.EventType {
	switch activity {
	case domain.ActivityCreated:
		return events.EventMailRegistered
	case domain.ActivityMovedToCar:
		return events.EventMailLoaded
	case domain.ActivityDelivered:
		return events.EventMailDelivered
	}
	return events.EventMailStocked
}

func (s *MailService) publish(ctx context.Context, actor Actor, mail *domain.MailItem, oldState domain.MailState, entry *domain.ActivityEntry) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventFor(entry.Type),
		MailID:    mail.ID,
		Actor:     actor.event(),
		Timestamp: s.now(),
		Payload: events.MailTransitionPayload{
			Activity:            entry.Type,
			OldState:            oldState,
			NewState:            mail.State,
			DestinationBranchID: mail.DestinationBranchID,
			Message:             entry.Message,
		},
	})
}

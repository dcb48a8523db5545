package service

import (
	"context"
	"strconv"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/listing"
	"github.com/postroute/postal-service/internal/repository"
)

func branchName(b *domain.Branch) string {
	if b == nil {
		return ""
	}
	return b.Name
}

func carNumber(c *domain.Car) string {
	if c == nil {
		return ""
	}
	return c.Number
}

func carModel(c *domain.Car) string {
	if c == nil {
		return ""
	}
	return c.Model
}

func shelf(m domain.MailItem) string {
	if m.BranchStockAddress == nil {
		return ""
	}
	return *m.BranchStockAddress
}

// MailListing declares the sortable and filterable mail fields.
var MailListing = listing.Schema[domain.MailItem]{
	Sorts: map[string]listing.Compare[domain.MailItem]{
		"id":                     listing.By(func(m domain.MailItem) int64 { return m.ID }),
		"personFrom":             listing.By(func(m domain.MailItem) string { return m.PersonFrom }),
		"personTo":               listing.By(func(m domain.MailItem) string { return m.PersonTo }),
		"addressTo":              listing.By(func(m domain.MailItem) string { return m.AddressTo }),
		"state":                  listing.By(func(m domain.MailItem) string { return string(m.State) }),
		"branchStockAddress":     listing.By(shelf),
		"sourceBranch.name":      listing.By(func(m domain.MailItem) string { return branchName(m.SourceBranch) }),
		"destinationBranch.name": listing.By(func(m domain.MailItem) string { return branchName(m.DestinationBranch) }),
		"currentBranch.name":     listing.By(func(m domain.MailItem) string { return branchName(m.CurrentBranch) }),
		"currentCar.number":      listing.By(func(m domain.MailItem) string { return carNumber(m.CurrentCar) }),
		"createdAt":              listing.By(func(m domain.MailItem) int64 { return m.CreatedAt.UnixNano() }),
		"updatedAt":              listing.By(func(m domain.MailItem) int64 { return m.UpdatedAt.UnixNano() }),
	},
	Filters: map[string]listing.Field[domain.MailItem]{
		"id":                     func(m domain.MailItem) string { return strconv.FormatInt(m.ID, 10) },
		"personFrom":             func(m domain.MailItem) string { return m.PersonFrom },
		"personTo":               func(m domain.MailItem) string { return m.PersonTo },
		"addressTo":              func(m domain.MailItem) string { return m.AddressTo },
		"state":                  func(m domain.MailItem) string { return string(m.State) },
		"branchStockAddress":     shelf,
		"sourceBranch.name":      func(m domain.MailItem) string { return branchName(m.SourceBranch) },
		"destinationBranch.name": func(m domain.MailItem) string { return branchName(m.DestinationBranch) },
		"currentBranch.name":     func(m domain.MailItem) string { return branchName(m.CurrentBranch) },
		"currentCar.number":      func(m domain.MailItem) string { return carNumber(m.CurrentCar) },
		"currentCar.model":       func(m domain.MailItem) string { return carModel(m.CurrentCar) },
	},
}

// MailView selects which items an actor sees.
type MailView int

const (
	// ViewAll lists every item.
	ViewAll MailView = iota
	// ViewBranch lists items currently in the actor's branch.
	ViewBranch
	// ViewStock lists items a stockman may shelve.
	ViewStock
	// ViewTransfer lists shelved items bound for another branch.
	ViewTransfer
	// ViewDelivery lists shelved items addressed to the actor's branch.
	ViewDelivery
	// ViewCarTransfer lists items in the actor's car heading to a branch.
	ViewCarTransfer
	// ViewCarDelivery lists items in the actor's car heading to recipients.
	ViewCarDelivery
)

func (v MailView) needsBranch() bool {
	return v >= ViewBranch && v <= ViewDelivery
}

func (v MailView) needsCar() bool {
	return v == ViewCarTransfer || v == ViewCarDelivery
}

func (v MailView) query(actor Actor) repository.MailQuery {
	q := repository.MailQuery{}
	switch v {
	case ViewBranch:
		q.CurrentBranchID = actor.branchID()
	case ViewStock:
		q.CurrentBranchID = actor.branchID()
		q.States = []domain.MailState{domain.MailStateCreated, domain.MailStateInBranchStock}
	case ViewTransfer:
		q.CurrentBranchID = actor.branchID()
		q.ExcludeDestinationBranchID = actor.branchID()
		q.States = []domain.MailState{domain.MailStateInBranchStock}
	case ViewDelivery:
		q.CurrentBranchID = actor.branchID()
		q.DestinationBranchID = actor.branchID()
		q.States = []domain.MailState{domain.MailStateInBranchStock}
	case ViewCarTransfer:
		q.CurrentCarID = actor.carID()
		q.States = []domain.MailState{domain.MailStateInDeliveryToBranchStock}
	case ViewCarDelivery:
		q.CurrentCarID = actor.carID()
		q.States = []domain.MailState{domain.MailStateInDeliveryToPerson}
	}
	return q
}

// List returns one page of the items matching query. Options are validated
// before the store is read.
func (s *MailService) List(ctx context.Context, query repository.MailQuery, opts listing.Options) (*listing.Page[domain.MailItem], error) {
	if err := MailListing.Validate(opts); err != nil {
		return nil, err
	}
	items, err := s.store.Mail().List(ctx, query)
	if err != nil {
		return nil, err
	}
	return MailListing.Apply(items, opts)
}

// ListView lists the items visible to actor in view. Views scoped to a branch
// or car yield an empty page while none is selected.
func (s *MailService) ListView(ctx context.Context, actor Actor, view MailView, opts listing.Options) (*listing.Page[domain.MailItem], error) {
	if err := MailListing.Validate(opts); err != nil {
		return nil, err
	}
	if (view.needsBranch() && actor.Branch == nil) || (view.needsCar() && actor.Car == nil) {
		return listing.Paginate([]domain.MailItem{}, opts.Page, opts.PageSize), nil
	}
	return s.List(ctx, view.query(actor), opts)
}

// ActivityListing declares the sortable and filterable activity fields.
// Ties are always broken by time, most recent first.
var ActivityListing = listing.Schema[domain.ActivityEntry]{
	Sorts: map[string]listing.Compare[domain.ActivityEntry]{
		"id":       listing.By(func(e domain.ActivityEntry) int64 { return e.ID }),
		"type":     listing.By(func(e domain.ActivityEntry) string { return string(e.Type) }),
		"time":     func(a, b domain.ActivityEntry) int { return a.Time.Compare(b.Time) },
		"userName": listing.By(func(e domain.ActivityEntry) string { return e.UserName }),
		"message":  listing.By(func(e domain.ActivityEntry) string { return e.Message }),
		"mailId":   listing.By(func(e domain.ActivityEntry) int64 { return e.MailID }),
	},
	Filters: map[string]listing.Field[domain.ActivityEntry]{
		"message":  func(e domain.ActivityEntry) string { return e.Message },
		"userName": func(e domain.ActivityEntry) string { return e.UserName },
	},
}

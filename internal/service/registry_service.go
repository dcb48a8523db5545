package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/listing"
	"github.com/postroute/postal-service/internal/repository"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

var branchListing = listing.Schema[domain.Branch]{
	Sorts: map[string]listing.Compare[domain.Branch]{
		"id":      listing.By(func(b domain.Branch) int64 { return b.ID }),
		"name":    listing.By(func(b domain.Branch) string { return b.Name }),
		"address": listing.By(func(b domain.Branch) string { return b.Address }),
	},
	Filters: map[string]listing.Field[domain.Branch]{
		"id":      func(b domain.Branch) string { return strconv.FormatInt(b.ID, 10) },
		"name":    func(b domain.Branch) string { return b.Name },
		"address": func(b domain.Branch) string { return b.Address },
	},
}

var carListing = listing.Schema[domain.Car]{
	Sorts: map[string]listing.Compare[domain.Car]{
		"id":     listing.By(func(c domain.Car) int64 { return c.ID }),
		"model":  listing.By(func(c domain.Car) string { return c.Model }),
		"number": listing.By(func(c domain.Car) string { return c.Number }),
	},
	Filters: map[string]listing.Field[domain.Car]{
		"id":     func(c domain.Car) string { return strconv.FormatInt(c.ID, 10) },
		"model":  func(c domain.Car) string { return c.Model },
		"number": func(c domain.Car) string { return c.Number },
	},
}

// BranchInput carries editable branch fields.
type BranchInput struct {
	Name    string
	Address string
}

func (in BranchInput) validate() error {
	details := map[string]any{}
	if strings.TrimSpace(in.Name) == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(in.Address) == "" {
		details["address"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid branch", details)
	}
	return nil
}

// BranchService maintains the branch registry.
type BranchService struct {
	store repository.Store
}

// NewBranchService constructs the service.
func NewBranchService(store repository.Store) *BranchService {
	return &BranchService{store: store}
}

func (s *BranchService) List(ctx context.Context, opts listing.Options) (*listing.Page[domain.Branch], error) {
	if err := branchListing.Validate(opts); err != nil {
		return nil, err
	}
	branches, err := s.store.Branches().List(ctx)
	if err != nil {
		return nil, err
	}
	return branchListing.Apply(branches, opts)
}

func (s *BranchService) Get(ctx context.Context, id int64) (*domain.Branch, error) {
	branch, err := s.store.Branches().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "branch", id)
	}
	return branch, nil
}

func (s *BranchService) Create(ctx context.Context, input BranchInput) (*domain.Branch, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	branch := &domain.Branch{Name: strings.TrimSpace(input.Name), Address: strings.TrimSpace(input.Address)}
	if err := s.store.Branches().Create(ctx, branch); err != nil {
		return nil, storeError(err, "branch", 0)
	}
	return branch, nil
}

func (s *BranchService) Update(ctx context.Context, id int64, input BranchInput) (*domain.Branch, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	var branch *domain.Branch
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		branch, err = tx.Branches().GetByID(ctx, id)
		if err != nil {
			return storeError(err, "branch", id)
		}
		branch.Name = strings.TrimSpace(input.Name)
		branch.Address = strings.TrimSpace(input.Address)
		return storeError(tx.Branches().Update(ctx, branch), "branch", id)
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

// Delete removes a branch. Branches that are the origin or destination of
// any mail item are kept.
func (s *BranchService) Delete(ctx context.Context, id int64) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Branches().GetByID(ctx, id); err != nil {
			return storeError(err, "branch", id)
		}
		routed, err := tx.Mail().CountRoutedThrough(ctx, id)
		if err != nil {
			return err
		}
		if routed > 0 {
			return apperrors.NewConflict("branch is the origin or destination of mail items",
				map[string]any{"id": id, "mail_items": routed})
		}
		return storeError(tx.Branches().Delete(ctx, id), "branch", id)
	})
}

// CarInput carries editable car fields.
type CarInput struct {
	Model  string
	Number string
}

func (in CarInput) validate() error {
	details := map[string]any{}
	if strings.TrimSpace(in.Model) == "" {
		details["model"] = "required"
	}
	if strings.TrimSpace(in.Number) == "" {
		details["number"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid car", details)
	}
	return nil
}

// CarService maintains the car registry.
type CarService struct {
	store repository.Store
}

// NewCarService constructs the service.
func NewCarService(store repository.Store) *CarService {
	return &CarService{store: store}
}

func (s *CarService) List(ctx context.Context, opts listing.Options) (*listing.Page[domain.Car], error) {
	if err := carListing.Validate(opts); err != nil {
		return nil, err
	}
	cars, err := s.store.Cars().List(ctx)
	if err != nil {
		return nil, err
	}
	return carListing.Apply(cars, opts)
}

func (s *CarService) Get(ctx context.Context, id int64) (*domain.Car, error) {
	car, err := s.store.Cars().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "car", id)
	}
	return car, nil
}

func (s *CarService) Create(ctx context.Context, input CarInput) (*domain.Car, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	car := &domain.Car{Model: strings.TrimSpace(input.Model), Number: strings.TrimSpace(input.Number)}
	if err := s.store.Cars().Create(ctx, car); err != nil {
		return nil, storeError(err, "car", 0)
	}
	return car, nil
}

func (s *CarService) Update(ctx context.Context, id int64, input CarInput) (*domain.Car, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	var car *domain.Car
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		car, err = tx.Cars().GetByID(ctx, id)
		if err != nil {
			return storeError(err, "car", id)
		}
		car.Model = strings.TrimSpace(input.Model)
		car.Number = strings.TrimSpace(input.Number)
		return storeError(tx.Cars().Update(ctx, car), "car", id)
	})
	if err != nil {
		return nil, err
	}
	return car, nil
}

// Delete removes a car. Items loaded in it lose their car reference.
func (s *CarService) Delete(ctx context.Context, id int64) error {
	return storeError(s.store.Cars().Delete(ctx, id), "car", id)
}

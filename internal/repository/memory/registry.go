package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/repository"
)

type branchRepo struct {
	s *Store
}

func (r *branchRepo) Create(_ context.Context, branch *domain.Branch) error {
	defer r.s.lock()()
	branch.ID = r.s.d.id()
	r.s.d.branches[branch.ID] = *branch
	return nil
}

func (r *branchRepo) Update(_ context.Context, branch *domain.Branch) error {
	defer r.s.lock()()
	if _, ok := r.s.d.branches[branch.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.d.branches[branch.ID] = *branch
	return nil
}

// Delete mirrors the schema: origin/destination references restrict, current
// location and activity references are set to null.
func (r *branchRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	d := r.s.d
	if _, ok := d.branches[id]; !ok {
		return repository.ErrNotFound
	}
	for _, m := range d.mail {
		if m.SourceBranchID == id || m.DestinationBranchID == id {
			return repository.ErrReferenced
		}
	}
	for mid, m := range d.mail {
		if m.CurrentBranchID != nil && *m.CurrentBranchID == id {
			m.CurrentBranchID = nil
			d.mail[mid] = m
		}
	}
	for i := range d.activities {
		if d.activities[i].BranchID != nil && *d.activities[i].BranchID == id {
			d.activities[i].BranchID = nil
		}
	}
	delete(d.branches, id)
	return nil
}

func (r *branchRepo) GetByID(_ context.Context, id int64) (*domain.Branch, error) {
	defer r.s.lock()()
	b, ok := r.s.d.branches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *branchRepo) List(_ context.Context) ([]domain.Branch, error) {
	defer r.s.lock()()
	result := []domain.Branch{}
	for _, id := range slices.Sorted(maps.Keys(r.s.d.branches)) {
		result = append(result, r.s.d.branches[id])
	}
	return result, nil
}

type carRepo struct {
	s *Store
}

func (r *carRepo) Create(_ context.Context, car *domain.Car) error {
	defer r.s.lock()()
	car.ID = r.s.d.id()
	r.s.d.cars[car.ID] = *car
	return nil
}

func (r *carRepo) Update(_ context.Context, car *domain.Car) error {
	defer r.s.lock()()
	if _, ok := r.s.d.cars[car.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.d.cars[car.ID] = *car
	return nil
}

func (r *carRepo) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()
	d := r.s.d
	if _, ok := d.cars[id]; !ok {
		return repository.ErrNotFound
	}
	for mid, m := range d.mail {
		if m.CurrentCarID != nil && *m.CurrentCarID == id {
			m.CurrentCarID = nil
			d.mail[mid] = m
		}
	}
	for i := range d.activities {
		if d.activities[i].CarID != nil && *d.activities[i].CarID == id {
			d.activities[i].CarID = nil
		}
	}
	delete(d.cars, id)
	return nil
}

func (r *carRepo) GetByID(_ context.Context, id int64) (*domain.Car, error) {
	defer r.s.lock()()
	c, ok := r.s.d.cars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *carRepo) List(_ context.Context) ([]domain.Car, error) {
	defer r.s.lock()()
	result := []domain.Car{}
	for _, id := range slices.Sorted(maps.Keys(r.s.d.cars)) {
		result = append(result, r.s.d.cars[id])
	}
	return result, nil
}

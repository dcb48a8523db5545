package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/repository"
)

type mailRepo struct {
	s *Store
}

func normalizeMail(m domain.MailItem) domain.MailItem {
	m.CurrentBranchID = copyInt(m.CurrentBranchID)
	m.CurrentCarID = copyInt(m.CurrentCarID)
	m.BranchStockAddress = copyString(m.BranchStockAddress)
	m.SourceBranch, m.DestinationBranch, m.CurrentBranch, m.CurrentCar = nil, nil, nil, nil
	return m
}

func (r *mailRepo) checkRefs(m *domain.MailItem) error {
	d := r.s.d
	for _, id := range []int64{m.SourceBranchID, m.DestinationBranchID} {
		if _, ok := d.branches[id]; !ok {
			return repository.ErrReferenced
		}
	}
	if m.CurrentBranchID != nil {
		if _, ok := d.branches[*m.CurrentBranchID]; !ok {
			return repository.ErrReferenced
		}
	}
	if m.CurrentCarID != nil {
		if _, ok := d.cars[*m.CurrentCarID]; !ok {
			return repository.ErrReferenced
		}
	}
	return nil
}

func (r *mailRepo) Create(_ context.Context, mail *domain.MailItem) error {
	defer r.s.lock()()
	if err := r.checkRefs(mail); err != nil {
		return err
	}
	mail.ID = r.s.d.id()
	mail.CreatedAt = r.s.now()
	mail.UpdatedAt = mail.CreatedAt
	r.s.d.mail[mail.ID] = normalizeMail(*mail)
	return nil
}

func (r *mailRepo) Update(_ context.Context, mail *domain.MailItem) error {
	defer r.s.lock()()
	current, ok := r.s.d.mail[mail.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkRefs(mail); err != nil {
		return err
	}
	mail.SourceBranchID = current.SourceBranchID
	mail.CreatedAt = current.CreatedAt
	mail.UpdatedAt = r.s.now()
	r.s.d.mail[mail.ID] = normalizeMail(*mail)
	return nil
}

func (r *mailRepo) GetByID(_ context.Context, id int64) (*domain.MailItem, error) {
	defer r.s.lock()()
	m, ok := r.s.d.mail[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := r.hydrate(m)
	return &out, nil
}

func (r *mailRepo) List(_ context.Context, query repository.MailQuery) ([]domain.MailItem, error) {
	defer r.s.lock()()
	ids := slices.Sorted(maps.Keys(r.s.d.mail))
	result := []domain.MailItem{}
	for _, id := range ids {
		m := r.s.d.mail[id]
		if !query.Matches(&m) {
			continue
		}
		result = append(result, r.hydrate(m))
	}
	return result, nil
}

func (r *mailRepo) CountRoutedThrough(_ context.Context, branchID int64) (int, error) {
	defer r.s.lock()()
	count := 0
	for _, m := range r.s.d.mail {
		if m.SourceBranchID == branchID || m.DestinationBranchID == branchID {
			count++
		}
	}
	return count, nil
}

func (r *mailRepo) hydrate(m domain.MailItem) domain.MailItem {
	m = normalizeMail(m)
	d := r.s.d
	if b, ok := d.branches[m.SourceBranchID]; ok {
		m.SourceBranch = &b
	}
	if b, ok := d.branches[m.DestinationBranchID]; ok {
		m.DestinationBranch = &b
	}
	if m.CurrentBranchID != nil {
		if b, ok := d.branches[*m.CurrentBranchID]; ok {
			m.CurrentBranch = &b
		}
	}
	if m.CurrentCarID != nil {
		if c, ok := d.cars[*m.CurrentCarID]; ok {
			m.CurrentCar = &c
		}
	}
	return m
}

package session

import (
	"context"
	"errors"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/repository"
)

// Keys under which the selected branch and car are stored. Zero means none.
const (
	BranchKey = "postal.branch"
	CarKey    = "postal.car"
)

type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type BranchFinder interface {
	GetByID(ctx context.Context, id int64) (*domain.Branch, error)
}

type CarFinder interface {
	GetByID(ctx context.Context, id int64) (*domain.Car, error)
}

// Lookups resolves the ids held in a session.
type Lookups struct {
	Users    UserFinder
	Branches BranchFinder
	Cars     CarFinder
}

// Context is the per-request view of the caller's session. Resolved records
// are cached for the lifetime of the value, so it must not be shared across
// requests.
type Context struct {
	store   Store
	lookups Lookups
	sid     string
	userID  int64

	user         *domain.User
	userLoaded   bool
	branch       *domain.Branch
	branchLoaded bool
	car          *domain.Car
	carLoaded    bool
}

// NewContext binds an authenticated session.
func NewContext(store Store, lookups Lookups, sid string, userID int64) *Context {
	return &Context{store: store, lookups: lookups, sid: sid, userID: userID}
}

// Anonymous returns a context with no session.
func Anonymous() *Context {
	return &Context{}
}

// IsAuthenticated reports whether a session is bound.
func (c *Context) IsAuthenticated() bool {
	return c != nil && c.sid != ""
}

// SessionID returns the bound session id.
func (c *Context) SessionID() string {
	if c == nil {
		return ""
	}
	return c.sid
}

// User resolves the signed-in account. It returns nil when anonymous or
// when the account no longer exists.
func (c *Context) User(ctx context.Context) (*domain.User, error) {
	if !c.IsAuthenticated() {
		return nil, nil
	}
	if c.userLoaded {
		return c.user, nil
	}
	user, err := c.lookups.Users.GetByID(ctx, c.userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	c.user, c.userLoaded = user, true
	return c.user, nil
}

// Branch resolves the selected branch, nil when none is selected or it was
// deleted.
func (c *Context) Branch(ctx context.Context) (*domain.Branch, error) {
	if !c.IsAuthenticated() {
		return nil, nil
	}
	if c.branchLoaded {
		return c.branch, nil
	}
	id, err := c.selected(ctx, BranchKey)
	if err != nil {
		return nil, err
	}
	var branch *domain.Branch
	if id != 0 {
		branch, err = c.lookups.Branches.GetByID(ctx, id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	c.branch, c.branchLoaded = branch, true
	return c.branch, nil
}

// Car resolves the selected car, nil when none is selected or it was deleted.
func (c *Context) Car(ctx context.Context) (*domain.Car, error) {
	if !c.IsAuthenticated() {
		return nil, nil
	}
	if c.carLoaded {
		return c.car, nil
	}
	id, err := c.selected(ctx, CarKey)
	if err != nil {
		return nil, err
	}
	var car *domain.Car
	if id != 0 {
		car, err = c.lookups.Cars.GetByID(ctx, id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	c.car, c.carLoaded = car, true
	return c.car, nil
}

func (c *Context) selected(ctx context.Context, key string) (int64, error) {
	id, ok, err := c.store.GetInt(ctx, c.sid, key)
	if err != nil || !ok {
		return 0, err
	}
	return id, nil
}

// SetBranch selects a branch. It returns false, leaving the session
// untouched, when the branch does not exist.
func (c *Context) SetBranch(ctx context.Context, id int64) (bool, error) {
	if !c.IsAuthenticated() {
		return false, nil
	}
	branch, err := c.lookups.Branches.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := c.store.SetInt(ctx, c.sid, BranchKey, branch.ID); err != nil {
		return false, err
	}
	c.branch, c.branchLoaded = branch, true
	return true, nil
}

// SetCar selects a car. It returns false, leaving the session untouched,
// when the car does not exist.
func (c *Context) SetCar(ctx context.Context, id int64) (bool, error) {
	if !c.IsAuthenticated() {
		return false, nil
	}
	car, err := c.lookups.Cars.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := c.store.SetInt(ctx, c.sid, CarKey, car.ID); err != nil {
		return false, err
	}
	c.car, c.carLoaded = car, true
	return true, nil
}

// Reset clears the caches and the stored branch and car selection.
func (c *Context) Reset(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.user, c.userLoaded = nil, false
	c.branch, c.branchLoaded = nil, true
	c.car, c.carLoaded = nil, true
	if !c.IsAuthenticated() {
		return nil
	}
	if err := c.store.SetInt(ctx, c.sid, BranchKey, 0); err != nil {
		return err
	}
	return c.store.SetInt(ctx, c.sid, CarKey, 0)
}

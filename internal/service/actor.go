package service

import (
	"context"

	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/events"
	"github.com/postroute/postal-service/internal/session"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

// Actor is the signed-in user together with the branch and car selected for
// the session. Branch and Car may be nil.
type Actor struct {
	User   *domain.User
	Branch *domain.Branch
	Car    *domain.Car
}

// ActorFromSession resolves the actor of a request.
func ActorFromSession(ctx context.Context, sc *session.Context) (Actor, error) {
	user, err := sc.User(ctx)
	if err != nil {
		return Actor{}, err
	}
	if user == nil {
		return Actor{}, apperrors.NewUnauthorized("not signed in")
	}
	branch, err := sc.Branch(ctx)
	if err != nil {
		return Actor{}, err
	}
	car, err := sc.Car(ctx)
	if err != nil {
		return Actor{}, err
	}
	return Actor{User: user, Branch: branch, Car: car}, nil
}

func (a Actor) name() string {
	if a.User == nil {
		return ""
	}
	return a.User.DisplayName()
}

func (a Actor) branchID() *int64 {
	if a.Branch == nil {
		return nil
	}
	id := a.Branch.ID
	return &id
}

func (a Actor) carID() *int64 {
	if a.Car == nil {
		return nil
	}
	id := a.Car.ID
	return &id
}

func (a Actor) event() events.Actor {
	out := events.Actor{UserName: a.name(), BranchID: a.branchID(), CarID: a.carID()}
	if a.User != nil {
		out.UserID = a.User.ID
	}
	return out
}

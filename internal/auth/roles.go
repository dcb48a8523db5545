package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/postroute/postal-service/internal/domain"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

// Action is a role-gated capability.
type Action string

const (
	ActionRegisterMail     Action = "mail.register"
	ActionDeliverAtBranch  Action = "mail.deliver_at_branch"
	ActionStockMail        Action = "mail.stock"
	ActionTransferMail     Action = "mail.transfer"
	ActionDeliverToPerson  Action = "mail.deliver_to_person"
	ActionViewActivities   Action = "activities.view"
	ActionExpireActivities Action = "activities.expire"
	ActionManageRegistry   Action = "registry.manage"
)

var capabilities = map[domain.RoleName][]Action{
	domain.RoleOperator: {ActionRegisterMail, ActionDeliverAtBranch},
	domain.RoleStockman: {ActionStockMail},
	domain.RoleDriver:   {ActionTransferMail},
	domain.RoleCourier:  {ActionDeliverToPerson},
	domain.RoleManager:  {ActionViewActivities},
}

// Can reports whether role may perform action. Admin may perform every action.
func Can(role domain.RoleName, action Action) bool {
	if role == domain.RoleAdmin {
		return true
	}
	for _, allowed := range capabilities[role] {
		if allowed == action {
			return true
		}
	}
	return false
}

// RequireAction ensures the signed-in user's role grants action.
func RequireAction(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc := SessionFromContext(c)
		if !sc.IsAuthenticated() {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		user, err := sc.User(c.UserContext())
		if err != nil {
			return apperrors.MapError(err)
		}
		if user == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !Can(user.RoleName(), action) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a session is bound to the request.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !SessionFromContext(c).IsAuthenticated() {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}

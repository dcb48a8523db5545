package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/postroute/postal-service/internal/api/dto"
	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/repository"
	"github.com/postroute/postal-service/internal/service"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

// ActivityHandler exposes the activity log.
type ActivityHandler struct {
	activities *service.ActivityService
	params     ListParams
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activities *service.ActivityService, params ListParams) *ActivityHandler {
	return &ActivityHandler{activities: activities, params: params}
}

// List handles GET /manager/activities.
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	query, err := parseActivityQuery(c)
	if err != nil {
		return err
	}
	opts, err := h.params.Parse(c)
	if err != nil {
		return err
	}
	page, err := h.activities.List(c.UserContext(), query, opts)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPageResponse(page, dto.NewActivityResponse))
}

// Expire handles DELETE /admin/activities?before=<RFC3339>.
func (h *ActivityHandler) Expire(c *fiber.Ctx) error {
	before, err := queryTime(c, "before")
	if err != nil {
		return err
	}
	if before == nil {
		return apperrors.NewValidationError("before required", nil)
	}
	if err := h.activities.DeleteBefore(c.UserContext(), *before); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseActivityQuery(c *fiber.Ctx) (repository.ActivityQuery, error) {
	q := repository.ActivityQuery{}
	if raw := c.Query("type"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			q.Types = append(q.Types, domain.ActivityType(strings.TrimSpace(part)))
		}
	}
	var err error
	if q.MailID, err = queryID(c, "mail_id"); err != nil {
		return q, err
	}
	if q.BranchID, err = queryID(c, "branch_id"); err != nil {
		return q, err
	}
	if q.CarID, err = queryID(c, "car_id"); err != nil {
		return q, err
	}
	if q.From, err = queryTime(c, "from"); err != nil {
		return q, err
	}
	if q.To, err = queryTime(c, "to"); err != nil {
		return q, err
	}
	return q, nil
}

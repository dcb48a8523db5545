package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/postroute/postal-service/internal/auth"
	"github.com/postroute/postal-service/internal/listing"
	"github.com/postroute/postal-service/internal/service"
	"github.com/postroute/postal-service/internal/session"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

const filterPrefix = "filter."

// ListParams turns list query parameters into listing options.
type ListParams struct {
	DefaultPageSize int
}

// Parse reads sort, order, page, page_size and filter.<name>.
func (p ListParams) Parse(c *fiber.Ctx) (listing.Options, error) {
	opts := listing.Options{
		SortKey:  c.Query("sort"),
		Order:    listing.ParseOrder(c.Query("order")),
		Page:     1,
		PageSize: p.DefaultPageSize,
	}
	if opts.SortKey != "" && opts.Order == listing.NoSort {
		opts.Order = listing.Ascending
	}
	var err error
	if opts.Page, err = queryInt(c, "page", 1); err != nil {
		return opts, err
	}
	if opts.PageSize, err = queryInt(c, "page_size", p.DefaultPageSize); err != nil {
		return opts, err
	}
	for key, value := range c.Queries() {
		if name, ok := strings.CutPrefix(key, filterPrefix); ok {
			if opts.Filters == nil {
				opts.Filters = map[string]string{}
			}
			opts.Filters[name] = value
		}
	}
	return opts, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewInvalidArgument("invalid "+key, map[string]any{key: raw})
	}
	return v, nil
}

func queryID(c *fiber.Ctx, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewInvalidArgument("invalid "+key, map[string]any{key: raw})
	}
	return &v, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.NewInvalidArgument("invalid "+key, map[string]any{key: raw})
	}
	return &t, nil
}

func pathID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidArgument("invalid id", map[string]any{"id": raw})
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func currentSession(c *fiber.Ctx) *session.Context {
	return auth.SessionFromContext(c)
}

func currentActor(c *fiber.Ctx) (service.Actor, error) {
	return service.ActorFromSession(c.UserContext(), currentSession(c))
}

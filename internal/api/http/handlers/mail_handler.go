package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/postroute/postal-service/internal/api/dto"
	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/service"
)

// MailHandler exposes the mail workflow to the role areas.
type MailHandler struct {
	mail   *service.MailService
	params ListParams
}

// NewMailHandler constructs handler.
func NewMailHandler(mailService *service.MailService, params ListParams) *MailHandler {
	return &MailHandler{mail: mailService, params: params}
}

// View lists the items the caller sees in view.
func (h *MailHandler) View(view service.MailView) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		opts, err := h.params.Parse(c)
		if err != nil {
			return err
		}
		page, err := h.mail.ListView(c.UserContext(), actor, view, opts)
		if err != nil {
			return err
		}
		return c.JSON(dto.NewPageResponse(page, dto.NewMailResponse))
	}
}

// Get GET /mail/:id.
func (h *MailHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	item, err := h.mail.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMailResponse(*item)})
}

// Create POST /operator/mail.
func (h *MailHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateMailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.mail.Create(c.UserContext(), actor, service.CreateMailInput{
		PersonFrom:          req.PersonFrom,
		PersonTo:            req.PersonTo,
		AddressTo:           req.AddressTo,
		DestinationBranchID: req.DestinationBranchID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMailResponse(*item)})
}

// Stock POST /stockman/mail/:id/stock.
func (h *MailHandler) Stock(c *fiber.Ctx) error {
	var req dto.StockRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.transition(c, func(actor service.Actor, id int64) (*domain.MailItem, error) {
		return h.mail.Stock(c.UserContext(), actor, id, req.BranchStockAddress)
	})
}

// Load loads an item into the caller's car; forDelivery picks the courier
// flavour that takes items addressed to the caller's branch.
func (h *MailHandler) Load(forDelivery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.transition(c, func(actor service.Actor, id int64) (*domain.MailItem, error) {
			return h.mail.LoadToCar(c.UserContext(), actor, id, forDelivery)
		})
	}
}

// Unload POST /driver/mail/:id/unload.
func (h *MailHandler) Unload(c *fiber.Ctx) error {
	return h.transition(c, func(actor service.Actor, id int64) (*domain.MailItem, error) {
		return h.mail.UnloadToBranch(c.UserContext(), actor, id)
	})
}

// Deliver hands an item to its recipient, from the branch counter or from
// the caller's car.
func (h *MailHandler) Deliver(fromCar bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.transition(c, func(actor service.Actor, id int64) (*domain.MailItem, error) {
			return h.mail.Deliver(c.UserContext(), actor, id, fromCar)
		})
	}
}

func (h *MailHandler) transition(c *fiber.Ctx, fn func(actor service.Actor, id int64) (*domain.MailItem, error)) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	item, err := fn(actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMailResponse(*item)})
}

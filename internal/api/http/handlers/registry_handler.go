package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/postroute/postal-service/internal/api/dto"
	"github.com/postroute/postal-service/internal/service"
)

// RegistryHandler manages branches and cars.
type RegistryHandler struct {
	branches *service.BranchService
	cars     *service.CarService
	params   ListParams
}

// NewRegistryHandler constructs handler.
func NewRegistryHandler(branches *service.BranchService, cars *service.CarService, params ListParams) *RegistryHandler {
	return &RegistryHandler{branches: branches, cars: cars, params: params}
}

func (h *RegistryHandler) ListBranches(c *fiber.Ctx) error {
	opts, err := h.params.Parse(c)
	if err != nil {
		return err
	}
	page, err := h.branches.List(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPageResponse(page, dto.NewBranchResponse))
}

func (h *RegistryHandler) GetBranch(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	branch, err := h.branches.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBranchResponse(*branch)})
}

func (h *RegistryHandler) CreateBranch(c *fiber.Ctx) error {
	var req dto.BranchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	branch, err := h.branches.Create(c.UserContext(), service.BranchInput{Name: req.Name, Address: req.Address})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewBranchResponse(*branch)})
}

func (h *RegistryHandler) UpdateBranch(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.BranchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	branch, err := h.branches.Update(c.UserContext(), id, service.BranchInput{Name: req.Name, Address: req.Address})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBranchResponse(*branch)})
}

// DeleteBranch refuses branches that are the source or destination of mail.
func (h *RegistryHandler) DeleteBranch(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.branches.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RegistryHandler) ListCars(c *fiber.Ctx) error {
	opts, err := h.params.Parse(c)
	if err != nil {
		return err
	}
	page, err := h.cars.List(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPageResponse(page, dto.NewCarResponse))
}

func (h *RegistryHandler) GetCar(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	car, err := h.cars.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCarResponse(*car)})
}

func (h *RegistryHandler) CreateCar(c *fiber.Ctx) error {
	var req dto.CarRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	car, err := h.cars.Create(c.UserContext(), service.CarInput{Model: req.Model, Number: req.Number})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCarResponse(*car)})
}

func (h *RegistryHandler) UpdateCar(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.CarRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	car, err := h.cars.Update(c.UserContext(), id, service.CarInput{Model: req.Model, Number: req.Number})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCarResponse(*car)})
}

// DeleteCar unloads every item the car held.
func (h *RegistryHandler) DeleteCar(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.cars.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postroute/postal-service/internal/api/dto"
	"github.com/postroute/postal-service/internal/service"
	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

// AccountHandler exposes sign-in and the session's branch and car selection.
type AccountHandler struct {
	auth     *service.AuthService
	branches *service.BranchService
	cars     *service.CarService
	params   ListParams
}

// NewAccountHandler constructs handler.
func NewAccountHandler(authService *service.AuthService, branches *service.BranchService, cars *service.CarService, params ListParams) *AccountHandler {
	return &AccountHandler{auth: authService, branches: branches, cars: cars, params: params}
}

// Login handles POST /account/login.
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	res, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(*res.User),
			"auth": dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
		},
	})
}

// Logout handles POST /account/logout.
func (h *AccountHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), currentSession(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /account/me.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	actor, err := h.auth.Me(c.UserContext(), currentSession(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMeResponse(*actor.User, actor.Branch, actor.Car)})
}

// ChangePassword handles POST /account/password.
func (h *AccountHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), currentSession(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SelectBranch handles PUT /account/branch.
func (h *AccountHandler) SelectBranch(c *fiber.Ctx) error {
	var req dto.SelectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	branch, err := h.auth.SelectBranch(c.UserContext(), currentSession(c), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBranchResponse(*branch)})
}

// SelectCar handles PUT /account/car.
func (h *AccountHandler) SelectCar(c *fiber.Ctx) error {
	var req dto.SelectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	car, err := h.auth.SelectCar(c.UserContext(), currentSession(c), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCarResponse(*car)})
}

// Branches handles GET /account/branches, the choices for SelectBranch.
func (h *AccountHandler) Branches(c *fiber.Ctx) error {
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

// Cars handles GET /account/cars.
func (h *AccountHandler) Cars(c *fiber.Ctx) error {
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

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/postroute/postal-service/internal/api/dto"
	"github.com/postroute/postal-service/internal/service"
)

// UsersHandler manages employee accounts and roles.
type UsersHandler struct {
	users  *service.UserService
	roles  *service.RoleService
	params ListParams
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, roles *service.RoleService, params ListParams) *UsersHandler {
	return &UsersHandler{users: users, roles: roles, params: params}
}

func userInput(req dto.UserRequest) service.UserInput {
	return service.UserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	}
}

func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	opts, err := h.params.Parse(c)
	if err != nil {
		return err
	}
	page, err := h.users.List(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPageResponse(page, dto.NewUserResponse))
}

func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

// CreateUser handles POST /admin/users. A missing password falls back to
// the configured default.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), userInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), id, userInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UsersHandler) ListRoles(c *fiber.Ctx) error {
	opts, err := h.params.Parse(c)
	if err != nil {
		return err
	}
	page, err := h.roles.List(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPageResponse(page, dto.NewRoleResponse))
}

func (h *UsersHandler) GetRole(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	role, err := h.roles.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoleResponse(*role)})
}

func (h *UsersHandler) CreateRole(c *fiber.Ctx) error {
	var req dto.RoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := h.roles.Create(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRoleResponse(*role)})
}

func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := h.roles.Update(c.UserContext(), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoleResponse(*role)})
}

// DeleteRole refuses roles still assigned to a user.
func (h *UsersHandler) DeleteRole(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.roles.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

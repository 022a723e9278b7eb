package handlers

import (
	"net/url"

	"microloan/internal/adapters/http/middleware"
	"microloan/internal/core/domain"
	"microloan/internal/core/services"
	"microloan/internal/pkg/pagination"
	"microloan/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// SetRoleRequest represents change role request
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user manager admin"`
}

// Register records the caller on first sign-in
// @Summary Register user
// @Description Idempotent; returns the existing record on repeat calls
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Success 201 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /users [post]
func (h *UserHandler) Register(c *fiber.Ctx) error {
	user, created, err := h.userService.Register(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	if created {
		return response.Created(c, "User registered", toUserResponse(user))
	}
	return response.Success(c, "User already registered", toUserResponse(user))
}

// GetProfile returns the caller's own record
// @Summary Get profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.userService.GetProfile(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile retrieved", toUserResponse(user))
}

// ListUsers handles listing all users (Admin only)
// @Summary List all users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	users, total, err := h.userService.List(c.UserContext(), middleware.Principal(c), params.ToPage())
	if err != nil {
		return response.FromError(c, err)
	}

	out := make([]*UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return response.Paginated(c, "Users retrieved successfully", out, pagination.GetMeta(params, total))
}

// SetRole changes the role of a user (Admin only)
// @Summary Change user role
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param email path string true "User email"
// @Param body body SetRoleRequest true "Role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{email}/role [patch]
func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	var req SetRoleRequest
	if msg, ok := parseBody(c, &req); !ok {
		return response.BadRequest(c, msg)
	}
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return response.BadRequest(c, "Invalid email")
	}

	if err := h.userService.SetRole(c.UserContext(), middleware.Principal(c), email, domain.Role(req.Role)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Role updated successfully", nil)
}

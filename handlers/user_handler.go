package handlers

import (
	"time"

	"github.com/anjiri1684/training_portal/models"
	"github.com/anjiri1684/training_portal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type CreateUserRequest struct {
	FullName string  `json:"full_name" validate:"required,min=2,max=255"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin instructor student"`
	Mobile   *string `json:"mobile,omitempty" validate:"omitempty,max=15"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	u, err := h.users.Create(c.UserContext(), services.CreateUserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Mobile:   req.Mobile,
	})
	if err != nil {
		return serviceError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(u))
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	return c.JSON(out)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
	}
	u, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(toUserResponse(u))
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
	}
	if err := h.users.Delete(c.UserContext(), id); err != nil {
		return serviceError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

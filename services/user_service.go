package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/training_portal/database"
	"github.com/anjiri1684/training_portal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken          = database.ErrDuplicateEmail
	ErrUserHasCertificates = database.ErrUserHasCertificates
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type CreateUserInput struct {
	FullName string
	Email    string
	Password string
	Role     string
	Mobile   *string
}

type UserService struct {
	users UserRepository
	cost  int
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users, cost: bcrypt.DefaultCost}
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}
	switch role {
	case models.RoleAdmin, models.RoleInstructor, models.RoleStudent:
	default:
		return nil, &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: string(hashedPassword),
		Role:     role,
		Mobile:   in.Mobile,
		IsActive: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

package database

import (
	"context"
	"errors"

	"github.com/anjiri1684/training_portal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStore is the gorm-backed identity store.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, "email = ?", email)
}

// FindByName returns up to limit users whose full name matches exactly.
func (s *UserStore) FindByName(ctx context.Context, fullName string, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("full_name = ?", fullName).
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

// Delete removes a user. Certificates are not cascaded, so a user that still
// owns certificates cannot be removed.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
		return false, ErrUserHasCertificates
	}
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *UserStore) first(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

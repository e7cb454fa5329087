package database

import (
	"context"
	"errors"

	"github.com/anjiri1684/training_portal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CertificateStore persists issued certificates. It only inserts and reads;
// the unique index on certificate_number rejects colliding inserts.
type CertificateStore struct {
	db *gorm.DB
}

func NewCertificateStore(db *gorm.DB) *CertificateStore {
	return &CertificateStore{db: db}
}

func (s *CertificateStore) Save(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}
	err := s.db.WithContext(ctx).Omit("Student").Create(cert).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateNumber
	}
	return err
}

// FindByNumber returns the certificate with its student, or nil when absent.
func (s *CertificateStore) FindByNumber(ctx context.Context, number string) (*models.Certificate, error) {
	var cert models.Certificate
	err := s.db.WithContext(ctx).
		Preload("Student").
		Where("certificate_number = ?", number).
		First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (s *CertificateStore) CountMissingArtifacts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("document_bytes IS NULL AND (document_url IS NULL OR document_url = '')").
		Count(&n).Error
	return n, err
}

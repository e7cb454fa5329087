package models

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is written once at issuance and never updated.
// DocumentBytes is nil for rows issued before artifacts were stored, and
// DocumentURL is set instead when the artifact lives in external storage.
type Certificate struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CertificateNumber string    `gorm:"size:16;not null;uniqueIndex"`
	CourseName        string    `gorm:"size:255;not null"`
	IssuedAt          time.Time `gorm:"not null"`
	StudentID         uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentBytes     []byte    `gorm:"type:bytea"`
	DocumentURL       *string   `gorm:"type:text"`

	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:NO ACTION"`
}

// HasArtifact reports whether a rendered document was stored for c.
func (c *Certificate) HasArtifact() bool {
	return len(c.DocumentBytes) > 0 || (c.DocumentURL != nil && *c.DocumentURL != "")
}

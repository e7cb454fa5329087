// Package storage decides where a rendered certificate document lives.
package storage

import (
	"context"

	"github.com/anjiri1684/training_portal/models"
)

// ArtifactStorage attaches a rendered document to a certificate before it is
// saved and reads it back afterwards.
//
// Put sets either DocumentBytes or DocumentURL on cert. Discard undoes a Put
// whose certificate was never saved. Get returns nil when cert has no
// artifact.
type ArtifactStorage interface {
	Put(ctx context.Context, cert *models.Certificate, doc []byte) error
	Discard(ctx context.Context, cert *models.Certificate) error
	Get(ctx context.Context, cert *models.Certificate) ([]byte, error)
}

// Inline keeps the document in the certificate row.
type Inline struct{}

func (Inline) Put(_ context.Context, cert *models.Certificate, doc []byte) error {
	cert.DocumentBytes = doc
	return nil
}

func (Inline) Discard(context.Context, *models.Certificate) error { return nil }

func (Inline) Get(_ context.Context, cert *models.Certificate) ([]byte, error) {
	if len(cert.DocumentBytes) == 0 {
		return nil, nil
	}
	return cert.DocumentBytes, nil
}

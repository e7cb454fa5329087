package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anjiri1684/training_portal/models"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const (
	cloudinaryFolder = "training_portal_certificates"
	maxDocumentSize  = 20 << 20
)

// rawUploader is the part of the Cloudinary upload API used here.
type rawUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Cloudinary stores documents as raw Cloudinary assets and keeps only the
// secure URL on the certificate.
type Cloudinary struct {
	upload rawUploader
	client *http.Client
}

func NewCloudinary(cloudinaryURL string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return newCloudinary(&cld.Upload, &http.Client{Timeout: 15 * time.Second}), nil
}

func newCloudinary(u rawUploader, client *http.Client) *Cloudinary {
	return &Cloudinary{upload: u, client: client}
}

// Put uploads doc under an ID unique to this certificate row, so a rejected
// attempt that drew an already issued number never touches that number's asset.
func (c *Cloudinary) Put(ctx context.Context, cert *models.Certificate, doc []byte) error {
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	overwrite := false
	result, err := c.upload.Upload(ctx, bytes.NewReader(doc), uploader.UploadParams{
		PublicID:     publicID(cert),
		Folder:       cloudinaryFolder,
		ResourceType: "raw",
		Overwrite:    &overwrite,
	})
	if err != nil {
		return fmt.Errorf("upload certificate %s: %w", cert.CertificateNumber, err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("upload certificate %s: %s", cert.CertificateNumber, result.Error.Message)
	}

	url := result.SecureURL
	cert.DocumentURL = &url
	return nil
}

func (c *Cloudinary) Discard(ctx context.Context, cert *models.Certificate) error {
	if cert.DocumentURL == nil {
		return nil
	}
	_, err := c.upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     cloudinaryFolder + "/" + publicID(cert),
		ResourceType: "raw",
	})
	cert.DocumentURL = nil
	return err
}

// Get prefers bytes kept inline, which covers rows written before the
// Cloudinary strategy was enabled.
func (c *Cloudinary) Get(ctx context.Context, cert *models.Certificate) ([]byte, error) {
	if len(cert.DocumentBytes) > 0 {
		return cert.DocumentBytes, nil
	}
	if cert.DocumentURL == nil || *cert.DocumentURL == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *cert.DocumentURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download certificate %s: %w", cert.CertificateNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download certificate %s: status %d", cert.CertificateNumber, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}

func publicID(cert *models.Certificate) string {
	return fmt.Sprintf("%s_%s.pdf", cert.StudentID, cert.ID)
}

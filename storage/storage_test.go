package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/anjiri1684/training_portal/models"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	args := m.Called(ctx, file, params)
	res, _ := args.Get(0).(*uploader.UploadResult)
	return res, args.Error(1)
}

func (m *mockUploader) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).(*uploader.DestroyResult)
	return res, args.Error(1)
}

func TestInline(t *testing.T) {
	ctx := context.Background()
	cert := &models.Certificate{CertificateNumber: "ZXC2025123456"}

	got, err := Inline{}.Get(ctx, cert)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, Inline{}.Put(ctx, cert, []byte("%PDF-")))
	got, err = Inline{}.Get(ctx, cert)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-"), got)
	assert.NoError(t, Inline{}.Discard(ctx, cert))
}

var (
	certID    = uuid.MustParse("6f1c1f0e-9a43-4c55-8a59-0d4b7c1e2a10")
	studentID = uuid.MustParse("0b7e4c3a-5d8f-4f7a-9c1e-3a2b1c0d9e8f")
	assetID   = studentID.String() + "_" + certID.String() + ".pdf"
)

func TestCloudinaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/raw/"+assetID {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-stored"))
	}))
	defer srv.Close()

	up := &mockUploader{}
	up.On("Upload", mock.Anything, mock.Anything, mock.MatchedBy(func(p uploader.UploadParams) bool {
		return p.PublicID == assetID && p.ResourceType == "raw" && p.Folder == cloudinaryFolder &&
			p.Overwrite != nil && !*p.Overwrite
	})).Return(&uploader.UploadResult{SecureURL: srv.URL + "/raw/" + assetID}, nil)

	store := newCloudinary(up, srv.Client())
	cert := &models.Certificate{ID: certID, StudentID: studentID, CertificateNumber: "ZXC2025123456"}

	require.NoError(t, store.Put(ctx, cert, []byte("%PDF-stored")))
	assert.Nil(t, cert.DocumentBytes)
	require.NotNil(t, cert.DocumentURL)

	got, err := store.Get(ctx, cert)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-stored"), got)
	up.AssertExpectations(t)

	gone := srv.URL + "/raw/missing.pdf"
	got, err = store.Get(ctx, &models.Certificate{CertificateNumber: "ZXC2025000001", DocumentURL: &gone})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCloudinaryPrefersInlineBytes(t *testing.T) {
	store := newCloudinary(&mockUploader{}, http.DefaultClient)

	got, err := store.Get(context.Background(), &models.Certificate{DocumentBytes: []byte("legacy")})
	require.NoError(t, err)
	assert.Equal(t, []byte("legacy"), got)

	got, err = store.Get(context.Background(), &models.Certificate{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCloudinaryUploadFailures(t *testing.T) {
	ctx := context.Background()

	up := &mockUploader{}
	up.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("network down")).Once()
	up.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return(&uploader.UploadResult{Error: api.ErrorResp{Message: "quota exceeded"}}, nil).Once()

	store := newCloudinary(up, http.DefaultClient)

	err := store.Put(ctx, &models.Certificate{CertificateNumber: "ZXC2025123456"}, []byte("x"))
	assert.ErrorContains(t, err, "network down")

	cert := &models.Certificate{CertificateNumber: "ZXC2025123456"}
	err = store.Put(ctx, cert, []byte("x"))
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Nil(t, cert.DocumentURL)
}

func TestCloudinaryDiscard(t *testing.T) {
	up := &mockUploader{}
	up.On("Destroy", mock.Anything, uploader.DestroyParams{
		PublicID:     cloudinaryFolder + "/" + assetID,
		ResourceType: "raw",
	}).Return(&uploader.DestroyResult{Result: "ok"}, nil)

	store := newCloudinary(up, http.DefaultClient)
	url := "https://res.cloudinary.com/demo/raw/upload/x.pdf"
	cert := &models.Certificate{ID: certID, StudentID: studentID, CertificateNumber: "ZXC2025123456", DocumentURL: &url}

	require.NoError(t, store.Discard(context.Background(), cert))
	assert.Nil(t, cert.DocumentURL)
	up.AssertExpectations(t)

	assert.NoError(t, store.Discard(context.Background(), &models.Certificate{}))
}

// assetHost mimics Cloudinary raw uploads with overwrite disabled: uploading
// to an existing public ID keeps the stored asset and returns its URL.
type assetHost struct {
	mu     sync.Mutex
	assets map[string][]byte
	srv    *httptest.Server
}

func newAssetHost(t *testing.T) *assetHost {
	h := &assetHost{assets: make(map[string][]byte)}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		doc, ok := h.assets[strings.TrimPrefix(r.URL.Path, "/raw/")]
		h.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(doc)
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *assetHost) Upload(_ context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	id := params.Folder + "/" + params.PublicID
	doc, err := io.ReadAll(file.(io.Reader))
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.assets[id]; !exists || (params.Overwrite != nil && *params.Overwrite) {
		h.assets[id] = doc
	}
	return &uploader.UploadResult{PublicID: id, SecureURL: h.srv.URL + "/raw/" + id}, nil
}

func (h *assetHost) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.assets, params.PublicID)
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func TestCloudinaryCollisionKeepsIssuedDocument(t *testing.T) {
	ctx := context.Background()
	host := newAssetHost(t)
	store := newCloudinary(host, host.srv.Client())

	issued := &models.Certificate{ID: uuid.New(), StudentID: uuid.New(), CertificateNumber: "ZXC2025123456"}
	require.NoError(t, store.Put(ctx, issued, []byte("%PDF-first")))

	// A later issuance draws the same number, is rejected by the store,
	// discards its upload and retries with a fresh number.
	rejected := &models.Certificate{ID: uuid.New(), StudentID: uuid.New(), CertificateNumber: "ZXC2025123456"}
	require.NoError(t, store.Put(ctx, rejected, []byte("%PDF-second")))
	require.NoError(t, store.Discard(ctx, rejected))

	retried := &models.Certificate{ID: uuid.New(), StudentID: rejected.StudentID, CertificateNumber: "ZXC2025654321"}
	require.NoError(t, store.Put(ctx, retried, []byte("%PDF-second")))

	got, err := store.Get(ctx, issued)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-first"), got)

	got, err = store.Get(ctx, retried)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-second"), got)
}

func TestCloudinaryAssignsIDBeforeUpload(t *testing.T) {
	host := newAssetHost(t)
	store := newCloudinary(host, host.srv.Client())

	cert := &models.Certificate{StudentID: uuid.New(), CertificateNumber: "ZXC2025123456"}
	require.NoError(t, store.Put(context.Background(), cert, []byte("%PDF-")))
	assert.NotEqual(t, uuid.Nil, cert.ID)
	require.NotNil(t, cert.DocumentURL)
	assert.Contains(t, *cert.DocumentURL, cert.ID.String())
}

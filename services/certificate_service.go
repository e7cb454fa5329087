package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/anjiri1684/training_portal/cache"
	"github.com/anjiri1684/training_portal/models"
	"github.com/anjiri1684/training_portal/storage"
	"github.com/anjiri1684/training_portal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxIssueAttempts = 3
	maxCourseNameLen = 255
	notifyTimeout    = 15 * time.Second
	filenameSuffix   = "-certificate.pdf"
)

type StudentDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByName(ctx context.Context, fullName string, limit int) ([]models.User, error)
}

type CertificateRepository interface {
	Save(ctx context.Context, cert *models.Certificate) error
	FindByNumber(ctx context.Context, number string) (*models.Certificate, error)
}

type Renderer interface {
	Render(fields CertificateFields) ([]byte, error)
}

type NumberGenerator interface {
	Generate() string
}

type IssuanceNotifier interface {
	CertificateIssued(ctx context.Context, studentName, email, courseName, number string) error
}

type CertificateServiceDeps struct {
	Students     StudentDirectory
	Certificates CertificateRepository
	Renderer     Renderer
	Numbers      NumberGenerator
	Artifacts    storage.ArtifactStorage
	Cache        cache.VerificationCache
	Notifier     IssuanceNotifier
	Clock        utils.Clock
	Logger       *zap.Logger
}

// CertificateService issues certificates and answers public verification and
// download requests. It holds no mutable state of its own.
type CertificateService struct {
	students     StudentDirectory
	certificates CertificateRepository
	renderer     Renderer
	numbers      NumberGenerator
	artifacts    storage.ArtifactStorage
	cache        cache.VerificationCache
	notifier     IssuanceNotifier
	clock        utils.Clock
	log          *zap.Logger
}

func NewCertificateService(d CertificateServiceDeps) *CertificateService {
	s := &CertificateService{
		students:     d.Students,
		certificates: d.Certificates,
		renderer:     d.Renderer,
		numbers:      d.Numbers,
		artifacts:    d.Artifacts,
		cache:        d.Cache,
		notifier:     d.Notifier,
		clock:        d.Clock,
		log:          d.Logger,
	}
	if s.numbers == nil {
		s.numbers = utils.NewCertificateNumberGenerator(nil, nil)
	}
	if s.artifacts == nil {
		s.artifacts = storage.Inline{}
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.clock == nil {
		s.clock = utils.SystemClock
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

type IssuedCertificate struct {
	CertificateNumber string
	IssuedAt          time.Time
	StudentName       string
	Bytes             []byte
}

type VerificationRecord struct {
	StudentName       string    `json:"studentName"`
	CourseName        string    `json:"courseName"`
	IssuedAt          time.Time `json:"issuedAt"`
	CertificateNumber string    `json:"certificateNumber"`
}

type CertificateDocument struct {
	Bytes    []byte
	Filename string
}

func (s *CertificateService) IssueByStudentID(ctx context.Context, studentID uuid.UUID, courseName string) (*IssuedCertificate, error) {
	course, err := normalizeCourseName(courseName)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("look up student %s: %w", studentID, err)
	}
	if student == nil {
		return nil, &StudentNotFoundError{Ref: studentID.String()}
	}

	return s.issue(ctx, student, course)
}

// IssueByStudentName resolves the student by exact full name. A name shared
// by several users is rejected rather than guessed.
func (s *CertificateService) IssueByStudentName(ctx context.Context, fullName, courseName string) (*IssuedCertificate, error) {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if _, err := normalizeCourseName(courseName); err != nil {
		return nil, err
	}

	matches, err := s.students.FindByName(ctx, name, 2)
	if err != nil {
		return nil, fmt.Errorf("look up student %q: %w", name, err)
	}
	switch len(matches) {
	case 0:
		return nil, &StudentNotFoundError{Ref: name}
	case 1:
		return s.IssueByStudentID(ctx, matches[0].ID, courseName)
	default:
		return nil, &AmbiguousMatchError{Name: name, Matches: len(matches)}
	}
}

func (s *CertificateService) issue(ctx context.Context, student *models.User, course string) (*IssuedCertificate, error) {
	issuedAt := s.clock.Now().UTC()

	var lastErr error
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		number := s.numbers.Generate()

		doc, err := s.renderer.Render(CertificateFields{
			StudentName:       student.FullName,
			CourseName:        course,
			CertificateNumber: number,
			IssueDate:         issuedAt,
		})
		if err != nil {
			return nil, err
		}

		cert := &models.Certificate{
			ID:                uuid.New(),
			CertificateNumber: number,
			CourseName:        course,
			IssuedAt:          issuedAt,
			StudentID:         student.ID,
		}
		if err := s.artifacts.Put(ctx, cert, doc); err != nil {
			return nil, fmt.Errorf("store certificate document: %w", err)
		}

		err = s.certificates.Save(ctx, cert)
		if err == nil {
			s.log.Info("Certificate issued",
				zap.String("certificate_number", number),
				zap.String("student_id", student.ID.String()),
				zap.String("course", course),
				zap.Int("attempt", attempt),
			)
			s.notify(ctx, student, course, number)
			return &IssuedCertificate{
				CertificateNumber: number,
				IssuedAt:          issuedAt,
				StudentName:       student.FullName,
				Bytes:             doc,
			}, nil
		}

		if derr := s.artifacts.Discard(ctx, cert); derr != nil {
			s.log.Warn("Failed to discard unsaved certificate document",
				zap.String("certificate_number", number), zap.Error(derr))
		}
		if !errors.Is(err, ErrDuplicateNumber) {
			return nil, fmt.Errorf("save certificate: %w", err)
		}

		s.log.Warn("Certificate number collision, regenerating",
			zap.String("certificate_number", number), zap.Int("attempt", attempt))
		lastErr = err
	}

	return nil, &IssuanceFailedError{Attempts: maxIssueAttempts, Err: lastErr}
}

func (s *CertificateService) notify(ctx context.Context, student *models.User, course, number string) {
	if s.notifier == nil || student.Email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := s.notifier.CertificateIssued(ctx, student.FullName, student.Email, course, number); err != nil {
			s.log.Warn("Certificate notification failed",
				zap.String("certificate_number", number), zap.Error(err))
		}
	}()
}

// Verify returns the public record for number, or nil when it was never issued.
func (s *CertificateService) Verify(ctx context.Context, number string) (*VerificationRecord, error) {
	number = strings.TrimSpace(number)
	if !utils.IsCertificateNumber(number) {
		return nil, nil
	}

	if rec, ok, err := s.cache.Get(ctx, number); err != nil {
		s.log.Warn("Verification cache read failed", zap.String("certificate_number", number), zap.Error(err))
	} else if ok {
		return &VerificationRecord{
			StudentName:       rec.StudentName,
			CourseName:        rec.CourseName,
			IssuedAt:          rec.IssuedAt,
			CertificateNumber: rec.CertificateNumber,
		}, nil
	}

	cert, err := s.certificates.FindByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("find certificate %s: %w", number, err)
	}
	if cert == nil {
		return nil, nil
	}

	rec := cache.Record{
		StudentName:       cert.Student.FullName,
		CourseName:        cert.CourseName,
		IssuedAt:          cert.IssuedAt,
		CertificateNumber: cert.CertificateNumber,
	}
	if err := s.cache.Set(ctx, rec); err != nil {
		s.log.Warn("Verification cache write failed", zap.String("certificate_number", number), zap.Error(err))
	}

	return &VerificationRecord{
		StudentName:       rec.StudentName,
		CourseName:        rec.CourseName,
		IssuedAt:          rec.IssuedAt,
		CertificateNumber: rec.CertificateNumber,
	}, nil
}

// FetchDocument returns the stored document for number. A certificate without
// a stored document is reported the same way as an unknown number.
func (s *CertificateService) FetchDocument(ctx context.Context, number string) (*CertificateDocument, error) {
	number = strings.TrimSpace(number)
	if !utils.IsCertificateNumber(number) {
		return nil, nil
	}

	cert, err := s.certificates.FindByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("find certificate %s: %w", number, err)
	}
	if cert == nil {
		return nil, nil
	}

	doc, err := s.artifacts.Get(ctx, cert)
	if err != nil {
		return nil, fmt.Errorf("load certificate document %s: %w", number, err)
	}
	if len(doc) == 0 {
		return nil, nil
	}

	return &CertificateDocument{
		Bytes:    doc,
		Filename: DownloadFilename(cert.Student.FullName),
	}, nil
}

// DownloadFilename names a stored certificate after its owner, e.g.
// "Asha_Rao-certificate.pdf".
func DownloadFilename(fullName string) string {
	return filenameFor(fullName, '_')
}

// AttachmentFilename names a freshly issued certificate after the string the
// caller identified the student by, e.g. "Asha-Rao-certificate.pdf".
func AttachmentFilename(subject string) string {
	return filenameFor(subject, '-')
}

func filenameFor(subject string, sep rune) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return sep
		case r == '"' || r == '\\' || r == '/' || unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(subject))
	if base == "" {
		base = "student"
	}
	return base + filenameSuffix
}

func normalizeCourseName(courseName string) (string, error) {
	course := strings.TrimSpace(courseName)
	if course == "" {
		return "", &ValidationError{Field: "courseName", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(course) > maxCourseNameLen {
		return "", &ValidationError{Field: "courseName", Reason: fmt.Sprintf("must be at most %d characters", maxCourseNameLen)}
	}
	return course, nil
}

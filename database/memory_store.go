package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anjiri1684/training_portal/models"
	"github.com/google/uuid"
)

// MemoryUserStore keeps users in process. It backs DB_DRIVER=memory and tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
	owned func(uuid.UUID) bool
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]models.User)}
}

func (s *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryUserStore) FindByName(_ context.Context, fullName string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.sorted() {
		if u.FullName == fullName {
			out = append(out, u)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(), nil
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	if s.owned != nil && s.owned(id) {
		return false, ErrUserHasCertificates
	}
	delete(s.users, id)
	return true, nil
}

func (s *MemoryUserStore) sorted() []models.User {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// MemoryCertificateStore mirrors CertificateStore, including the unique
// certificate number constraint, and resolves students from users.
type MemoryCertificateStore struct {
	mu       sync.RWMutex
	byNumber map[string]models.Certificate
	users    *MemoryUserStore
}

func NewMemoryCertificateStore(users *MemoryUserStore) *MemoryCertificateStore {
	s := &MemoryCertificateStore{
		byNumber: make(map[string]models.Certificate),
		users:    users,
	}
	users.mu.Lock()
	users.owned = s.ownsAny
	users.mu.Unlock()
	return s
}

func (s *MemoryCertificateStore) Save(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byNumber[cert.CertificateNumber]; exists {
		return ErrDuplicateNumber
	}
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}
	stored := *cert
	stored.Student = models.User{}
	if cert.DocumentBytes != nil {
		stored.DocumentBytes = append([]byte(nil), cert.DocumentBytes...)
	}
	s.byNumber[cert.CertificateNumber] = stored
	return nil
}

func (s *MemoryCertificateStore) FindByNumber(ctx context.Context, number string) (*models.Certificate, error) {
	s.mu.RLock()
	cert, ok := s.byNumber[number]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	student, err := s.users.GetByID(ctx, cert.StudentID)
	if err != nil {
		return nil, err
	}
	if student != nil {
		cert.Student = *student
	}
	return &cert, nil
}

func (s *MemoryCertificateStore) CountMissingArtifacts(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, c := range s.byNumber {
		if !c.HasArtifact() {
			n++
		}
	}
	return n, nil
}

func (s *MemoryCertificateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byNumber)
}

// ownsAny is called with the user store lock held.
func (s *MemoryCertificateStore) ownsAny(studentID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.byNumber {
		if c.StudentID == studentID {
			return true
		}
	}
	return false
}

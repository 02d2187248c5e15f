package identity_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockConfig implements identity.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSigningMethod() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetTokenLookup() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockConfig) IsProduction() bool {
	args := m.Called()
	return args.Bool(0)
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetSigningMethod").Return("HS256")
	mockConfig.On("GetContextKey").Return("user")
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetTokenLookup").Return("header:Authorization,cookie:token,query:token")
	mockConfig.On("GetAuthScheme").Return("Bearer")
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{})
	mockConfig.On("IsProduction").Return(false)
	return mockConfig
}

// memUsers is an in-memory identity.Users used by flow tests
type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*identity.User
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[int64]*identity.User{}}
}

func (s *memUsers) seed(user *identity.User) *identity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user.ID = s.nextID
	s.rows[user.ID] = user
	return user
}

func (s *memUsers) GetByID(_ context.Context, id int64) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.rows[id]; ok {
		return user, nil
	}
	return nil, identity.ErrIdentityNotFound
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.rows {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, identity.ErrIdentityNotFound
}

func (s *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.rows {
		if strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memUsers) Create(ctx context.Context, record *identity.User) (*identity.User, error) {
	return s.CreateTx(ctx, nil, record)
}

func (s *memUsers) CreateTx(_ context.Context, _ bun.IDB, record *identity.User) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.rows {
		if strings.EqualFold(user.Email, record.Email) {
			return nil, identity.ErrDuplicateEmail
		}
	}
	if record.Role == "" {
		record.Role = identity.RoleStandardUser
	}
	s.nextID++
	record.ID = s.nextID
	s.rows[record.ID] = record
	return record, nil
}

func (s *memUsers) Deactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.rows[id]
	if !ok {
		return identity.ErrIdentityNotFound
	}
	user.IsActive = false
	return nil
}

var _ identity.Users = (*memUsers)(nil)

// memRepo is an in-memory identity.RepositoryManager. RunInTx executes the
// callback directly; the memory store has no transactional semantics.
type memRepo struct {
	users *memUsers
}

func newMemRepo() *memRepo {
	return &memRepo{users: newMemUsers()}
}

func (m *memRepo) Users() identity.Users { return m.users }
func (m *memRepo) Validate() error { return nil }
func (m *memRepo) MustValidate() {}

func (m *memRepo) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

var _ identity.RepositoryManager = (*memRepo)(nil)

// MockUserStore implements identity.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

// seedUser creates an active user with a hashed password in the store
func seedUser(store *memUsers, email, password string) *identity.User {
	hash, err := identity.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return store.seed(&identity.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		Role:         identity.RoleStandardUser,
	})
}

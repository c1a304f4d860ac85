package account_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	account "github.com/keeril/go-account"
)

// MockLogger implements account.Logger
type MockLogger struct{}

func (MockLogger) Debug(string, ...any) {}
func (MockLogger) Info(string, ...any)  {}
func (MockLogger) Warn(string, ...any)  {}
func (MockLogger) Error(string, ...any) {}

// MockUsers implements the narrow account.Users store
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.User), args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *account.User) (*account.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.User), args.Error(1)
}

func (m *MockUsers) UpdateVerification(ctx context.Context, email string, verified bool, at time.Time) error {
	args := m.Called(ctx, email, verified, at)
	return args.Error(0)
}

func (m *MockUsers) UpdatePassword(ctx context.Context, email, passwordHash string, at time.Time) error {
	args := m.Called(ctx, email, passwordHash, at)
	return args.Error(0)
}

// MockUsersRepository implements account.UsersRepository. The embedded
// repository interface covers the generic methods the tests never reach.
type MockUsersRepository struct {
	mock.Mock
	repository.Repository[*account.User]
}

func (m *MockUsersRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsersRepository) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	args := m.Called(ctx, tx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsersRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsersRepository) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	args := m.Called(ctx, tx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsersRepository) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.User), args.Error(1)
}

func (m *MockUsersRepository) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*account.User, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.User), args.Error(1)
}

func (m *MockUsersRepository) Register(ctx context.Context, user *account.User) (*account.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.User), args.Error(1)
}

func (m *MockUsersRepository) RegisterTx(ctx context.Context, tx bun.IDB, user *account.User) (*account.User, error) {
	args := m.Called(ctx, tx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.User), args.Error(1)
}

func (m *MockUsersRepository) UpdateVerification(ctx context.Context, email string, verified bool, at time.Time) error {
	args := m.Called(ctx, email, verified, at)
	return args.Error(0)
}

func (m *MockUsersRepository) UpdateVerificationTx(ctx context.Context, tx bun.IDB, email string, verified bool, at time.Time) error {
	args := m.Called(ctx, tx, email, verified, at)
	return args.Error(0)
}

func (m *MockUsersRepository) UpdatePassword(ctx context.Context, email, passwordHash string, at time.Time) error {
	args := m.Called(ctx, email, passwordHash, at)
	return args.Error(0)
}

func (m *MockUsersRepository) UpdatePasswordTx(ctx context.Context, tx bun.IDB, email, passwordHash string, at time.Time) error {
	args := m.Called(ctx, tx, email, passwordHash, at)
	return args.Error(0)
}

// MockRepositoryManager implements account.RepositoryManager. RunInTx
// hands the callback an empty bun.Tx; the mocked repositories never
// touch it.
type MockRepositoryManager struct {
	mock.Mock
	users *MockUsersRepository
}

func NewMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{users: &MockUsersRepository{}}
}

func (m *MockRepositoryManager) Users() account.UsersRepository {
	return m.users
}

func (m *MockRepositoryManager) MockUsers() *MockUsersRepository {
	return m.users
}

func (m *MockRepositoryManager) Validate() error {
	return nil
}

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

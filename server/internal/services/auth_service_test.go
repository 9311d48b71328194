package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/mocks"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/token"
)

// MockRegistrar - мок регистрации учетной записи в реестре.
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) RegisterIdentity(ctx context.Context, addr string, kind ledger.Kind) error {
	args := m.Called(ctx, addr, kind)
	return args.Error(0)
}

func newTokens(t *testing.T) *token.Manager {
	t.Helper()
	m, err := token.NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	return m
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		req           models.RegisterRequest
		mockSetup     func(repo *mocks.UserRepository, reg *MockRegistrar)
		expectedError error
		errContains   string
	}{
		{
			name: "Успешная регистрация кошелька",
			req:  models.RegisterRequest{Username: wallet1, Password: "password123"},
			mockSetup: func(repo *mocks.UserRepository, reg *MockRegistrar) {
				repo.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
					return u.Username == wallet1 && u.Kind == "wallet" &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
				})).Return(nil).Once()
				reg.On("RegisterIdentity", ctx, wallet1, ledger.KindWallet).Return(nil).Once()
			},
		},
		{
			name: "Успешная регистрация делегата",
			req:  models.RegisterRequest{Username: botAddr, Password: "p", Kind: "delegate"},
			mockSetup: func(repo *mocks.UserRepository, reg *MockRegistrar) {
				repo.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
					return u.Kind == "delegate"
				})).Return(nil).Once()
				reg.On("RegisterIdentity", ctx, botAddr, ledger.KindDelegate).Return(nil).Once()
			},
		},
		{
			name:          "Неизвестный вид",
			req:           models.RegisterRequest{Username: wallet1, Password: "p", Kind: "contract"},
			mockSetup:     func(*mocks.UserRepository, *MockRegistrar) {},
			expectedError: services.ErrInvalidKind,
		},
		{
			name:          "Адрес контракта зарезервирован",
			req:           models.RegisterRequest{Username: contract, Password: "p"},
			mockSetup:     func(*mocks.UserRepository, *MockRegistrar) {},
			expectedError: services.ErrReservedAddress,
		},
		{
			name:          "Адрес администратора зарезервирован",
			req:           models.RegisterRequest{Username: admin, Password: "p"},
			mockSetup:     func(*mocks.UserRepository, *MockRegistrar) {},
			expectedError: services.ErrReservedAddress,
		},
		{
			name:          "Пустой пароль",
			req:           models.RegisterRequest{Username: wallet1},
			mockSetup:     func(*mocks.UserRepository, *MockRegistrar) {},
			expectedError: services.ErrInvalidInput,
		},
		{
			name:          "Пробел в имени",
			req:           models.RegisterRequest{Username: "wallet 1", Password: "p"},
			mockSetup:     func(*mocks.UserRepository, *MockRegistrar) {},
			expectedError: services.ErrInvalidInput,
		},
		{
			name: "Имя пользователя занято",
			req:  models.RegisterRequest{Username: wallet1, Password: "p"},
			mockSetup: func(repo *mocks.UserRepository, _ *MockRegistrar) {
				repo.On("CreateUser", ctx, mock.Anything).Return(repository.ErrUsernameTaken).Once()
			},
			expectedError: services.ErrUsernameTaken,
		},
		{
			name: "Ошибка репозитория при создании",
			req:  models.RegisterRequest{Username: wallet1, Password: "p"},
			mockSetup: func(repo *mocks.UserRepository, _ *MockRegistrar) {
				repo.On("CreateUser", ctx, mock.Anything).Return(errors.New("some db error")).Once()
			},
			errContains: "внутренняя ошибка сервера при создании пользователя",
		},
		{
			name: "Ошибка регистрации в реестре",
			req:  models.RegisterRequest{Username: wallet1, Password: "p"},
			mockSetup: func(repo *mocks.UserRepository, reg *MockRegistrar) {
				repo.On("CreateUser", ctx, mock.Anything).Return(nil).Once()
				reg.On("RegisterIdentity", ctx, wallet1, ledger.KindWallet).Return(ledger.ErrAlready).Once()
			},
			errContains: "регистрации в реестре",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.UserRepository)
			reg := new(MockRegistrar)
			tt.mockSetup(repo, reg)

			svc := services.NewAuthService(repo, reg, newTokens(t), contract, admin)
			err := svc.Register(ctx, tt.req)

			switch {
			case tt.expectedError != nil:
				require.ErrorIs(t, err, tt.expectedError)
			case tt.errContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			default:
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
			reg.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{Username: botAddr, PasswordHash: string(hash), Kind: "delegate"}

	tests := []struct {
		name          string
		password      string
		mockSetup     func(repo *mocks.UserRepository)
		expectedError error
	}{
		{
			name:     "Успешный вход",
			password: "password123",
			mockSetup: func(repo *mocks.UserRepository) {
				repo.On("GetUserByUsername", ctx, botAddr).Return(stored, nil).Once()
			},
		},
		{
			name:     "Неверный пароль",
			password: "wrong",
			mockSetup: func(repo *mocks.UserRepository) {
				repo.On("GetUserByUsername", ctx, botAddr).Return(stored, nil).Once()
			},
			expectedError: services.ErrInvalidCredentials,
		},
		{
			name:     "Пользователь не найден",
			password: "password123",
			mockSetup: func(repo *mocks.UserRepository) {
				repo.On("GetUserByUsername", ctx, botAddr).Return(nil, repository.ErrUserNotFound).Once()
			},
			expectedError: services.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.UserRepository)
			tt.mockSetup(repo)
			tokens := newTokens(t)

			svc := services.NewAuthService(repo, new(MockRegistrar), tokens)
			resp, err := svc.Login(ctx, botAddr, tt.password)

			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.Equal(t, botAddr, resp.Address)
				assert.Equal(t, "delegate", resp.Kind)
				claims, perr := tokens.Parse(resp.Token)
				require.NoError(t, perr)
				assert.Equal(t, botAddr, claims.Address)
				assert.Equal(t, "delegate", claims.Kind)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_SeedAccount(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name          string
		password      string
		mockSetup     func(repo *mocks.UserRepository, reg *MockRegistrar)
		expectedError error
		errContains   string
	}{
		{
			name:     "Создание учетной записи",
			password: "admin-pw",
			mockSetup: func(repo *mocks.UserRepository, reg *MockRegistrar) {
				repo.On("GetUserByUsername", ctx, admin).Return(nil, repository.ErrUserNotFound).Once()
				repo.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
					return u.Username == admin && u.Kind == "wallet" &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("admin-pw")) == nil
				})).Return(nil).Once()
				reg.On("RegisterIdentity", ctx, admin, ledger.KindWallet).Return(nil).Once()
			},
		},
		{
			name:     "Пароль совпадает",
			password: "admin-pw",
			mockSetup: func(repo *mocks.UserRepository, _ *MockRegistrar) {
				repo.On("GetUserByUsername", ctx, admin).
					Return(&models.User{Username: admin, PasswordHash: string(hash), Kind: "wallet"}, nil).Once()
			},
		},
		{
			name:     "Занятая ранее запись получает пароль из конфигурации",
			password: "new-pw",
			mockSetup: func(repo *mocks.UserRepository, _ *MockRegistrar) {
				repo.On("GetUserByUsername", ctx, admin).
					Return(&models.User{Username: admin, PasswordHash: string(hash), Kind: "wallet"}, nil).Once()
				repo.On("UpdatePasswordHash", ctx, admin, mock.MatchedBy(func(h string) bool {
					return bcrypt.CompareHashAndPassword([]byte(h), []byte("new-pw")) == nil
				})).Return(nil).Once()
			},
		},
		{
			name:     "Запись делегата",
			password: "admin-pw",
			mockSetup: func(repo *mocks.UserRepository, _ *MockRegistrar) {
				repo.On("GetUserByUsername", ctx, admin).
					Return(&models.User{Username: admin, PasswordHash: string(hash), Kind: "delegate"}, nil).Once()
			},
			expectedError: services.ErrSeedKind,
		},
		{
			name:          "Пустой пароль",
			mockSetup:     func(*mocks.UserRepository, *MockRegistrar) {},
			expectedError: services.ErrInvalidInput,
		},
		{
			name:     "Ошибка репозитория",
			password: "admin-pw",
			mockSetup: func(repo *mocks.UserRepository, _ *MockRegistrar) {
				repo.On("GetUserByUsername", ctx, admin).Return(nil, errors.New("some db error")).Once()
			},
			errContains: "some db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.UserRepository)
			reg := new(MockRegistrar)
			tt.mockSetup(repo, reg)

			svc := services.NewAuthService(repo, reg, newTokens(t), contract, admin)
			err := svc.SeedAccount(ctx, admin, tt.password)

			switch {
			case tt.expectedError != nil:
				require.ErrorIs(t, err, tt.expectedError)
			case tt.errContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			default:
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
			reg.AssertExpectations(t)
		})
	}
}

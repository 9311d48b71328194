package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/token"
)

// maxAddressLen - предельная длина адреса (имени пользователя).
const maxAddressLen = 128

// AuthService определяет интерфейс для сервиса аутентификации.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) error
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	// SeedAccount создает или обновляет служебную учетную запись кошелька
	// в обход запрета на регистрацию зарезервированных адресов.
	SeedAccount(ctx context.Context, username, password string) error
}

// IdentityRegistrar фиксирует вид новой учетной записи в реестре.
type IdentityRegistrar interface {
	RegisterIdentity(ctx context.Context, addr string, kind ledger.Kind) error
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo  repository.UserRepository
	registrar IdentityRegistrar
	tokens    *token.Manager
	reserved  map[string]bool
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
// reserved - адреса, которые нельзя занять регистрацией (счет контракта, администратор).
func NewAuthService(
	userRepo repository.UserRepository,
	registrar IdentityRegistrar,
	tokens *token.Manager,
	reserved ...string,
) AuthService {
	r := make(map[string]bool, len(reserved))
	for _, a := range reserved {
		r[a] = true
	}
	return &authService{userRepo: userRepo, registrar: registrar, tokens: tokens, reserved: r}
}

// Register создает учетную запись. Вид (кошелек или делегат) задается один раз.
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := validateAddress(req.Username); err != nil {
		return err
	}
	if s.reserved[req.Username] {
		logging.Warnf("[AuthService] Попытка занять зарезервированный адрес '%s'", req.Username)
		return ErrReservedAddress
	}
	if req.Password == "" {
		return ErrInvalidInput
	}
	kind, err := ledger.ParseKind(req.Kind)
	if err != nil {
		return ErrInvalidKind
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logging.Errorf("[AuthService] Ошибка хеширования пароля для '%s': %v", req.Username, err)
		return errors.New("внутренняя ошибка сервера при хешировании пароля")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		Kind:         kind.String(),
	}
	if err = s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			logging.Infof("[AuthService] Попытка регистрации с занятым именем: %s", req.Username)
			return ErrUsernameTaken
		}
		logging.Errorf("[AuthService] Ошибка репозитория при регистрации '%s': %v", req.Username, err)
		return errors.New("внутренняя ошибка сервера при создании пользователя")
	}

	if err = s.registrar.RegisterIdentity(ctx, req.Username, kind); err != nil {
		// Запись в БД уже есть; при перезапуске реестр подхватит ее из таблицы.
		logging.Errorf("[AuthService] Учетная запись '%s' создана, но не зарегистрирована в реестре: %v", req.Username, err)
		return errors.New("внутренняя ошибка сервера при регистрации в реестре")
	}

	logging.Infof("[AuthService] Пользователь '%s' (%s) успешно зарегистрирован", req.Username, kind)
	return nil
}

// SeedAccount заводит учетную запись администратора при запуске. Если запись
// уже есть, пароль приводится к заданному.
func (s *authService) SeedAccount(ctx context.Context, username, password string) error {
	if err := validateAddress(username); err != nil {
		return err
	}
	if password == "" {
		return ErrInvalidInput
	}

	user, err := s.userRepo.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		hash, hErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hErr != nil {
			return fmt.Errorf("ошибка хеширования пароля: %w", hErr)
		}
		user = &models.User{Username: username, PasswordHash: string(hash), Kind: ledger.KindWallet.String()}
		if err = s.userRepo.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("ошибка создания учетной записи '%s': %w", username, err)
		}
		if err = s.registrar.RegisterIdentity(ctx, username, ledger.KindWallet); err != nil {
			return fmt.Errorf("ошибка регистрации '%s' в реестре: %w", username, err)
		}
		logging.Infof("[AuthService] Служебная учетная запись '%s' создана", username)
		return nil
	case err != nil:
		return fmt.Errorf("ошибка поиска учетной записи '%s': %w", username, err)
	}

	if user.Kind != ledger.KindWallet.String() {
		return fmt.Errorf("%w: '%s' зарегистрирован как %s", ErrSeedKind, username, user.Kind)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	if err = s.userRepo.UpdatePasswordHash(ctx, username, string(hash)); err != nil {
		return fmt.Errorf("ошибка обновления пароля '%s': %w", username, err)
	}
	logging.Warnf("[AuthService] Пароль служебной учетной записи '%s' заменен", username)
	return nil
}

// Login аутентифицирует пользователя и возвращает JWT токен.
func (s *authService) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logging.Infof("[AuthService] Попытка входа несуществующего пользователя: %s", username)
			return nil, ErrInvalidCredentials
		}
		logging.Errorf("[AuthService] Ошибка репозитория при поиске '%s': %v", username, err)
		return nil, errors.New("внутренняя ошибка сервера при поиске пользователя")
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logging.Infof("[AuthService] Неверный пароль для пользователя: %s", username)
		return nil, ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.Username, user.Kind)
	if err != nil {
		logging.Errorf("[AuthService] Ошибка генерации JWT для '%s': %v", username, err)
		return nil, errors.New("внутренняя ошибка сервера при генерации токена")
	}

	logging.Infof("[AuthService] Пользователь '%s' успешно аутентифицирован", username)
	return &models.LoginResponse{Token: signed, Address: user.Username, Kind: user.Kind}, nil
}

// validateAddress проверяет имя пользователя: оно же адрес в реестре.
func validateAddress(addr string) error {
	if addr == "" || len(addr) > maxAddressLen {
		return ErrInvalidInput
	}
	if strings.IndexFunc(addr, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) || r == '/' }) >= 0 {
		return ErrInvalidInput
	}
	return nil
}

// Кастомные ошибки сервиса.
var (
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	ErrUsernameTaken      = errors.New("имя пользователя уже занято")
	ErrReservedAddress    = errors.New("адрес зарезервирован")
	ErrInvalidKind        = errors.New("неизвестный вид учетной записи")
	ErrInvalidInput       = errors.New("имя пользователя и пароль обязательны")
	ErrSeedKind           = errors.New("служебная учетная запись должна быть кошельком")
)

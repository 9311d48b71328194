// Package token выпускает и проверяет JWT токены доступа.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer - значение поля iss в выпускаемых токенах.
const Issuer = "timefi-ledger"

// Claims - полезная нагрузка токена: адрес в реестре и вид учетной записи.
type Claims struct {
	Address string `json:"address"`
	Kind    string `json:"kind"`
	jwt.RegisteredClaims
}

// Manager подписывает и проверяет токены общим секретом.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создает менеджер токенов. Пустой секрет недопустим.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("не задан секрет JWT")
	}
	if ttl <= 0 {
		return nil, errors.New("время жизни токена должно быть положительным")
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue создает и подписывает токен для адреса.
func (m *Manager) Issue(address, kind string) (string, error) {
	now := m.now()
	claims := Claims{
		Address: address,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи JWT: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись, срок действия и издателя токена.
func (m *Manager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(Issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Address == "" {
		return nil, fmt.Errorf("%w: нет адреса", ErrInvalidToken)
	}
	return claims, nil
}

// ErrInvalidToken - токен не прошел проверку.
var ErrInvalidToken = errors.New("невалидный токен")

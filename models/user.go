package models

import "time"

// Виды учетных записей.
const (
	KindWallet   = "wallet"
	KindDelegate = "delegate"
)

// User представляет учетную запись. Имя пользователя совпадает с адресом в реестре.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
type User struct {
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"` // Не отправляем хеш пароля в JSON
	Kind         string    `db:"kind" json:"kind"`       // wallet или delegate, задается один раз
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RegisterRequest представляет тело запроса на регистрацию.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Kind     string `json:"kind,omitempty"` // Пусто - кошелек
}

// LoginRequest представляет тело запроса на вход.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse представляет тело ответа при успешном входе.
type LoginResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
	Kind    string `json:"kind"`
}

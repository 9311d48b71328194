package handlers

import (
	"errors"
	"net/http"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
)

// AuthHandler обрабатывает HTTP-запросы, связанные с аутентификацией.
type AuthHandler struct {
	service services.AuthService
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s services.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

const authTag = "AuthHandler"

// Register обрабатывает запрос на регистрацию нового адреса.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, authTag, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		logging.Infof("[%s] Пустое имя пользователя или пароль при регистрации", authTag)
		writeError(w, http.StatusBadRequest, "Имя пользователя и пароль не могут быть пустыми")
		return
	}

	logging.Infof("[%s] Попытка регистрации пользователя: %s", authTag, req.Username)

	err := h.service.Register(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, services.ErrReservedAddress),
		errors.Is(err, services.ErrInvalidKind),
		errors.Is(err, services.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		logging.Errorf("[%s] Ошибка регистрации '%s': %v", authTag, req.Username, err)
		writeError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	logging.Infof("[%s] Успешная регистрация: %s", authTag, req.Username)
	writeOK(w, http.StatusCreated, true)
}

// Login обрабатывает запрос на вход и выдает JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, authTag, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		logging.Infof("[%s] Пустое имя пользователя или пароль при входе", authTag)
		writeError(w, http.StatusBadRequest, "Имя пользователя и пароль не могут быть пустыми")
		return
	}

	resp, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		logging.Errorf("[%s] Ошибка входа '%s': %v", authTag, req.Username, err)
		writeError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	logging.Infof("[%s] Успешный вход: %s", authTag, req.Username)
	writeOK(w, http.StatusOK, resp)
}

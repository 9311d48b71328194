package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/token"
)

// Тип для ключа контекста.
type contextKey string

// Ключи контекста запроса.
const (
	CallerKey     contextKey = "caller"
	CallerKindKey contextKey = "callerKind"
)

// accessTokenParam - параметр запроса с токеном для клиентов, которые не могут
// выставить заголовок (браузерный websocket).
const accessTokenParam = "access_token"

// Authenticator проверяет JWT токен и кладет адрес вызывающего в контекст.
func Authenticator(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				return401(w, r, raw)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				logging.Infof("[AuthMiddleware] Ошибка проверки токена: %v", err)
				http.Error(w, "Невалидный токен", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), CallerKey, claims.Address)
			ctx = context.WithValue(ctx, CallerKindKey, claims.Kind)
			logging.Debugf("[AuthMiddleware] Запрос от '%s'", claims.Address)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken извлекает токен из заголовка Authorization или параметра access_token.
// При неудаче возвращает содержимое заголовка для диагностики.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if q := r.URL.Query().Get(accessTokenParam); q != "" {
			return q, true
		}
		return "", false
	}

	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") || headerParts[1] == "" {
		return authHeader, false
	}
	return headerParts[1], true
}

func return401(w http.ResponseWriter, r *http.Request, header string) {
	if header == "" {
		logging.Debugf("[AuthMiddleware] Нет токена: %s %s", r.Method, r.URL.Path)
		http.Error(w, "Требуется аутентификация", http.StatusUnauthorized)
		return
	}
	logging.Infof("[AuthMiddleware] Неверный формат заголовка Authorization")
	http.Error(w, "Неверный формат токена", http.StatusUnauthorized)
}

// CallerFromContext извлекает адрес вызывающего из контекста запроса.
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(CallerKey).(string)
	return caller, ok && caller != ""
}

// CallerKindFromContext извлекает вид учетной записи вызывающего.
func CallerKindFromContext(ctx context.Context) string {
	kind, _ := ctx.Value(CallerKindKey).(string)
	return kind
}

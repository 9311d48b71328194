package middleware

import (
	"net/http"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
)

// AdminOnly пропускает только администратора протокола. Используется для
// служебных маршрутов (часы, архивы); операции реестра проверяют права сами.
func AdminOnly(admin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok || caller != admin {
				logging.Warnf("[AdminOnly] Отказ в доступе '%s' к %s %s", caller, r.Method, r.URL.Path)
				http.Error(w, "Требуются права администратора", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/middleware"
)

// TxIDHeader - заголовок с идентификатором зафиксированной транзакции.
const TxIDHeader = "X-Tx-ID"

const maxBodyBytes = 1 << 20

// okEnvelope - успешный ответ. Поле ok присутствует всегда, в том числе для false и 0.
type okEnvelope struct {
	OK any `json:"ok"`
}

// errEnvelope - ответ с ошибкой. Код присутствует только для ошибок реестра.
type errEnvelope struct {
	Err     uint32 `json:"err,omitempty"`
	Message string `json:"message"`
}

// statusByCode - HTTP статус для кода ошибки реестра.
var statusByCode = map[ledger.Code]int{
	ledger.CodeUnauthorized: http.StatusForbidden,
	ledger.CodeNotFound:     http.StatusNotFound,
	ledger.CodeInactive:     http.StatusConflict,
	ledger.CodeAmount:       http.StatusBadRequest,
	ledger.CodeLockPeriod:   http.StatusConflict,
	ledger.CodeAlready:      http.StatusConflict,
	ledger.CodeBot:          http.StatusBadRequest,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorf("[Handlers] Ошибка кодирования ответа: %v", err)
	}
}

// writeOK отправляет {"ok": v}.
func writeOK(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, okEnvelope{OK: v})
}

// writeCommitted отправляет результат изменяющей операции вместе с идентификатором транзакции.
func writeCommitted(w http.ResponseWriter, txID string, v any) {
	if txID != "" {
		w.Header().Set(TxIDHeader, txID)
	}
	writeOK(w, http.StatusOK, v)
}

// writeError отправляет ошибку без кода реестра.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errEnvelope{Message: message})
}

// writeLedgerError переводит ошибку операции в ответ. Ошибки реестра отдаются
// с кодом, остальные скрываются за 500 и пишутся в лог.
func writeLedgerError(w http.ResponseWriter, tag string, err error) {
	if code, ok := ledger.CodeOf(err); ok {
		status, known := statusByCode[code]
		if !known {
			status = http.StatusBadRequest
		}
		logging.Debugf("[%s] Операция отклонена: %v", tag, err)
		writeJSON(w, status, errEnvelope{Err: uint32(code), Message: err.Error()})
		return
	}
	logging.Errorf("[%s] Внутренняя ошибка: %v", tag, err)
	writeError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
}

// decodeJSON читает тело запроса. При ошибке ответ уже отправлен.
func decodeJSON(w http.ResponseWriter, r *http.Request, tag string, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		logging.Infof("[%s] Ошибка декодирования запроса: %v", tag, err)
		writeError(w, http.StatusBadRequest, "Неверный формат запроса")
		return false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Неверный формат запроса")
		return false
	}
	return true
}

// caller возвращает адрес вызывающего. Маршрут должен быть за Authenticator.
func caller(w http.ResponseWriter, r *http.Request, tag string) (ledger.Address, bool) {
	addr, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		logging.Errorf("[%s] Не удалось получить адрес из контекста", tag)
		writeError(w, http.StatusUnauthorized, "Требуется аутентификация")
		return "", false
	}
	return ledger.Address(addr), true
}

// uintParam разбирает параметр маршрута как неотрицательное число.
func uintParam(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Неверный параметр "+name)
		return 0, false
	}
	return v, true
}

// uintQuery разбирает параметр запроса; пустое значение дает def.
func uintQuery(w http.ResponseWriter, r *http.Request, name string, def uint64) (uint64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Неверный параметр "+name)
		return 0, false
	}
	return v, true
}

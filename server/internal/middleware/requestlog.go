package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
)

// RequestLogger пишет журнал HTTP-запросов в логгер сервера, с его уровнем и форматом.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return chimiddleware.RequestLogger(&requestLogFormatter{logger: logger})
}

type requestLogFormatter struct {
	logger *logging.Logger
}

func (f *requestLogFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	return &requestLogEntry{logger: f.logger.With(
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
		"remote", r.RemoteAddr,
	)}
}

type requestLogEntry struct {
	logger *logging.Logger
}

func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	kv := []interface{}{"status", status, "bytes", bytes, "elapsed", elapsed}
	switch {
	case status >= http.StatusInternalServerError:
		e.logger.Error("Запрос обработан", kv...)
	case status >= http.StatusBadRequest:
		e.logger.Warn("Запрос обработан", kv...)
	default:
		e.logger.Info("Запрос обработан", kv...)
	}
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("Паника при обработке запроса", "panic", v, "stack", string(stack))
}

// Package logging настраивает структурированный логгер сервера.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// Logger - структурированный логгер компонента.
type Logger = clog.Logger

// L - логгер процесса. Компоненты берут из него дочерние логгеры через For.
var L = clog.New(os.Stderr)

// New создает логгер с уровнем level (debug|info|warn|error) и форматом format (text|json|logfmt).
func New(w io.Writer, level, format string) (*clog.Logger, error) {
	lvl, err := clog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("неверный уровень логирования %q: %w", level, err)
	}

	var f clog.Formatter
	switch strings.ToLower(format) {
	case "", "text":
		f = clog.TextFormatter
	case "json":
		f = clog.JSONFormatter
	case "logfmt":
		f = clog.LogfmtFormatter
	default:
		return nil, fmt.Errorf("неизвестный формат логов %q", format)
	}

	return clog.NewWithOptions(w, clog.Options{
		Level:           lvl,
		Formatter:       f,
		ReportTimestamp: true,
	}), nil
}

// Init заменяет логгер процесса.
func Init(level, format string) error {
	l, err := New(os.Stderr, level, format)
	if err != nil {
		return err
	}
	L = l
	return nil
}

// For возвращает логгер компонента с префиксом.
func For(component string) *Logger {
	return L.WithPrefix(component)
}

// Debugf логирует форматированное сообщение уровня debug.
func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof логирует форматированное сообщение уровня info.
func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf логирует форматированное сообщение уровня warn.
func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf логирует форматированное сообщение уровня error.
func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}

package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "Текст по умолчанию", level: "info", format: ""},
		{name: "JSON", level: "debug", format: "json"},
		{name: "Logfmt", level: "WARN", format: "logfmt"},
		{name: "Неверный уровень", level: "loud", format: "text", wantErr: true},
		{name: "Неверный формат", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := logging.New(&buf, tt.level, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			l.Error("сообщение", "vault", 1)
			assert.Contains(t, buf.String(), "сообщение")
		})
	}
}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(&buf, "info", "json")
	require.NoError(t, err)

	l.WithPrefix("LedgerService").Info("зафиксировано", "tx", "abc")
	out := buf.String()
	assert.Contains(t, out, "LedgerService")
	assert.Contains(t, out, `"tx":"abc"`)

	buf.Reset()
	l.Debug("не выводится")
	assert.Empty(t, buf.String())
}

package models

import "time"

// EventRecord - строка журнала событий реестра.
// Payload содержит событие целиком (JSON), остальные поля дублируются для выборок.
type EventRecord struct {
	Seq       uint64    `db:"seq"`
	TxID      string    `db:"tx_id"` // Транзакция, в которой событие зафиксировано
	Tick      uint64    `db:"tick"`
	Type      string    `db:"type"`
	Caller    string    `db:"caller"`
	Payload   []byte    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

package models

import "time"

// Archive представляет снимок реестра, выгруженный в объектное хранилище.
type Archive struct {
	ObjectKey string    `db:"object_key" json:"object_key"` // Ключ файла в S3/MinIO
	Height    uint64    `db:"height" json:"height"`         // Высота на момент снимка
	Events    uint64    `db:"events" json:"events"`         // Число событий журнала в снимке
	Checksum  string    `db:"checksum" json:"checksum"`     // SHA256 сжатого файла
	SizeBytes int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

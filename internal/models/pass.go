package models

import "time"

// Pass — выпущенный пропуск; мутируется только перевыпуском (новая версия)
type Pass struct {
	Serial      string            `json:"serial"`
	TemplateID  string            `json:"template_id"`
	AuthToken   string            `json:"-"`
	FieldValues map[string]string `json:"field_values"`
	Version     int64             `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Artifact — неизменяемая подписанная версия пропуска
type Artifact struct {
	Serial       string
	Version      int64
	Archive      []byte
	Manifest     []byte
	Signature    []byte
	LastModified time.Time
}

// Registration — связь устройства и пропуска (many-to-many)
type Registration struct {
	DeviceID     string
	Serial       string
	PushToken    string
	RegisteredAt time.Time
}

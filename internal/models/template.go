package models

// AssetSpec — требование шаблона к одному графическому ресурсу
type AssetSpec struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Template — шаблон пропуска из внешнего каталога (read-only для ядра)
type Template struct {
	ID             string            `json:"template_id"`
	IssuerID       string            `json:"issuer_id"`
	Kind           string            `json:"kind"`
	StaticFields   map[string]string `json:"static_fields"`
	RequiredAssets []AssetSpec       `json:"required_assets"`
	Assets         map[string][]byte `json:"-"`
}

package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"regexp"
	"sort"
	"strings"

	im "github.com/vbncursed/vkr/wallet-service/internal/models"
)

// DefinitionName — имя документа описания пропуска в бандле
const DefinitionName = "pass.json"

// File — один файл бандла, полностью материализованный в памяти
type File struct {
	Name string
	Data []byte
}

// FileSet — упорядоченный набор файлов одной версии пропуска
type FileSet []File

// ValidationError — нарушение требований шаблона; Field называет проблемное поле/ресурс
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bundle: %s: %s", e.Field, e.Reason)
}

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z0-9_.]+)\}`)

// definition — сериализуемый документ pass.json
type definition struct {
	FormatVersion int               `json:"format_version"`
	Kind          string            `json:"kind"`
	TemplateID    string            `json:"template_id"`
	SerialNumber  string            `json:"serial_number"`
	AuthToken     string            `json:"auth_token"`
	Fields        map[string]string `json:"fields"`
}

// Build — собрать полный набор файлов версии пропуска: pass.json со
// статическими полями шаблона, поверх которых наложены значения экземпляра,
// плюс все ресурсы, объявленные шаблоном. Результат детерминирован:
// одинаковый вход дает байт-в-байт одинаковый выход, файлы отсортированы
// по имени (порядок важен для воспроизводимости манифеста).
func Build(tmpl im.Template, serial, authToken string, values map[string]string) (FileSet, error) {
	fields := make(map[string]string, len(tmpl.StaticFields))
	for k, v := range tmpl.StaticFields {
		fields[k] = v
	}
	for k, v := range values {
		fields[k] = v
	}

	// substitute ${name} placeholders from instance values
	for k, v := range fields {
		resolved := placeholderRe.ReplaceAllStringFunc(v, func(m string) string {
			name := placeholderRe.FindStringSubmatch(m)[1]
			if val, ok := values[name]; ok {
				return val
			}
			return m
		})
		if m := placeholderRe.FindStringSubmatch(resolved); m != nil {
			return nil, &ValidationError{Field: m[1], Reason: "unresolved placeholder"}
		}
		fields[k] = resolved
	}

	def := definition{
		FormatVersion: 1,
		Kind:          tmpl.Kind,
		TemplateID:    tmpl.ID,
		SerialNumber:  serial,
		AuthToken:     authToken,
		Fields:        fields,
	}
	defB, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}

	fs := FileSet{{Name: DefinitionName, Data: defB}}

	for _, spec := range tmpl.RequiredAssets {
		data, ok := tmpl.Assets[spec.Name]
		if !ok {
			return nil, &ValidationError{Field: spec.Name, Reason: "required asset missing"}
		}
		if err := checkAsset(spec, data); err != nil {
			return nil, err
		}
	}
	for name, data := range tmpl.Assets {
		if err := checkName(name); err != nil {
			return nil, err
		}
		fs = append(fs, File{Name: name, Data: data})
	}

	sort.Slice(fs, func(i, j int) bool { return fs[i].Name < fs[j].Name })
	return fs, nil
}

// checkAsset — проверка пиксельных размеров PNG против требований шаблона.
// Ресурсы без объявленных размеров (локализации и пр.) не проверяются.
func checkAsset(spec im.AssetSpec, data []byte) error {
	if spec.Width == 0 && spec.Height == 0 {
		return nil
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &ValidationError{Field: spec.Name, Reason: "not a valid png"}
	}
	if cfg.Width != spec.Width || cfg.Height != spec.Height {
		return &ValidationError{
			Field:  spec.Name,
			Reason: fmt.Sprintf("dimensions %dx%d, want %dx%d", cfg.Width, cfg.Height, spec.Width, spec.Height),
		}
	}
	return nil
}

func checkName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return &ValidationError{Field: name, Reason: "invalid file name"}
	}
	return nil
}

// Lookup — найти файл по имени
func (fs FileSet) Lookup(name string) ([]byte, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}

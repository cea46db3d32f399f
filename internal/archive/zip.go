package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/vbncursed/vkr/wallet-service/internal/bundle"
)

// ErrArchive — ошибка упаковки; в корректной работе не возникает
var ErrArchive = errors.New("archive_failed")

const (
	// ManifestName и SignatureName — служебные записи архива кошелька
	ManifestName  = "manifest.json"
	SignatureName = "signature"
)

// zipEpoch — нормализованное время модификации всех записей. Фиксированные
// метаданные дают байт-идентичные архивы для байт-идентичного входа.
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// WriteTo — записать подписанный бандл в zip: все записи в корне архива,
// скрытые и системные файлы пропускаются, метаданные записей нормализованы.
func WriteTo(w io.Writer, fs bundle.FileSet, manifest, signature []byte) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, f := range fs {
		if skip(f.Name) {
			continue
		}
		if err := writeEntry(zw, f.Name, f.Data); err != nil {
			return err
		}
	}
	if err := writeEntry(zw, ManifestName, manifest); err != nil {
		return err
	}
	if err := writeEntry(zw, SignatureName, signature); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrArchive, err)
	}
	return nil
}

// Pack — как WriteTo, но в память
func Pack(fs bundle.FileSet, manifest, signature []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTo(&buf, fs, manifest, signature); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: zipEpoch,
	}
	hdr.SetMode(0o644)
	ew, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArchive, name, err)
	}
	if _, err := ew.Write(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArchive, name, err)
	}
	return nil
}

// skip — скрытые и платформенные артефакты не попадают в архив
func skip(name string) bool {
	base := path.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(name, "__MACOSX")
}

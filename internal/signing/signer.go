package signing

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mozilla.org/pkcs7"

	"github.com/vbncursed/vkr/wallet-service/internal/bundle"
	"github.com/vbncursed/vkr/wallet-service/internal/credential"
)

var (
	ErrSigning            = errors.New("signing_failed")
	ErrCertificateExpired = errors.New("certificate_expired")
	ErrChainIncomplete    = errors.New("chain_incomplete")
)

// Manifest — отображение имени файла в hex-дайджест содержимого.
// Сериализация JSON сортирует ключи, поэтому байты манифеста
// воспроизводимы для одного и того же набора файлов.
func Manifest(fs bundle.FileSet) ([]byte, error) {
	m := make(map[string]string, len(fs))
	for _, f := range fs {
		sum := sha1.Sum(f.Data)
		m[f.Name] = hex.EncodeToString(sum[:])
	}
	return json.Marshal(m)
}

// Sign — вычислить манифест набора файлов и подписать его байты отсоединенной
// подписью PKCS#7. Подпись включает сертификат эмитента и промежуточную
// цепочку, чтобы верификатор проверял доверие без внешних запросов.
func Sign(fs bundle.FileSet, cred *credential.Credential, now time.Time) (manifest, signature []byte, err error) {
	if cred.Expired(now) {
		return nil, nil, ErrCertificateExpired
	}
	// verifiers require the intermediate unless the leaf is self-signed
	if !bytes.Equal(cred.Leaf.RawIssuer, cred.Leaf.RawSubject) && len(cred.Chain) == 0 {
		return nil, nil, ErrChainIncomplete
	}

	manifest, err = Manifest(fs)
	if err != nil {
		return nil, nil, err
	}

	sd, err := pkcs7.NewSignedData(manifest)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	if err := sd.AddSignerChain(cred.Leaf, cred.Key, cred.Chain, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	sd.Detach()
	signature, err = sd.Finish()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return manifest, signature, nil
}

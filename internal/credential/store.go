package credential

import (
	"crypto"
	"crypto/x509"
	"errors"
	"strings"
	"sync"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

var (
	ErrInvalidPassphrase  = errors.New("invalid_passphrase")
	ErrMalformedContainer = errors.New("malformed_container")
	ErrMissingKeyOrCert   = errors.New("missing_key_or_cert")
	ErrCredentialExpired  = errors.New("credential_expired")
)

// Credential — расшифрованные учетные данные эмитента; живут только в памяти процесса
type Credential struct {
	IssuerID string
	Leaf     *x509.Certificate
	Key      crypto.PrivateKey
	Chain    []*x509.Certificate
	NotAfter time.Time
}

// Expired — просрочен ли сертификат на данный момент
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.NotAfter)
}

// Store — кэш учетных данных по issuerID; запись живет до notAfter сертификата
type Store struct {
	passphrase string
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]*Credential
}

func NewStore(passphrase string) *Store {
	return &Store{
		passphrase: passphrase,
		now:        time.Now,
		cache:      make(map[string]*Credential),
	}
}

// Load — вернуть учетные данные эмитента, распарсив PKCS#12 контейнер при
// первом обращении. Повторные обращения идут из кэша до истечения notAfter.
func (s *Store) Load(issuerID string, container []byte) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[issuerID]; ok {
		if c.Expired(s.now()) {
			delete(s.cache, issuerID)
			return nil, ErrCredentialExpired
		}
		return c, nil
	}

	c, err := decode(issuerID, container, s.passphrase)
	if err != nil {
		return nil, err
	}
	if c.Expired(s.now()) {
		return nil, ErrCredentialExpired
	}
	s.cache[issuerID] = c
	return c, nil
}

func decode(issuerID string, container []byte, passphrase string) (*Credential, error) {
	key, leaf, chain, err := pkcs12.DecodeChain(container, passphrase)
	if err != nil {
		switch {
		case errors.Is(err, pkcs12.ErrIncorrectPassword):
			return nil, ErrInvalidPassphrase
		case strings.Contains(err.Error(), "missing"):
			return nil, ErrMissingKeyOrCert
		default:
			return nil, ErrMalformedContainer
		}
	}
	if key == nil || leaf == nil {
		return nil, ErrMissingKeyOrCert
	}
	return &Credential{
		IssuerID: issuerID,
		Leaf:     leaf,
		Key:      key,
		Chain:    chain,
		NotAfter: leaf.NotAfter,
	}, nil
}

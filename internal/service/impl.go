package service

import (
	"time"

	"github.com/vbncursed/vkr/wallet-service/internal/archive"
	"github.com/vbncursed/vkr/wallet-service/internal/bundle"
	"github.com/vbncursed/vkr/wallet-service/internal/credential"
	"github.com/vbncursed/vkr/wallet-service/internal/signing"
)

// RealClock — продовая реализация Clock
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// PKCS7Signer — адаптер Signer поверх internal/signing
type PKCS7Signer struct{}

func (PKCS7Signer) Sign(fs bundle.FileSet, cred *credential.Credential, now time.Time) ([]byte, []byte, error) {
	return signing.Sign(fs, cred, now)
}

// ZipPackager — адаптер Packager поверх internal/archive
type ZipPackager struct{}

func (ZipPackager) Pack(fs bundle.FileSet, manifest, signature []byte) ([]byte, error) {
	return archive.Pack(fs, manifest, signature)
}

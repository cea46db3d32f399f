package service

import (
	"context"
	"time"

	"github.com/vbncursed/vkr/wallet-service/internal/bundle"
	"github.com/vbncursed/vkr/wallet-service/internal/credential"
	im "github.com/vbncursed/vkr/wallet-service/internal/models"
)

// Clock — абстракция времени для тестируемости
type Clock interface {
	Now() time.Time
}

// Signer — абстракция подписи манифеста бандла
type Signer interface {
	Sign(fs bundle.FileSet, cred *credential.Credential, now time.Time) (manifest, signature []byte, err error)
}

// Packager — абстракция упаковки подписанного бандла в архив
type Packager interface {
	Pack(fs bundle.FileSet, manifest, signature []byte) ([]byte, error)
}

// CredentialStore — доступ к расшифрованным учетным данным эмитента
type CredentialStore interface {
	Load(issuerID string, container []byte) (*credential.Credential, error)
}

// Notifier — асинхронная побудка зарегистрированных устройств
type Notifier interface {
	NotifySerial(serial string)
	DeviceSeen(deviceID string)
}

// TemplateSource — шаблоны из внешнего каталога (read-only для ядра)
type TemplateSource interface {
	GetTemplate(ctx context.Context, templateID string) (im.Template, error)
}

// IssuerSource — зашифрованные контейнеры учетных данных эмитентов
type IssuerSource interface {
	GetContainer(ctx context.Context, issuerID string) ([]byte, error)
}

// PassRepository — порт реестра пропусков и их версий
type PassRepository interface {
	InsertPass(ctx context.Context, p im.Pass) error
	GetPass(ctx context.Context, serial string) (im.Pass, error)
	// SavePublish атомарно: обновляет версию/поля/lastModified пропуска,
	// добавляет артефакт и подрезает историю до окна хранения
	SavePublish(ctx context.Context, p im.Pass, art im.Artifact, retain int) error
	LatestArtifact(ctx context.Context, serial string) (im.Artifact, error)
}

// RegistrationRepository — порт регистраций устройств
type RegistrationRepository interface {
	UpsertRegistration(ctx context.Context, r im.Registration) (created bool, err error)
	DeleteRegistration(ctx context.Context, deviceID, serial string) error
	// SerialsChangedSince — серийники устройства, изменившиеся после since,
	// плюс самый свежий lastModified среди всех его пропусков
	SerialsChangedSince(ctx context.Context, deviceID string, since time.Time) ([]string, time.Time, error)
	DeviceHasPassWithToken(ctx context.Context, deviceID, authToken string) (bool, error)
	RegistrationsForSerial(ctx context.Context, serial string) ([]im.Registration, error)
}

// Команда и результат для кейса Issue
type IssueCommand struct {
	TemplateID  string
	FieldValues map[string]string
}

type IssueResult struct {
	Serial       string
	AuthToken    string
	Version      int64
	LastModified time.Time
}

// Команда и результат для кейса Publish (перевыпуск по событию изменения)
type PublishCommand struct {
	Serial      string
	FieldValues map[string]string
	Reason      string
}

type PublishResult struct {
	Serial       string
	Version      int64
	LastModified time.Time
}

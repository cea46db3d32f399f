package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vbncursed/vkr/wallet-service/internal/bundle"
	im "github.com/vbncursed/vkr/wallet-service/internal/models"
)

// Service реализует use case'ы выпуска, перевыпуска и протокола устройств
type Service struct {
	templates TemplateSource
	issuers   IssuerSource
	passes    PassRepository
	regs      RegistrationRepository
	creds     CredentialStore
	clock     Clock
	signer    Signer
	packer    Packager
	notifier  Notifier
	retain    int

	locks *serialLocks
}

func New(templates TemplateSource, issuers IssuerSource, passes PassRepository, regs RegistrationRepository,
	creds CredentialStore, clock Clock, signer Signer, packer Packager, notifier Notifier, retain int) *Service {
	if retain < 2 {
		retain = 2
	}
	return &Service{
		templates: templates,
		issuers:   issuers,
		passes:    passes,
		regs:      regs,
		creds:     creds,
		clock:     clock,
		signer:    signer,
		packer:    packer,
		notifier:  notifier,
		retain:    retain,
		locks:     newSerialLocks(),
	}
}

// Issue — первичный выпуск: создает пропуск с новым серийником и непрозрачным
// authToken, публикует версию 1. Токен генерируется один раз и далее неизменен.
func (s *Service) Issue(ctx context.Context, cmd IssueCommand) (IssueResult, error) {
	if _, err := s.templates.GetTemplate(ctx, cmd.TemplateID); err != nil {
		return IssueResult{}, err
	}

	token, err := newAuthToken()
	if err != nil {
		return IssueResult{}, err
	}
	p := im.Pass{
		Serial:      uuid.New().String(),
		TemplateID:  cmd.TemplateID,
		AuthToken:   token,
		FieldValues: cmd.FieldValues,
		Version:     0,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.passes.InsertPass(ctx, p); err != nil {
		return IssueResult{}, err
	}

	res, err := s.publish(ctx, p.Serial, nil)
	if err != nil {
		return IssueResult{}, err
	}
	return IssueResult{
		Serial:       p.Serial,
		AuthToken:    token,
		Version:      res.Version,
		LastModified: res.LastModified,
	}, nil
}

// Publish — перевыпуск по внешнему событию изменения данных. Серийник,
// authToken и регистрации не меняются, растут только версия и lastModified.
func (s *Service) Publish(ctx context.Context, cmd PublishCommand) (PublishResult, error) {
	return s.publish(ctx, cmd.Serial, cmd.FieldValues)
}

// publish — общий путь публикации: сборка бандла, подпись, упаковка,
// атомарная запись новой версии, затем побудка устройств. Публикации одного
// серийника сериализованы, разных — независимы. Пропуск читается уже под
// замком, иначе две публикации получили бы одну и ту же следующую версию.
func (s *Service) publish(ctx context.Context, serial string, override map[string]string) (PublishResult, error) {
	s.locks.lock(serial)
	defer s.locks.unlock(serial)

	p, err := s.passes.GetPass(ctx, serial)
	if err != nil {
		return PublishResult{}, err
	}
	if override != nil {
		p.FieldValues = override
	}
	values := p.FieldValues

	tmpl, err := s.templates.GetTemplate(ctx, p.TemplateID)
	if err != nil {
		return PublishResult{}, err
	}
	container, err := s.issuers.GetContainer(ctx, tmpl.IssuerID)
	if err != nil {
		return PublishResult{}, err
	}
	cred, err := s.creds.Load(tmpl.IssuerID, container)
	if err != nil {
		return PublishResult{}, err
	}

	fs, err := bundle.Build(tmpl, p.Serial, p.AuthToken, values)
	if err != nil {
		return PublishResult{}, err
	}
	manifest, sig, err := s.signer.Sign(fs, cred, s.clock.Now())
	if err != nil {
		return PublishResult{}, err
	}
	archiveB, err := s.packer.Pack(fs, manifest, sig)
	if err != nil {
		return PublishResult{}, err
	}

	// lastModified строго растет; разрешение одна секунда (гранулярность
	// HTTP-дат условных запросов)
	lastMod := s.clock.Now().UTC().Truncate(time.Second)
	if prev, err := s.passes.LatestArtifact(ctx, p.Serial); err == nil {
		if !lastMod.After(prev.LastModified) {
			lastMod = prev.LastModified.Add(time.Second)
		}
	} else if !errors.Is(err, ErrNotFound) {
		return PublishResult{}, err
	}

	p.Version++
	art := im.Artifact{
		Serial:       p.Serial,
		Version:      p.Version,
		Archive:      archiveB,
		Manifest:     manifest,
		Signature:    sig,
		LastModified: lastMod,
	}
	if err := s.passes.SavePublish(ctx, p, art, s.retain); err != nil {
		return PublishResult{}, err
	}

	s.notifier.NotifySerial(p.Serial)
	return PublishResult{Serial: p.Serial, Version: p.Version, LastModified: lastMod}, nil
}

// RegisterDevice — идемпотентная регистрация устройства на пропуск.
// created=true только для новой регистрации (201 против 200 в протоколе).
func (s *Service) RegisterDevice(ctx context.Context, deviceID, serial, authToken, pushToken string) (created bool, err error) {
	if err := s.checkToken(ctx, serial, authToken); err != nil {
		return false, err
	}
	return s.regs.UpsertRegistration(ctx, im.Registration{
		DeviceID:     deviceID,
		Serial:       serial,
		PushToken:    pushToken,
		RegisteredAt: s.clock.Now().UTC(),
	})
}

// UnregisterDevice — идемпотентное удаление регистрации; отсутствие записи не ошибка
func (s *Service) UnregisterDevice(ctx context.Context, deviceID, serial, authToken string) error {
	if err := s.checkToken(ctx, serial, authToken); err != nil {
		return err
	}
	return s.regs.DeleteRegistration(ctx, deviceID, serial)
}

// ChangedSerials — серийники устройства, изменившиеся после sinceTag.
// Пустой список значит «изменений нет» (204 в протоколе), это не ошибка.
func (s *Service) ChangedSerials(ctx context.Context, deviceID, authToken string, since time.Time) ([]string, time.Time, error) {
	ok, err := s.regs.DeviceHasPassWithToken(ctx, deviceID, authToken)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !ok {
		return nil, time.Time{}, ErrAuthMismatch
	}
	serials, newest, err := s.regs.SerialsChangedSince(ctx, deviceID, since)
	if err != nil {
		return nil, time.Time{}, err
	}
	// устройство опросило сервис — подавление повторных побудок снимается
	s.notifier.DeviceSeen(deviceID)
	return serials, newest, nil
}

// LatestArtifact — текущий архив пропуска с условной выдачей: если артефакт
// не новее ifModifiedSince, возвращается ErrNotModified без тела.
func (s *Service) LatestArtifact(ctx context.Context, serial, authToken string, ifModifiedSince time.Time) (im.Artifact, error) {
	if err := s.checkToken(ctx, serial, authToken); err != nil {
		return im.Artifact{}, err
	}
	art, err := s.passes.LatestArtifact(ctx, serial)
	if err != nil {
		return im.Artifact{}, err
	}
	if !art.LastModified.After(ifModifiedSince) {
		return im.Artifact{}, ErrNotModified
	}
	return art, nil
}

// LogDiagnostics — прием диагностики клиентов; всегда успешен
func (s *Service) LogDiagnostics(deviceID string, messages []string) {
	for _, m := range messages {
		log.Printf("client-log device=%s: %s", deviceID, m)
	}
}

func (s *Service) checkToken(ctx context.Context, serial, authToken string) error {
	p, err := s.passes.GetPass(ctx, serial)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(p.AuthToken), []byte(authToken)) != 1 {
		return ErrAuthMismatch
	}
	return nil
}

// newAuthToken — непрозрачный секрет пропуска; никогда не выводится из серийника
func newAuthToken() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

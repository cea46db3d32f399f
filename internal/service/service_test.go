package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbncursed/vkr/wallet-service/internal/bundle"
	"github.com/vbncursed/vkr/wallet-service/internal/credential"
	im "github.com/vbncursed/vkr/wallet-service/internal/models"
	"github.com/vbncursed/vkr/wallet-service/internal/signing"
)

// fakeStore — потокобезопасная in-memory реализация портов хранилища
type fakeStore struct {
	mu        sync.Mutex
	templates map[string]im.Template
	passes    map[string]im.Pass
	artifacts map[string][]im.Artifact
	regs      map[string]im.Registration // device|serial
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		templates: map[string]im.Template{
			"tmpl-1": {
				ID:           "tmpl-1",
				IssuerID:     "issuer-1",
				Kind:         "loyalty",
				StaticFields: map[string]string{"program": "Coffee Club", "balance": "${balance}"},
				Assets:       map[string][]byte{"icon.png": []byte("png-bytes")},
			},
		},
		passes:    make(map[string]im.Pass),
		artifacts: make(map[string][]im.Artifact),
		regs:      make(map[string]im.Registration),
	}
}

func (f *fakeStore) GetTemplate(_ context.Context, id string) (im.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[id]
	if !ok {
		return im.Template{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) GetContainer(_ context.Context, issuerID string) ([]byte, error) {
	return []byte("container:" + issuerID), nil
}

func (f *fakeStore) InsertPass(_ context.Context, p im.Pass) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passes[p.Serial] = p
	return nil
}

func (f *fakeStore) GetPass(_ context.Context, serial string) (im.Pass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.passes[serial]
	if !ok {
		return im.Pass{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) SavePublish(_ context.Context, p im.Pass, art im.Artifact, retain int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passes[p.Serial] = p
	arts := append(f.artifacts[p.Serial], art)
	var kept []im.Artifact
	for _, a := range arts {
		if a.Version > art.Version-int64(retain) {
			kept = append(kept, a)
		}
	}
	f.artifacts[p.Serial] = kept
	return nil
}

func (f *fakeStore) LatestArtifact(_ context.Context, serial string) (im.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	arts := f.artifacts[serial]
	if len(arts) == 0 {
		return im.Artifact{}, ErrNotFound
	}
	return arts[len(arts)-1], nil
}

func (f *fakeStore) UpsertRegistration(_ context.Context, r im.Registration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := r.DeviceID + "|" + r.Serial
	if _, ok := f.regs[key]; ok {
		return false, nil
	}
	f.regs[key] = r
	return true, nil
}

func (f *fakeStore) DeleteRegistration(_ context.Context, deviceID, serial string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.regs, deviceID+"|"+serial)
	return nil
}

func (f *fakeStore) SerialsChangedSince(_ context.Context, deviceID string, since time.Time) ([]string, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var (
		changed []string
		newest  time.Time
	)
	for _, r := range f.regs {
		if r.DeviceID != deviceID {
			continue
		}
		p := f.passes[r.Serial]
		arts := f.artifacts[p.Serial]
		if len(arts) == 0 {
			continue
		}
		lm := arts[len(arts)-1].LastModified
		if lm.After(since) {
			changed = append(changed, r.Serial)
		}
		if lm.After(newest) {
			newest = lm
		}
	}
	sort.Strings(changed)
	return changed, newest, nil
}

func (f *fakeStore) DeviceHasPassWithToken(_ context.Context, deviceID, authToken string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if r.DeviceID == deviceID && f.passes[r.Serial].AuthToken == authToken {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) RegistrationsForSerial(_ context.Context, serial string) ([]im.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []im.Registration
	for _, r := range f.regs {
		if r.Serial == serial {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) registrationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.regs)
}

// fakeCreds — не трогает PKCS#12, возвращает валидные учетные данные
type fakeCreds struct{}

func (fakeCreds) Load(issuerID string, _ []byte) (*credential.Credential, error) {
	return &credential.Credential{IssuerID: issuerID, NotAfter: time.Now().Add(24 * time.Hour)}, nil
}

// fakeSigner — настоящий манифест, фиктивная подпись; hook для тестов конкурентности
type fakeSigner struct {
	hook func(fs bundle.FileSet)
}

func (s fakeSigner) Sign(fs bundle.FileSet, _ *credential.Credential, _ time.Time) ([]byte, []byte, error) {
	if s.hook != nil {
		s.hook(fs)
	}
	m, err := signing.Manifest(fs)
	if err != nil {
		return nil, nil, err
	}
	return m, []byte("signature"), nil
}

// fakeNotifier — записывает побудки
type fakeNotifier struct {
	mu      sync.Mutex
	serials []string
}

func (n *fakeNotifier) NotifySerial(serial string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.serials = append(n.serials, serial)
}

func (n *fakeNotifier) DeviceSeen(string) {}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.serials)
}

// fakeClock — управляемое время
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService() (*Service, *fakeStore, *fakeNotifier, *fakeClock) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := New(store, store, store, store, fakeCreds{}, clock, fakeSigner{}, ZipPackager{}, notifier, 2)
	return svc, store, notifier, clock
}

func TestIssueCreatesFirstVersion(t *testing.T) {
	svc, store, notifier, _ := newTestService()
	res, err := svc.Issue(context.Background(), IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "42"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Serial)
	assert.NotEmpty(t, res.AuthToken)
	// authToken — отдельный секрет, не производный от серийника
	assert.NotEqual(t, res.Serial, res.AuthToken)
	assert.Equal(t, int64(1), res.Version)

	art, err := store.LatestArtifact(context.Background(), res.Serial)
	require.NoError(t, err)
	assert.Equal(t, int64(1), art.Version)
	assert.NotEmpty(t, art.Archive)
	assert.Equal(t, 1, notifier.count())
}

func TestIssueUnknownTemplate(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Issue(context.Background(), IssueCommand{TemplateID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublishBumpsVersionAndLastModified(t *testing.T) {
	svc, store, _, clock := newTestService()
	res, err := svc.Issue(context.Background(), IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "42"},
	})
	require.NoError(t, err)
	v1, err := store.LatestArtifact(context.Background(), res.Serial)
	require.NoError(t, err)

	clock.advance(5 * time.Second)
	pub, err := svc.Publish(context.Background(), PublishCommand{
		Serial:      res.Serial,
		FieldValues: map[string]string{"balance": "43"},
		Reason:      "balance changed",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), pub.Version)
	assert.True(t, pub.LastModified.After(v1.LastModified))

	// authToken неизменен после перевыпуска
	p, err := store.GetPass(context.Background(), res.Serial)
	require.NoError(t, err)
	assert.Equal(t, res.AuthToken, p.AuthToken)
}

func TestPublishWithinSameSecondStillAdvances(t *testing.T) {
	svc, store, _, _ := newTestService()
	res, err := svc.Issue(context.Background(), IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "42"},
	})
	require.NoError(t, err)
	v1, _ := store.LatestArtifact(context.Background(), res.Serial)

	// часы не двигаются: lastModified обязан вырасти минимум на секунду
	pub, err := svc.Publish(context.Background(), PublishCommand{Serial: res.Serial})
	require.NoError(t, err)
	assert.True(t, pub.LastModified.After(v1.LastModified))
}

func TestRegisterIdempotent(t *testing.T) {
	svc, store, _, _ := newTestService()
	res, err := svc.Issue(context.Background(), IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "42"},
	})
	require.NoError(t, err)

	created, err := svc.RegisterDevice(context.Background(), "D1", res.Serial, res.AuthToken, "push-1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.RegisterDevice(context.Background(), "D1", res.Serial, res.AuthToken, "push-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, store.registrationCount())
}

func TestRegisterWrongToken(t *testing.T) {
	svc, store, _, _ := newTestService()
	res, err := svc.Issue(context.Background(), IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "42"},
	})
	require.NoError(t, err)

	_, err = svc.RegisterDevice(context.Background(), "D1", res.Serial, "wrong", "push-1")
	assert.ErrorIs(t, err, ErrAuthMismatch)
	assert.Equal(t, 0, store.registrationCount())
}

func TestUnregisterIsNoopWhenAbsent(t *testing.T) {
	svc, _, _, _ := newTestService()
	res, err := svc.Issue(context.Background(), IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "42"},
	})
	require.NoError(t, err)
	assert.NoError(t, svc.UnregisterDevice(context.Background(), "D1", res.Serial, res.AuthToken))
}

func TestLatestArtifactConditional(t *testing.T) {
	svc, _, _, _ := newTestService()
	res, err := svc.Issue(context.Background(), IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "42"},
	})
	require.NoError(t, err)

	art, err := svc.LatestArtifact(context.Background(), res.Serial, res.AuthToken, time.Time{})
	require.NoError(t, err)

	// ровно на границе — 304
	_, err = svc.LatestArtifact(context.Background(), res.Serial, res.AuthToken, art.LastModified)
	assert.ErrorIs(t, err, ErrNotModified)

	// строго раньше — 200
	got, err := svc.LatestArtifact(context.Background(), res.Serial, res.AuthToken, art.LastModified.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, art.Version, got.Version)
}

// Сценарий из жизни пропуска: выпуск, регистрация, перевыпуск, опрос, выдача, 304
func TestDeviceSyncScenario(t *testing.T) {
	svc, _, _, clock := newTestService()
	ctx := context.Background()

	res, err := svc.Issue(ctx, IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "42"},
	})
	require.NoError(t, err)

	created, err := svc.RegisterDevice(ctx, "D1", res.Serial, res.AuthToken, "push-1")
	require.NoError(t, err)
	require.True(t, created)

	v1, err := svc.LatestArtifact(ctx, res.Serial, res.AuthToken, time.Time{})
	require.NoError(t, err)

	clock.advance(10 * time.Second)
	_, err = svc.Publish(ctx, PublishCommand{
		Serial:      res.Serial,
		FieldValues: map[string]string{"balance": "100"},
	})
	require.NoError(t, err)

	serials, newest, err := svc.ChangedSerials(ctx, "D1", res.AuthToken, v1.LastModified)
	require.NoError(t, err)
	assert.Equal(t, []string{res.Serial}, serials)

	v2, err := svc.LatestArtifact(ctx, res.Serial, res.AuthToken, v1.LastModified)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.Version)
	assert.Equal(t, newest, v2.LastModified)
	assert.NotEqual(t, v1.Archive, v2.Archive)

	_, err = svc.LatestArtifact(ctx, res.Serial, res.AuthToken, v2.LastModified)
	assert.ErrorIs(t, err, ErrNotModified)

	serials, _, err = svc.ChangedSerials(ctx, "D1", res.AuthToken, v2.LastModified)
	require.NoError(t, err)
	assert.Empty(t, serials)
}

func TestChangedSerialsWrongToken(t *testing.T) {
	svc, _, _, _ := newTestService()
	res, err := svc.Issue(context.Background(), IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "42"},
	})
	require.NoError(t, err)
	_, err = svc.RegisterDevice(context.Background(), "D1", res.Serial, res.AuthToken, "push-1")
	require.NoError(t, err)

	_, _, err = svc.ChangedSerials(context.Background(), "D1", "wrong", time.Time{})
	assert.ErrorIs(t, err, ErrAuthMismatch)
}

func TestConcurrentPublishSameSerial(t *testing.T) {
	svc, store, _, _ := newTestService()
	res, err := svc.Issue(context.Background(), IssueCommand{
		TemplateID:  "tmpl-1",
		FieldValues: map[string]string{"balance": "0"},
	})
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Publish(context.Background(), PublishCommand{Serial: res.Serial})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := store.GetPass(context.Background(), res.Serial)
	require.NoError(t, err)
	assert.Equal(t, int64(1+n), p.Version)

	art, err := store.LatestArtifact(context.Background(), res.Serial)
	require.NoError(t, err)
	assert.Equal(t, p.Version, art.Version)
}

func TestPublishDifferentSerialsDoNotBlock(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	var (
		gateMu     sync.Mutex
		gateSerial string
	)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	signer := fakeSigner{hook: func(fs bundle.FileSet) {
		def, _ := fs.Lookup(bundle.DefinitionName)
		gateMu.Lock()
		blocked := gateSerial != "" && strings.Contains(string(def), gateSerial)
		gateMu.Unlock()
		if blocked {
			entered <- struct{}{}
			<-release
		}
	}}
	svc := New(store, store, store, store, fakeCreds{}, clock, signer, ZipPackager{}, notifier, 2)

	ctx := context.Background()
	r1, err := svc.Issue(ctx, IssueCommand{TemplateID: "tmpl-1", FieldValues: map[string]string{"balance": "1"}})
	require.NoError(t, err)
	r2, err := svc.Issue(ctx, IssueCommand{TemplateID: "tmpl-1", FieldValues: map[string]string{"balance": "2"}})
	require.NoError(t, err)

	gateMu.Lock()
	gateSerial = r1.Serial
	gateMu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Publish(ctx, PublishCommand{Serial: r1.Serial})
		done <- err
	}()
	<-entered // публикация r1 застряла в подписи

	// публикация другого серийника проходит, не дожидаясь r1
	pub, err := svc.Publish(ctx, PublishCommand{Serial: r2.Serial})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pub.Version)

	close(release)
	require.NoError(t, <-done)
}

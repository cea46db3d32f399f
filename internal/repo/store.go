package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	im "github.com/vbncursed/vkr/wallet-service/internal/models"
	"github.com/vbncursed/vkr/wallet-service/internal/service"
)

// Store — адаптер Postgres, реализующий порты service.* и push.RegistrationSource
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// TemplateSource
func (s *Store) GetTemplate(ctx context.Context, templateID string) (im.Template, error) {
	var (
		t         im.Template
		staticB   []byte
		requiredB []byte
	)
	t.ID = templateID
	err := s.pool.QueryRow(ctx,
		`SELECT `+colIssuerID+`, `+colKind+`, `+colStaticFields+`, `+colRequiredAssets+` FROM `+tableTemplates+` WHERE `+colTemplateID+`=$1`,
		templateID).Scan(&t.IssuerID, &t.Kind, &staticB, &requiredB)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return im.Template{}, service.ErrNotFound
		}
		return im.Template{}, err
	}
	if err := json.Unmarshal(staticB, &t.StaticFields); err != nil {
		return im.Template{}, err
	}
	if err := json.Unmarshal(requiredB, &t.RequiredAssets); err != nil {
		return im.Template{}, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+colName+`, `+colData+` FROM `+tableTemplateAssets+` WHERE `+colTemplateID+`=$1`, templateID)
	if err != nil {
		return im.Template{}, err
	}
	defer rows.Close()
	t.Assets = make(map[string][]byte)
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return im.Template{}, err
		}
		t.Assets[name] = data
	}
	return t, rows.Err()
}

// IssuerSource
func (s *Store) GetContainer(ctx context.Context, issuerID string) ([]byte, error) {
	var container []byte
	err := s.pool.QueryRow(ctx,
		`SELECT `+colContainer+` FROM `+tableIssuers+` WHERE `+colIssuerID+`=$1`, issuerID).Scan(&container)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrNotFound
	}
	return container, err
}

// PassRepository
func (s *Store) InsertPass(ctx context.Context, p im.Pass) error {
	valuesB, err := json.Marshal(p.FieldValues)
	if err != nil {
		return err
	}
	cmd := `INSERT INTO ` + tablePasses + ` (` +
		colSerial + `, ` + colTemplateID + `, ` + colAuthToken + `, ` + colFieldValues + `, ` + colVersion + `, ` + colCreatedAt + `)
            VALUES ($1,$2,$3,$4,$5,$6)`
	_, err = s.pool.Exec(ctx, cmd, p.Serial, p.TemplateID, p.AuthToken, valuesB, p.Version, p.CreatedAt)
	return err
}

func (s *Store) GetPass(ctx context.Context, serial string) (im.Pass, error) {
	var (
		p       im.Pass
		valuesB []byte
	)
	p.Serial = serial
	err := s.pool.QueryRow(ctx,
		`SELECT `+colTemplateID+`, `+colAuthToken+`, `+colFieldValues+`, `+colVersion+`, `+colCreatedAt+` FROM `+tablePasses+` WHERE `+colSerial+`=$1`,
		serial).Scan(&p.TemplateID, &p.AuthToken, &valuesB, &p.Version, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return im.Pass{}, service.ErrNotFound
		}
		return im.Pass{}, err
	}
	if err := json.Unmarshal(valuesB, &p.FieldValues); err != nil {
		return im.Pass{}, err
	}
	return p, nil
}

// SavePublish — одна транзакция: версия пропуска, новый артефакт, подрезка
// истории. Читатели видят либо прежнюю, либо новую версию целиком.
func (s *Store) SavePublish(ctx context.Context, p im.Pass, art im.Artifact, retain int) error {
	valuesB, err := json.Marshal(p.FieldValues)
	if err != nil {
		return err
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx,
		`UPDATE `+tablePasses+` SET `+colFieldValues+`=$2, `+colVersion+`=$3, `+colLastModified+`=$4 WHERE `+colSerial+`=$1`,
		p.Serial, valuesB, art.Version, art.LastModified); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO `+tableArtifacts+` (`+colSerial+`, `+colVersion+`, `+colArchive+`, `+colManifest+`, `+colSignature+`, `+colLastModified+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		art.Serial, art.Version, art.Archive, art.Manifest, art.Signature, art.LastModified); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM `+tableArtifacts+` WHERE `+colSerial+`=$1 AND `+colVersion+` <= $2`,
		art.Serial, art.Version-int64(retain)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) LatestArtifact(ctx context.Context, serial string) (im.Artifact, error) {
	var art im.Artifact
	err := s.pool.QueryRow(ctx,
		`SELECT `+colSerial+`, `+colVersion+`, `+colArchive+`, `+colManifest+`, `+colSignature+`, `+colLastModified+` FROM `+tableArtifacts+` WHERE `+colSerial+`=$1 ORDER BY `+colVersion+` DESC LIMIT 1`,
		serial).Scan(&art.Serial, &art.Version, &art.Archive, &art.Manifest, &art.Signature, &art.LastModified)
	if errors.Is(err, pgx.ErrNoRows) {
		return im.Artifact{}, service.ErrNotFound
	}
	return art, err
}

// RegistrationRepository
func (s *Store) UpsertRegistration(ctx context.Context, r im.Registration) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO `+tableRegistrations+` (`+colDeviceID+`, `+colSerial+`, `+colPushToken+`, `+colRegisteredAt+`) VALUES ($1,$2,$3,$4)
         ON CONFLICT (`+colDeviceID+`, `+colSerial+`) DO NOTHING`,
		r.DeviceID, r.Serial, r.PushToken, r.RegisteredAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) DeleteRegistration(ctx context.Context, deviceID, serial string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM `+tableRegistrations+` WHERE `+colDeviceID+`=$1 AND `+colSerial+`=$2`, deviceID, serial)
	return err
}

func (s *Store) SerialsChangedSince(ctx context.Context, deviceID string, since time.Time) ([]string, time.Time, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.`+colSerial+`, p.`+colLastModified+`
           FROM `+tableRegistrations+` r
           JOIN `+tablePasses+` p ON p.`+colSerial+`=r.`+colSerial+`
          WHERE r.`+colDeviceID+`=$1 AND p.`+colLastModified+` IS NOT NULL
          ORDER BY p.`+colSerial, deviceID)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var (
		changed []string
		newest  time.Time
	)
	for rows.Next() {
		var serial string
		var lm time.Time
		if err := rows.Scan(&serial, &lm); err != nil {
			return nil, time.Time{}, err
		}
		if lm.After(since) {
			changed = append(changed, serial)
		}
		if lm.After(newest) {
			newest = lm
		}
	}
	return changed, newest, rows.Err()
}

func (s *Store) DeviceHasPassWithToken(ctx context.Context, deviceID, authToken string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
           SELECT 1 FROM `+tableRegistrations+` r
             JOIN `+tablePasses+` p ON p.`+colSerial+`=r.`+colSerial+`
            WHERE r.`+colDeviceID+`=$1 AND p.`+colAuthToken+`=$2)`,
		deviceID, authToken).Scan(&ok)
	return ok, err
}

// push.RegistrationSource
func (s *Store) RegistrationsForSerial(ctx context.Context, serial string) ([]im.Registration, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+colDeviceID+`, `+colSerial+`, `+colPushToken+`, `+colRegisteredAt+` FROM `+tableRegistrations+` WHERE `+colSerial+`=$1`,
		serial)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []im.Registration
	for rows.Next() {
		var r im.Registration
		if err := rows.Scan(&r.DeviceID, &r.Serial, &r.PushToken, &r.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

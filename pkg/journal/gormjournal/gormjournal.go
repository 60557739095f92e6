package gormjournal

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/modelkit/toolcall/pkg/journal"
)

// Option allows configuring the DB connection.
type Option func(*config)

type config struct {
	Logger logger.Interface
}

// WithLogger sets a custom GORM logger.
func WithLogger(l logger.Interface) Option { return func(c *config) { c.Logger = l } }

// Open opens a Postgres-backed GORM DB connection using the provided DSN
// and migrates the journal tables.
func Open(dsn string, opts ...Option) (*Store, error) {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	gormCfg := &gorm.Config{}
	if cfg.Logger != nil {
		gormCfg.Logger = cfg.Logger
	}
	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&EntryModel{}, &ManifestModel{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// EntryModel represents the GORM model for journal entries.
type EntryModel struct {
	EntryID   string    `gorm:"primaryKey;type:text"`
	BatchID   string    `gorm:"index;uniqueIndex:jr_batch_seq;type:text;not null"`
	Seq       int64     `gorm:"uniqueIndex:jr_batch_seq;not null"`
	Tool      string    `gorm:"type:text;not null"`
	CallID    string    `gorm:"type:text;not null"`
	Arguments []byte    `gorm:"type:bytea"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index;not null"`
}

func (EntryModel) TableName() string { return "journal_entries" }

// ManifestModel represents the GORM model for registry manifests.
type ManifestModel struct {
	ManifestID string    `gorm:"primaryKey;type:text"`
	Scope      string    `gorm:"uniqueIndex:jr_scope_version;type:text;not null"`
	Version    int64     `gorm:"uniqueIndex:jr_scope_version;not null"`
	Schemas    []byte    `gorm:"type:bytea;not null"`
	CreatedAt  time.Time `gorm:"index;not null"`
}

func (ManifestModel) TableName() string { return "registry_manifests" }

// Store implements journal.Journal using GORM.
type Store struct{ db *gorm.DB }

var _ journal.Journal = (*Store)(nil)

// AppendEntry inserts one entry, assigning the next sequence number in its
// batch when Seq is zero. Re-appending an existing EntryID returns the
// stored entry unchanged.
func (s *Store) AppendEntry(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	var out journal.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if e.EntryID != "" {
			var existing EntryModel
			err := tx.Where("entry_id = ?", e.EntryID).First(&existing).Error
			if err == nil {
				out = entryFromModel(existing)
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if e.Seq == 0 {
			var last int64
			if err := tx.Model(&EntryModel{}).Where("batch_id = ?", e.BatchID).
				Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
				return err
			}
			e.Seq = last + 1
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		m := modelFromEntry(e)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return journal.Entry{}, err
	}
	return out, nil
}

// GetEntryByID fetches one entry by its id.
func (s *Store) GetEntryByID(ctx context.Context, entryID string) (journal.Entry, error) {
	var m EntryModel
	err := s.db.WithContext(ctx).Where("entry_id = ?", entryID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return journal.Entry{}, journal.ErrNotFound
	}
	if err != nil {
		return journal.Entry{}, err
	}
	return entryFromModel(m), nil
}

// ListByBatch returns entries with Seq greater than afterSeq ordered by Seq.
// A limit of zero or less returns all matching entries.
func (s *Store) ListByBatch(ctx context.Context, batchID string, afterSeq int64, limit int) ([]journal.Entry, error) {
	q := s.db.WithContext(ctx).Where("batch_id = ? AND seq > ?", batchID, afterSeq).Order("seq asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []EntryModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]journal.Entry, 0, len(models))
	for _, m := range models {
		out = append(out, entryFromModel(m))
	}
	return out, nil
}

// LastSeq returns the highest sequence number in a batch, zero when empty.
func (s *Store) LastSeq(ctx context.Context, batchID string) (int64, error) {
	var last int64
	err := s.db.WithContext(ctx).Model(&EntryModel{}).Where("batch_id = ?", batchID).
		Select("COALESCE(MAX(seq), 0)").Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last, nil
}

// SaveManifest stores a manifest, assigning the next version in its scope
// when Version is zero. Saving an existing (scope, version) pair returns
// the stored manifest unchanged.
func (s *Store) SaveManifest(ctx context.Context, m journal.Manifest) (journal.Manifest, error) {
	var out journal.Manifest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.Version != 0 {
			var existing ManifestModel
			err := tx.Where("scope = ? AND version = ?", m.Scope, m.Version).First(&existing).Error
			if err == nil {
				out = manifestFromModel(existing)
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		} else {
			var last int64
			if err := tx.Model(&ManifestModel{}).Where("scope = ?", m.Scope).
				Select("COALESCE(MAX(version), 0)").Scan(&last).Error; err != nil {
				return err
			}
			m.Version = last + 1
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		rec := ManifestModel{
			ManifestID: m.ManifestID,
			Scope:      m.Scope,
			Version:    m.Version,
			Schemas:    m.Schemas,
			CreatedAt:  m.CreatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return journal.Manifest{}, err
	}
	return out, nil
}

// LoadLatestManifest fetches the highest-version manifest for a scope.
func (s *Store) LoadLatestManifest(ctx context.Context, scope string) (journal.Manifest, error) {
	var m ManifestModel
	err := s.db.WithContext(ctx).Where("scope = ?", scope).Order("version desc").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return journal.Manifest{}, journal.ErrNotFound
	}
	if err != nil {
		return journal.Manifest{}, err
	}
	return manifestFromModel(m), nil
}

func entryFromModel(m EntryModel) journal.Entry {
	return journal.Entry{
		EntryID:   m.EntryID,
		BatchID:   m.BatchID,
		Seq:       m.Seq,
		Tool:      m.Tool,
		CallID:    m.CallID,
		Arguments: m.Arguments,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func modelFromEntry(e journal.Entry) EntryModel {
	return EntryModel{
		EntryID:   e.EntryID,
		BatchID:   e.BatchID,
		Seq:       e.Seq,
		Tool:      e.Tool,
		CallID:    e.CallID,
		Arguments: e.Arguments,
		Content:   e.Content,
		CreatedAt: e.CreatedAt,
	}
}

func manifestFromModel(m ManifestModel) journal.Manifest {
	return journal.Manifest{
		ManifestID: m.ManifestID,
		Scope:      m.Scope,
		Version:    m.Version,
		Schemas:    m.Schemas,
		CreatedAt:  m.CreatedAt,
	}
}

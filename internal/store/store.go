package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flavien-hugs/unsta-sfs/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrNotFound signals an absent record; callers map it to their own taxonomy.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate signals a unique-index violation on insert.
	ErrDuplicate = errors.New("store: duplicate key")
)

// BucketFilter narrows bucket listings; empty fields match everything.
type BucketFilter struct {
	Name        string
	Description string
}

// MediaFilter narrows media listings; empty fields match everything.
type MediaFilter struct {
	BucketName string
	Filename   string
	Public     *bool
	Tags       map[string]string
}

// MetadataStore is the document-side capability: queryable attributes for
// buckets and media, with unique keys bucket.name and media.(bucket_name,
// object_key).
type MetadataStore interface {
	InsertBucket(ctx context.Context, b *models.Bucket) error
	FindBucket(ctx context.Context, name string) (*models.Bucket, error)
	ListBuckets(ctx context.Context, f BucketFilter, sortDesc bool) ([]models.Bucket, error)
	DeleteBucket(ctx context.Context, name string) error

	InsertMedia(ctx context.Context, m *models.Media) error
	FindMedia(ctx context.Context, bucket, key string) (*models.Media, error)
	ListMedia(ctx context.Context, f MediaFilter, sortDesc bool) ([]models.Media, error)
	UpdateMedia(ctx context.Context, m *models.Media) error
	DeleteMedia(ctx context.Context, bucket, key string) error
	DeleteMediaInBucket(ctx context.Context, bucket string) (int64, error)

	// FindPublicMedia is the store-side public-access filter: it matches only
	// records with is_public set whose TTL window, when present, has not
	// elapsed at instant now (strictly now < updated_at + ttl_minutes).
	FindPublicMedia(ctx context.Context, bucket, key string, now time.Time) (*models.Media, error)
}

// Store is the gorm-backed MetadataStore.
type Store struct {
	gdb      *gorm.DB
	postgres bool
}

var _ MetadataStore = (*Store)(nil)

func New(gdb *gorm.DB) *Store {
	return &Store{gdb: gdb, postgres: gdb.Dialector.Name() == "postgres"}
}

func (s *Store) InsertBucket(ctx context.Context, b *models.Bucket) error {
	return translate(s.gdb.WithContext(ctx).Create(b).Error)
}

func (s *Store) FindBucket(ctx context.Context, name string) (*models.Bucket, error) {
	var b models.Bucket
	if err := s.gdb.WithContext(ctx).Where("name = ?", name).First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *Store) ListBuckets(ctx context.Context, f BucketFilter, sortDesc bool) ([]models.Bucket, error) {
	q := s.gdb.WithContext(ctx).Model(&models.Bucket{})
	if f.Name != "" {
		q = q.Where("name LIKE ?", "%"+f.Name+"%")
	}
	if f.Description != "" {
		q = q.Where("description LIKE ?", "%"+f.Description+"%")
	}
	var out []models.Bucket
	if err := q.Order(orderBy(sortDesc)).Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *Store) DeleteBucket(ctx context.Context, name string) error {
	return translate(s.gdb.WithContext(ctx).Where("name = ?", name).Delete(&models.Bucket{}).Error)
}

func (s *Store) InsertMedia(ctx context.Context, m *models.Media) error {
	return translate(s.gdb.WithContext(ctx).Create(m).Error)
}

func (s *Store) FindMedia(ctx context.Context, bucket, key string) (*models.Media, error) {
	var m models.Media
	err := s.gdb.WithContext(ctx).Where("bucket_name = ? AND object_key = ?", bucket, key).First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *Store) ListMedia(ctx context.Context, f MediaFilter, sortDesc bool) ([]models.Media, error) {
	q := s.gdb.WithContext(ctx).Model(&models.Media{})
	if f.BucketName != "" {
		q = q.Where("bucket_name LIKE ?", "%"+f.BucketName+"%")
	}
	if f.Filename != "" {
		q = q.Where("object_key LIKE ?", "%"+f.Filename+"%")
	}
	if f.Public != nil {
		q = q.Where("is_public = ?", *f.Public)
	}
	// Tags live in a JSON text column; equality is matched on the encoded pair.
	for k, v := range f.Tags {
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(v)
		q = q.Where("tags LIKE ?", "%"+string(kb)+":"+string(vb)+"%")
	}
	var out []models.Media
	if err := q.Order(orderBy(sortDesc)).Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *Store) UpdateMedia(ctx context.Context, m *models.Media) error {
	return translate(s.gdb.WithContext(ctx).Save(m).Error)
}

func (s *Store) DeleteMedia(ctx context.Context, bucket, key string) error {
	return translate(s.gdb.WithContext(ctx).
		Where("bucket_name = ? AND object_key = ?", bucket, key).
		Delete(&models.Media{}).Error)
}

func (s *Store) DeleteMediaInBucket(ctx context.Context, bucket string) (int64, error) {
	res := s.gdb.WithContext(ctx).Where("bucket_name = ?", bucket).Delete(&models.Media{})
	return res.RowsAffected, translate(res.Error)
}

func (s *Store) FindPublicMedia(ctx context.Context, bucket, key string, now time.Time) (*models.Media, error) {
	// No-TTL records never expire; otherwise the window is strict:
	// accessible iff now < updated_at + ttl_minutes.
	var expires string
	if s.postgres {
		expires = "updated_at + (ttl_minutes * interval '1 minute') > ?"
	} else {
		expires = "datetime(updated_at, '+' || ttl_minutes || ' minutes') > datetime(?)"
	}
	var m models.Media
	err := s.gdb.WithContext(ctx).
		Where("bucket_name = ? AND object_key = ?", bucket, key).
		Where("is_public = ?", true).
		Where(fmt.Sprintf("(ttl_minutes IS NULL OR %s)", expires), now.UTC()).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func orderBy(desc bool) string {
	if desc {
		return "created_at DESC"
	}
	return "created_at ASC"
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

package service

import (
	"context"
	"net/http"

	"github.com/flavien-hugs/unsta-sfs/internal/config"
	"github.com/flavien-hugs/unsta-sfs/internal/logging"
	"github.com/flavien-hugs/unsta-sfs/internal/models"
	"github.com/flavien-hugs/unsta-sfs/internal/s3"
	"github.com/flavien-hugs/unsta-sfs/internal/store"
)

// Buckets owns bucket existence checks, creation, and full deletion
// including the batched object purge. All backend calls within one operation
// are strictly sequential; metadata is only removed after the object store
// confirmed the corresponding bytes are gone.
type Buckets struct {
	objects s3.ObjectStore
	meta    store.MetadataStore
	cfg     *config.Config
	log     logging.Logger
}

func NewBuckets(objects s3.ObjectStore, meta store.MetadataStore, cfg *config.Config, log logging.Logger) *Buckets {
	return &Buckets{objects: objects, meta: meta, cfg: cfg, log: log}
}

// Create provisions a bucket in the object store and mirrors it in metadata.
// The object-store write happens first; a metadata insert never precedes it.
func (b *Buckets) Create(ctx context.Context, name, description string) (*models.Bucket, error) {
	n, err := NormalizeBucketName(name)
	if err != nil {
		return nil, err
	}

	exists, err := b.objects.BucketExists(ctx, n)
	if err != nil {
		return nil, fromObjectStore(err, CodeUnknown)
	}
	if exists {
		return nil, E(CodeAlreadyExists, http.StatusConflict, "bucket %q already exists", n)
	}

	if err := b.objects.CreateBucket(ctx, n, b.cfg.StorageRegion); err != nil {
		return nil, fromObjectStore(err, CodeUnknown)
	}
	if b.cfg.PublicReadPolicy {
		if err := b.objects.SetBucketPolicy(ctx, n, s3.PublicReadPolicy(n)); err != nil {
			return nil, fromObjectStore(err, CodeUnknown)
		}
	}

	rec := &models.Bucket{Name: n, Description: description}
	if err := b.meta.InsertBucket(ctx, rec); err != nil {
		return nil, fromStore(err, "bucket "+n)
	}
	b.log.Info("bucket created", "bucket", n, "publicReadPolicy", b.cfg.PublicReadPolicy)
	return rec, nil
}

// GetOrCreate looks a bucket up by normalized name. Asking to create a bucket
// that already exists is a conflict, not a silent success.
func (b *Buckets) GetOrCreate(ctx context.Context, name string, createIfMissing bool) (*models.Bucket, error) {
	n, err := NormalizeBucketName(name)
	if err != nil {
		return nil, err
	}
	rec, err := b.meta.FindBucket(ctx, n)
	if err != nil {
		e := fromStore(err, "bucket "+n)
		if e.Code == CodeNotFound && createIfMissing {
			return b.Create(ctx, n, "")
		}
		return nil, e
	}
	if createIfMissing {
		return nil, E(CodeAlreadyExists, http.StatusConflict, "bucket %q already exists", n)
	}
	return rec, nil
}

func (b *Buckets) List(ctx context.Context, f store.BucketFilter, sortDesc bool) ([]models.Bucket, error) {
	items, err := b.meta.ListBuckets(ctx, f, sortDesc)
	if err != nil {
		return nil, fromStore(err, "buckets")
	}
	return items, nil
}

// Delete purges every object in batches of at most s3.MaxBulkDelete keys,
// removes the bucket, then cascades into metadata. Any object-store failure
// aborts before the metadata step so records are never dropped for objects
// that were not confirmed gone.
func (b *Buckets) Delete(ctx context.Context, name string) error {
	n, err := NormalizeBucketName(name)
	if err != nil {
		return err
	}

	exists, err := b.objects.BucketExists(ctx, n)
	if err != nil {
		return fromObjectStore(err, CodeUnknown)
	}
	if !exists {
		return E(CodeNotFound, http.StatusNotFound, "bucket %q not found", n)
	}

	var purged int
	batch := make([]string, 0, s3.MaxBulkDelete)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := b.objects.BulkDelete(ctx, n, batch); err != nil {
			return E(CodeUnknown, http.StatusBadGateway,
				"bucket %q purge failed after %d objects deleted: %v", n, purged, err)
		}
		purged += len(batch)
		batch = batch[:0]
		return nil
	}

	walkErr := b.objects.ForEachObject(ctx, n, func(oi s3.ObjectInfo) error {
		batch = append(batch, oi.Key)
		if len(batch) >= s3.MaxBulkDelete {
			return flush()
		}
		return nil
	})
	if walkErr != nil {
		if e, ok := AsError(walkErr); ok {
			return e
		}
		return E(CodeUnknown, http.StatusBadGateway,
			"bucket %q listing failed after %d objects deleted: %v", n, purged, walkErr)
	}
	if err := flush(); err != nil {
		return err
	}

	if err := b.objects.DeleteBucket(ctx, n); err != nil {
		return fromObjectStore(err, CodeUnknown)
	}

	removed, err := b.meta.DeleteMediaInBucket(ctx, n)
	if err != nil {
		return fromStore(err, "media in bucket "+n)
	}
	if err := b.meta.DeleteBucket(ctx, n); err != nil {
		return fromStore(err, "bucket "+n)
	}
	b.log.Info("bucket deleted", "bucket", n, "objectsPurged", purged, "mediaRecords", removed)
	return nil
}

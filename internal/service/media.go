package service

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flavien-hugs/unsta-sfs/internal/config"
	"github.com/flavien-hugs/unsta-sfs/internal/logging"
	"github.com/flavien-hugs/unsta-sfs/internal/models"
	"github.com/flavien-hugs/unsta-sfs/internal/s3"
	"github.com/flavien-hugs/unsta-sfs/internal/store"
)

// Media owns the media lifecycle: key generation, the dual write on upload,
// access-URL derivation, and the dual check on delete. The two backends fail
// independently; ordering (object store first, metadata second) keeps the
// consistency gap visible instead of hiding it.
type Media struct {
	objects s3.ObjectStore
	meta    store.MetadataStore
	cfg     *config.Config
	log     logging.Logger

	keyFn func(filename string) string
	now   func() time.Time
}

func NewMedia(objects s3.ObjectStore, meta store.MetadataStore, cfg *config.Config, log logging.Logger) *Media {
	return &Media{
		objects: objects,
		meta:    meta,
		cfg:     cfg,
		log:     log,
		keyFn:   GenerateObjectKey,
		now:     time.Now,
	}
}

// UploadInput is one inbound file plus its metadata attributes.
type UploadInput struct {
	BucketName  string
	Filename    string
	Body        io.Reader
	Size        int64 // -1 when unknown; the store buffers it
	ContentType string
	Tags        models.Tags
	IsPublic    bool
	TTLMinutes  *int
}

// Upload writes the bytes under a generated key, then inserts the metadata
// record with the derived URL. A failed store write surfaces before any
// metadata exists; a failed insert leaves an orphaned object behind, which is
// the documented consistency window of a non-transactional dual write.
func (m *Media) Upload(ctx context.Context, in UploadInput) (*models.Media, error) {
	bucket, err := NormalizeBucketName(in.BucketName)
	if err != nil {
		return nil, err
	}
	key := m.keyFn(in.Filename)

	if err := m.objects.Put(ctx, bucket, key, in.Body, in.Size, in.ContentType, in.Tags); err != nil {
		return nil, fromObjectStore(err, CodeInvalidFile)
	}

	rec := &models.Media{
		Filename:   key,
		BucketName: bucket,
		ObjectKey:  key,
		Tags:       in.Tags,
		IsPublic:   in.IsPublic,
		TTLMinutes: in.TTLMinutes,
		URL:        m.DeriveURL(bucket, key, in.IsPublic),
	}
	if err := m.meta.InsertMedia(ctx, rec); err != nil {
		e := fromStore(err, "media "+bucket+"/"+key)
		if e.Code == CodeAlreadyExists {
			// The object write already succeeded; the record conflict leaves
			// an unreferenced object behind.
			m.log.Error("media insert conflict after object write",
				"bucket", bucket, "key", key)
		}
		return nil, e
	}
	m.log.Info("media uploaded", "bucket", bucket, "key", key, "public", in.IsPublic)
	return rec, nil
}

// DeriveURL computes the access URL for a stored object. Purely
// deterministic: base URL plus path prefix, no store round-trip and no
// presigned hostnames.
func (m *Media) DeriveURL(bucket, key string, isPublic bool) string {
	base := strings.TrimRight(m.cfg.PublicBaseURL, "/")
	if isPublic {
		return base + "/media/public/" + bucket + "/" + key
	}
	return base + "/media/" + bucket + "/" + key
}

// Get returns the metadata record. When URL_REFRESH_DAYS is configured and
// the record is older than that window, the derived URL is recomputed and
// persisted; with the default 0 the record is returned untouched.
func (m *Media) Get(ctx context.Context, bucketName, key string) (*models.Media, error) {
	bucket, err := NormalizeBucketName(bucketName)
	if err != nil {
		return nil, err
	}
	rec, err := m.meta.FindMedia(ctx, bucket, key)
	if err != nil {
		return nil, fromStore(err, "media "+bucket+"/"+key)
	}
	if d := m.cfg.URLRefreshDays; d > 0 && m.now().Sub(rec.UpdatedAt) > time.Duration(d)*24*time.Hour {
		rec.URL = m.DeriveURL(bucket, key, rec.IsPublic)
		rec.UpdatedAt = m.now()
		if err := m.meta.UpdateMedia(ctx, rec); err != nil {
			return nil, fromStore(err, "media "+bucket+"/"+key)
		}
		m.log.Debug("media url refreshed", "bucket", bucket, "key", key)
	}
	return rec, nil
}

func (m *Media) List(ctx context.Context, f store.MediaFilter, sortDesc bool) ([]models.Media, error) {
	items, err := m.meta.ListMedia(ctx, f, sortDesc)
	if err != nil {
		return nil, fromStore(err, "media")
	}
	return items, nil
}

// Read streams the object bytes along with the resolved content type.
// Resolution order: store-reported type, filename-extension guess, generic
// binary fallback.
func (m *Media) Read(ctx context.Context, bucketName, key string) (io.ReadCloser, *models.Media, string, int64, error) {
	bucket, err := NormalizeBucketName(bucketName)
	if err != nil {
		return nil, nil, "", 0, err
	}
	rec, err := m.meta.FindMedia(ctx, bucket, key)
	if err != nil {
		return nil, nil, "", 0, fromStore(err, "media "+bucket+"/"+key)
	}
	rc, oi, err := m.objects.Get(ctx, bucket, rec.ObjectKey)
	if err != nil {
		return nil, nil, "", 0, fromObjectStore(err, CodeUnknown)
	}
	return rc, rec, resolveContentType(oi.ContentType, rec.ObjectKey), oi.Size, nil
}

// Download materializes the object through a transient local spool file so
// the remote connection is released before the bytes are served. The spool is
// removed when the returned reader is closed, on every exit path.
func (m *Media) Download(ctx context.Context, bucketName, key string) (io.ReadCloser, *models.Media, string, int64, error) {
	rc, rec, contentType, _, err := m.Read(ctx, bucketName, key)
	if err != nil {
		return nil, nil, "", 0, err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "sfs-download-*")
	if err != nil {
		return nil, nil, "", 0, E(CodeUnknown, http.StatusInternalServerError, "spool create: %v", err)
	}
	size, err := io.Copy(tmp, rc)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, nil, "", 0, E(CodeUnknown, http.StatusBadGateway, "spool copy: %v", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, nil, "", 0, E(CodeUnknown, http.StatusInternalServerError, "spool seek: %v", err)
	}
	return &spoolFile{f: tmp}, rec, contentType, size, nil
}

// Delete removes the object first and the metadata record only after the
// store confirmed removal. Missing metadata makes the whole call a no-op.
func (m *Media) Delete(ctx context.Context, bucketName, key string) error {
	bucket, err := NormalizeBucketName(bucketName)
	if err != nil {
		return err
	}
	rec, err := m.meta.FindMedia(ctx, bucket, key)
	if err != nil {
		if e := fromStore(err, "media"); e.Code == CodeNotFound {
			return nil
		} else {
			return e
		}
	}

	confirmed, err := m.objects.Delete(ctx, bucket, rec.ObjectKey)
	if err != nil {
		return fromObjectStore(err, CodeUnknown)
	}
	if !confirmed {
		// Ambiguous success signal from the store: keep the record rather
		// than risk dropping metadata for bytes that may still exist.
		m.log.Error("object delete unconfirmed, keeping metadata",
			"bucket", bucket, "key", rec.ObjectKey)
		return nil
	}

	if err := m.meta.DeleteMedia(ctx, bucket, rec.ObjectKey); err != nil {
		return fromStore(err, "media "+bucket+"/"+key)
	}
	m.log.Info("media deleted", "bucket", bucket, "key", rec.ObjectKey)
	return nil
}

func resolveContentType(reported, key string) string {
	// the generic binary type carries no information; prefer the extension
	if reported != "" && reported != "application/octet-stream" {
		return reported
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(key))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// spoolFile deletes its backing temp file on Close.
type spoolFile struct{ f *os.File }

func (s *spoolFile) Read(p []byte) (int, error) { return s.f.Read(p) }

func (s *spoolFile) Close() error {
	name := s.f.Name()
	err := s.f.Close()
	if rmErr := os.Remove(name); err == nil {
		err = rmErr
	}
	return err
}

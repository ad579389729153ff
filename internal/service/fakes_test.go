package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"time"

	"github.com/flavien-hugs/unsta-sfs/internal/models"
	"github.com/flavien-hugs/unsta-sfs/internal/s3"
	"github.com/flavien-hugs/unsta-sfs/internal/store"

	minio "github.com/minio/minio-go/v7"
)

func bytesReader(s string) io.Reader { return bytes.NewReader([]byte(s)) }

func errNoSuchKey() error {
	return minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist.", StatusCode: 404}
}

// in-memory ObjectStore with call recording

type bulkCall struct {
	bucket string
	keys   []string
}

type fakeObject struct {
	data        []byte
	contentType string
	tags        map[string]string
}

type fakeObjectStore struct {
	buckets  map[string]bool
	objects  map[string]map[string]*fakeObject
	order    map[string][]string // listing order per bucket
	policies map[string]string

	bulkCalls   []bulkCall
	deleteCalls int

	existsErr error
	putErr    error
	getErr    error
	listErr   error
	bulkErr   error
	deleteErr error
	// deleteUnconfirmed makes Delete report success without confirmation.
	deleteUnconfirmed bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		buckets:  map[string]bool{},
		objects:  map[string]map[string]*fakeObject{},
		order:    map[string][]string{},
		policies: map[string]string{},
	}
}

func (f *fakeObjectStore) addObject(bucket, key string, data []byte, contentType string) {
	if f.objects[bucket] == nil {
		f.objects[bucket] = map[string]*fakeObject{}
	}
	if _, dup := f.objects[bucket][key]; !dup {
		f.order[bucket] = append(f.order[bucket], key)
	}
	f.objects[bucket][key] = &fakeObject{data: data, contentType: contentType}
}

func (f *fakeObjectStore) BucketExists(ctx context.Context, name string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.buckets[name], nil
}

func (f *fakeObjectStore) CreateBucket(ctx context.Context, name, region string) error {
	f.buckets[name] = true
	return nil
}

func (f *fakeObjectStore) SetBucketPolicy(ctx context.Context, name, policy string) error {
	f.policies[name] = policy
	return nil
}

func (f *fakeObjectStore) DeleteBucket(ctx context.Context, name string) error {
	delete(f.buckets, name)
	return nil
}

func (f *fakeObjectStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string, tags map[string]string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.addObject(bucket, key, data, contentType)
	f.objects[bucket][key].tags = tags
	return nil
}

func (f *fakeObjectStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, s3.ObjectInfo, error) {
	if f.getErr != nil {
		return nil, s3.ObjectInfo{}, f.getErr
	}
	obj, ok := f.objects[bucket][key]
	if !ok {
		return nil, s3.ObjectInfo{}, errNoSuchKey()
	}
	oi := s3.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}
	return io.NopCloser(bytes.NewReader(obj.data)), oi, nil
}

func (f *fakeObjectStore) Stat(ctx context.Context, bucket, key string) (s3.ObjectInfo, error) {
	obj, ok := f.objects[bucket][key]
	if !ok {
		return s3.ObjectInfo{}, errNoSuchKey()
	}
	return s3.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, bucket, key string) (bool, error) {
	f.deleteCalls++
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	if f.deleteUnconfirmed {
		return false, nil
	}
	delete(f.objects[bucket], key)
	return true, nil
}

func (f *fakeObjectStore) ForEachObject(ctx context.Context, bucket string, fn func(s3.ObjectInfo) error) error {
	if f.listErr != nil {
		return f.listErr
	}
	for _, key := range f.order[bucket] {
		obj, ok := f.objects[bucket][key]
		if !ok {
			continue
		}
		if err := fn(s3.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeObjectStore) BulkDelete(ctx context.Context, bucket string, keys []string) error {
	if f.bulkErr != nil {
		return f.bulkErr
	}
	f.bulkCalls = append(f.bulkCalls, bulkCall{bucket: bucket, keys: append([]string(nil), keys...)})
	for _, k := range keys {
		delete(f.objects[bucket], k)
	}
	return nil
}

// in-memory MetadataStore

type fakeMetaStore struct {
	buckets map[string]*models.Bucket
	media   map[string]*models.Media // bucket + "/" + key

	insertMediaErr error
}

func newFakeMetaStore() *fakeMetaStore {
	return &fakeMetaStore{
		buckets: map[string]*models.Bucket{},
		media:   map[string]*models.Media{},
	}
}

func mediaKey(bucket, key string) string { return bucket + "/" + key }

func (f *fakeMetaStore) InsertBucket(ctx context.Context, b *models.Bucket) error {
	if _, ok := f.buckets[b.Name]; ok {
		return store.ErrDuplicate
	}
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	cp := *b
	f.buckets[b.Name] = &cp
	return nil
}

func (f *fakeMetaStore) FindBucket(ctx context.Context, name string) (*models.Bucket, error) {
	b, ok := f.buckets[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeMetaStore) ListBuckets(ctx context.Context, fl store.BucketFilter, sortDesc bool) ([]models.Bucket, error) {
	var out []models.Bucket
	for _, b := range f.buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if sortDesc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeMetaStore) DeleteBucket(ctx context.Context, name string) error {
	delete(f.buckets, name)
	return nil
}

func (f *fakeMetaStore) InsertMedia(ctx context.Context, m *models.Media) error {
	if f.insertMediaErr != nil {
		return f.insertMediaErr
	}
	k := mediaKey(m.BucketName, m.ObjectKey)
	if _, ok := f.media[k]; ok {
		return store.ErrDuplicate
	}
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	cp := *m
	f.media[k] = &cp
	return nil
}

func (f *fakeMetaStore) FindMedia(ctx context.Context, bucket, key string) (*models.Media, error) {
	m, ok := f.media[mediaKey(bucket, key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMetaStore) ListMedia(ctx context.Context, fl store.MediaFilter, sortDesc bool) ([]models.Media, error) {
	var out []models.Media
	for _, m := range f.media {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if sortDesc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeMetaStore) UpdateMedia(ctx context.Context, m *models.Media) error {
	cp := *m
	f.media[mediaKey(m.BucketName, m.ObjectKey)] = &cp
	return nil
}

func (f *fakeMetaStore) DeleteMedia(ctx context.Context, bucket, key string) error {
	delete(f.media, mediaKey(bucket, key))
	return nil
}

func (f *fakeMetaStore) DeleteMediaInBucket(ctx context.Context, bucket string) (int64, error) {
	var n int64
	for k, m := range f.media {
		if m.BucketName == bucket {
			delete(f.media, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeMetaStore) FindPublicMedia(ctx context.Context, bucket, key string, now time.Time) (*models.Media, error) {
	m, ok := f.media[mediaKey(bucket, key)]
	if !ok || !Accessible(m, now) {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

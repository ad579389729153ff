package service

import (
	"context"
	"net/http"
	"time"

	"github.com/flavien-hugs/unsta-sfs/internal/models"
	"github.com/flavien-hugs/unsta-sfs/internal/store"
)

// PublicAccess evaluates the time-windowed visibility rule over media
// metadata. The store-side filter and the in-process Accessible predicate
// must agree on boundary inputs; both are strict (accessible iff
// now < updated_at + ttl_minutes).
type PublicAccess struct {
	meta store.MetadataStore
}

func NewPublicAccess(meta store.MetadataStore) *PublicAccess {
	return &PublicAccess{meta: meta}
}

// Find returns the media record iff it is publicly accessible at instant now.
func (p *PublicAccess) Find(ctx context.Context, bucketName, key string, now time.Time) (*models.Media, error) {
	bucket, err := NormalizeBucketName(bucketName)
	if err != nil {
		return nil, err
	}
	m, err := p.meta.FindPublicMedia(ctx, bucket, key, now)
	if err != nil {
		e := fromStore(err, "media "+bucket+"/"+key)
		if e.Code == CodeNotFound {
			return nil, E(CodeNotFound, http.StatusNotFound,
				"media %q not found in bucket %q, not public, or expired", key, bucket)
		}
		return nil, e
	}
	return m, nil
}

// IsAccessible is the boolean form of Find.
func (p *PublicAccess) IsAccessible(ctx context.Context, bucketName, key string, now time.Time) (bool, error) {
	_, err := p.Find(ctx, bucketName, key, now)
	if err != nil {
		if e, ok := AsError(err); ok && e.Code == CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Accessible is the in-process visibility predicate. A missing TTL means a
// public record never expires.
func Accessible(m *models.Media, now time.Time) bool {
	if m == nil || !m.IsPublic {
		return false
	}
	if m.TTLMinutes == nil {
		return true
	}
	return now.Before(m.UpdatedAt.Add(time.Duration(*m.TTLMinutes) * time.Minute))
}

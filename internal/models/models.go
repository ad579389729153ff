package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Bucket mirrors an object-store bucket by name and carries the queryable
// attributes the object store has no notion of.
type Bucket struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tags is a flat string-to-string map stored as a JSON text column.
type Tags map[string]string

func (t Tags) Value() (driver.Value, error) {
	if len(t) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(t)
	return string(b), err
}

func (t *Tags) Scan(src any) error {
	if src == nil {
		*t = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return errors.New("tags: unsupported column type")
	}
}

// Media is the metadata record for one stored object.
// Unique per (BucketName, ObjectKey); BucketName references Bucket.Name by
// convention only, there is no enforced join.
type Media struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Filename   string    `gorm:"not null" json:"filename"`
	BucketName string    `gorm:"uniqueIndex:idx_media_bucket_key;not null" json:"bucketName"`
	ObjectKey  string    `gorm:"uniqueIndex:idx_media_bucket_key;not null" json:"objectKey"`
	Tags       Tags      `gorm:"type:text" json:"tags,omitempty"`
	IsPublic   bool      `json:"isPublic"`
	TTLMinutes *int      `json:"ttlMinutes,omitempty"`
	URL        string    `json:"url"` // derived, recomputed; not authoritative
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

package service

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/flavien-hugs/unsta-sfs/internal/models"
)

const maxBucketNameLen = 63

var bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// NormalizeBucketName lowercases, truncates to 63 chars, and validates the
// bucket naming pattern shared with the object store.
func NormalizeBucketName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) > maxBucketNameLen {
		n = n[:maxBucketNameLen]
	}
	if !bucketNameRe.MatchString(n) {
		return "", E(CodeInvalidName, http.StatusBadRequest, "invalid bucket name %q", name)
	}
	return n, nil
}

// GenerateObjectKey builds a collision-resistant object key from the upload
// instant, a random hex suffix, and the original file extension (lowercased).
// The user-supplied filename itself never reaches the object store.
func GenerateObjectKey(filename string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	ext := strings.ToLower(filepath.Ext(filename))
	return time.Now().UTC().Format("20060102150405") + "-" + hex.EncodeToString(buf) + ext
}

// ParseTags decodes a JSON object of string keys to string values. Anything
// else (arrays, nested objects, non-string values) is rejected.
func ParseTags(raw string) (models.Tags, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var loose map[string]any
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return nil, E(CodeInvalidTags, http.StatusBadRequest, "tags must be a JSON object like {\"key\":\"value\"}: %v", err)
	}
	tags := make(models.Tags, len(loose))
	for k, v := range loose {
		s, ok := v.(string)
		if !ok {
			return nil, E(CodeInvalidTags, http.StatusBadRequest, "tag %q must have a string value", k)
		}
		if k == "" {
			return nil, E(CodeInvalidTags, http.StatusBadRequest, "tag keys must not be empty")
		}
		tags[k] = s
	}
	return tags, nil
}

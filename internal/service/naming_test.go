package service

import (
	"regexp"
	"strings"
	"testing"
)

func TestNormalizeBucketName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"my-bucket", "my-bucket", false},
		{"MY-BUCKET", "my-bucket", false},
		{"  photos.2024  ", "photos.2024", false},
		{"a", "", true},          // too short for the pattern (needs 2+ chars)
		{"-leading", "", true},   // must start alphanumeric
		{"trailing-", "", true},  // must end alphanumeric
		{"under_score", "", true},
		{"has space", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		got, err := NormalizeBucketName(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("NormalizeBucketName(%q): expected error, got %q", c.in, got)
			}
			e, ok := AsError(err)
			if !ok || e.Code != CodeInvalidName {
				t.Fatalf("NormalizeBucketName(%q): expected CodeInvalidName, got %v", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeBucketName(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("NormalizeBucketName(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeBucketNameTruncates(t *testing.T) {
	long := strings.Repeat("a", 80)
	got, err := NormalizeBucketName(long)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 63 {
		t.Fatalf("expected 63 chars, got %d", len(got))
	}
}

func TestGenerateObjectKey(t *testing.T) {
	keyRe := regexp.MustCompile(`^\d{14}-[0-9a-f]{16}\.jpg$`)
	k := GenerateObjectKey("Photo.JPG")
	if !keyRe.MatchString(k) {
		t.Fatalf("unexpected key shape: %q", k)
	}
	if k2 := GenerateObjectKey("Photo.JPG"); k2 == k {
		t.Fatalf("two generated keys collided: %q", k)
	}
	// no extension on the source filename
	if k := GenerateObjectKey("README"); strings.Contains(k, ".") {
		t.Fatalf("expected no extension, got %q", k)
	}
}

func TestParseTags(t *testing.T) {
	tags, err := ParseTags(`{"category":"x","author":"john"}`)
	if err != nil {
		t.Fatal(err)
	}
	if tags["category"] != "x" || tags["author"] != "john" {
		t.Fatalf("unexpected tags: %v", tags)
	}

	if tags, err := ParseTags("  "); err != nil || tags != nil {
		t.Fatalf("blank input should yield nil tags, got %v, %v", tags, err)
	}

	for _, bad := range []string{`{"n":1}`, `{"nested":{"a":"b"}}`, `["a"]`, `not json`} {
		_, err := ParseTags(bad)
		if err == nil {
			t.Fatalf("ParseTags(%q): expected error", bad)
		}
		if e, ok := AsError(err); !ok || e.Code != CodeInvalidTags {
			t.Fatalf("ParseTags(%q): expected CodeInvalidTags, got %v", bad, err)
		}
	}
}

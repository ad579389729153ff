package s3

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeEndpoint(t *testing.T) {
	cases := []struct {
		in     string
		ssl    bool
		host   string
		secure bool
	}{
		{"minio.local:9000", false, "minio.local:9000", false},
		{"http://minio.local:9000", true, "minio.local:9000", false},
		{"https://s3.amazonaws.com", false, "s3.amazonaws.com", true},
	}
	for _, c := range cases {
		h, sec := normalizeEndpoint(c.in, c.ssl)
		if h != c.host || sec != c.secure {
			t.Fatalf("normalizeEndpoint(%q,%v)=%q,%v want %q,%v", c.in, c.ssl, h, sec, c.host, c.secure)
		}
	}
}

func TestPublicReadPolicy(t *testing.T) {
	p := PublicReadPolicy("my-bucket")
	var doc struct {
		Version   string
		Statement []struct {
			Effect    string
			Principal any
			Action    string
			Resource  string
		}
	}
	if err := json.Unmarshal([]byte(p), &doc); err != nil {
		t.Fatalf("policy is not valid JSON: %v", err)
	}
	if doc.Version != "2012-10-17" || len(doc.Statement) != 1 {
		t.Fatalf("unexpected policy shape: %s", p)
	}
	st := doc.Statement[0]
	if st.Effect != "Allow" || st.Action != "s3:GetObject" {
		t.Fatalf("unexpected statement: %+v", st)
	}
	if !strings.HasSuffix(st.Resource, ":my-bucket/*") {
		t.Fatalf("policy must target all objects in the bucket, got %q", st.Resource)
	}
}

func TestBulkDeleteRejectsOversizedBatch(t *testing.T) {
	c := &Client{}
	keys := make([]string, MaxBulkDelete+1)
	if err := c.BulkDelete(t.Context(), "b", keys); err == nil {
		t.Fatal("expected an error for a batch above the protocol limit")
	}
}

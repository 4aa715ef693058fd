package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalRoundTrip(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	path, err := s.Upload(ctx, "THC_Q2_2023_ex99.2_extracted.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	rc, err := s.Download(ctx, path)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("round trip mismatch: %q", data)
	}

	if err := s.Delete(ctx, path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Download(ctx, path); err == nil {
		t.Error("expected error downloading deleted artifact")
	}
	if err := s.Delete(ctx, path); err != nil {
		t.Errorf("deleting a missing artifact should not fail: %v", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"reports/batch 1.md", "reports/batch_1.md"},
		{"../../etc/passwd", "etc/passwd"},
		{"a//b", "a/b"},
		{"plain.csv", "plain.csv"},
	}
	for _, tt := range tests {
		if got := sanitizeKey(tt.in); got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	if ct := contentType("x.csv"); ct != "text/csv" {
		t.Errorf("csv content type = %q", ct)
	}
	if ct := contentType("x.bin"); ct != "application/octet-stream" {
		t.Errorf("fallback content type = %q", ct)
	}
}

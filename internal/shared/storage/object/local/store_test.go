package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"ayuv-backend/internal/shared/storage/object"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	payload := []byte("%PDF-1.4 fake report")
	key, size, mimeType, err := store.Save(context.Background(), "sess-1", "report.pdf", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), size)
	}
	if mimeType == "" {
		t.Fatalf("expected detected mime type")
	}
	if !strings.HasSuffix(key, "report.pdf") {
		t.Fatalf("expected key to keep the file name, got %q", key)
	}

	rc, err := store.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestOpenMissingObject(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Open(context.Background(), "nope/missing.pdf")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected object.ErrNotFound, got %v", err)
	}
}

func TestSaveRejectsTraversalNames(t *testing.T) {
	store := New(t.TempDir())

	_, _, _, err := store.Save(context.Background(), "sess-1", "../evil.pdf", strings.NewReader("data"))
	if err == nil {
		t.Fatalf("expected error for traversal name")
	}
}

func TestOpenRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())

	for _, key := range []string{"../secret", "/etc/passwd"} {
		if _, err := store.Open(context.Background(), key); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"docqa-backend/internal/shared/storage/object"
)

func TestSaveOpenDeleteRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	payload := []byte("plain text document body")
	key, size, mimeType, err := store.Save(ctx, "user-1", "notes.txt", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len(payload)) {
		t.Fatalf("size = %d, want %d", size, len(payload))
	}
	if mimeType == "" {
		t.Fatal("expected sniffed mime type")
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: %q", got)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestOpenMissingKeyReturnsNotFound(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "nope/missing.pdf"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../escape"); err == nil {
		t.Fatal("expected error for traversal key")
	}
}

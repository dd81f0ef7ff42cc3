package blob

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "attachments.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	id, err := store.Put(ctx, "photo.png", "image/png", payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	rec, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record, got absent")
	}
	if rec.Name != "photo.png" || rec.Type != "image/png" {
		t.Errorf("metadata: got %q/%q", rec.Name, rec.Type)
	}
	if !bytes.Equal(rec.Data, payload) {
		t.Errorf("payload mismatch: got %v", rec.Data)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rec, err = store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if rec != nil {
		t.Error("expected absent after delete")
	}
}

func TestSQLiteStoreGetAbsent(t *testing.T) {
	store := openTestStore(t)

	rec, err := store.Get(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Errorf("expected absent, got %+v", rec)
	}
}

func TestSQLiteStoreDeleteIdempotent(t *testing.T) {
	store := openTestStore(t)

	if err := store.Delete(context.Background(), "no-such-id"); err != nil {
		t.Errorf("Delete of missing record: %v", err)
	}
}

func TestSQLiteStoreOpenIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attachments.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	id, err := first.Put(ctx, "note.txt", "text/plain", []byte("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	first.Close()

	// Reopening must not recreate the table or lose records.
	second, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()

	rec, err := second.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if rec == nil || string(rec.Data) != "hello" {
		t.Errorf("expected record to survive reopen, got %+v", rec)
	}
}

func TestSQLiteStoreIDs(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	want := make(map[string]struct{})
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		id, err := store.Put(ctx, name, "text/plain", []byte(name))
		if err != nil {
			t.Fatalf("Put %s: %v", name, err)
		}
		want[id] = struct{}{}
	}

	ids, err := store.IDs(ctx)
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != len(want) {
		t.Fatalf("IDs: got %d, want %d", len(ids), len(want))
	}
	for _, id := range ids {
		if _, ok := want[id]; !ok {
			t.Errorf("unexpected id %q", id)
		}
	}
}

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"

	"github.com/docentlabs/docent/internal/fingerprint"
)

func testFingerprint(seed string) fingerprint.Fingerprint {
	sum := sha256.Sum256([]byte(seed))
	return fingerprint.Fingerprint(hex.EncodeToString(sum[:]))
}

// Both managers satisfy the same contract; run the suite against each.
func managers(t *testing.T) map[string]Manager {
	t.Helper()
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create filesystem store: %v", err)
	}
	return map[string]Manager{
		"memory":     NewMemory(),
		"filesystem": fs,
	}
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	for name, store := range managers(t) {
		t.Run(name, func(t *testing.T) {
			fp := testFingerprint("a")

			if _, ok, err := store.Get(ctx, fp); err != nil || ok {
				t.Fatalf("empty store: ok=%v err=%v", ok, err)
			}

			want := []byte(`{"vendor":"Acme"}`)
			if err := store.Set(ctx, fp, want); err != nil {
				t.Fatalf("set failed: %v", err)
			}

			got, ok, err := store.Get(ctx, fp)
			if err != nil || !ok {
				t.Fatalf("get after set: ok=%v err=%v", ok, err)
			}
			if string(got) != string(want) {
				t.Errorf("got %s, want %s", got, want)
			}

			// Overwrite replaces.
			if err := store.Set(ctx, fp, []byte("v2")); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			got, _, _ = store.Get(ctx, fp)
			if string(got) != "v2" {
				t.Errorf("after overwrite got %s", got)
			}
		})
	}
}

func TestStore_StatsAndClear(t *testing.T) {
	ctx := context.Background()
	for name, store := range managers(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				fp := testFingerprint(fmt.Sprintf("entry-%d", i))
				if err := store.Set(ctx, fp, []byte("0123456789")); err != nil {
					t.Fatalf("set failed: %v", err)
				}
			}

			stats, err := store.Stats(ctx)
			if err != nil {
				t.Fatalf("stats failed: %v", err)
			}
			if stats.Entries != 5 {
				t.Errorf("entries = %d, want 5", stats.Entries)
			}
			if stats.SizeBytes != 50 {
				t.Errorf("size = %d, want 50", stats.SizeBytes)
			}

			removed, err := store.Clear(ctx)
			if err != nil {
				t.Fatalf("clear failed: %v", err)
			}
			if removed != 5 {
				t.Errorf("removed = %d, want 5", removed)
			}
			stats, _ = store.Stats(ctx)
			if stats.Entries != 0 {
				t.Errorf("entries after clear = %d", stats.Entries)
			}
		})
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	for name, store := range managers(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					fp := testFingerprint(fmt.Sprintf("key-%d", i%4))
					val := []byte(fmt.Sprintf("value-%d", i))
					if err := store.Set(ctx, fp, val); err != nil {
						t.Errorf("set failed: %v", err)
					}
					if _, _, err := store.Get(ctx, fp); err != nil {
						t.Errorf("get failed: %v", err)
					}
				}(i)
			}
			wg.Wait()
		})
	}
}

func TestFilesystem_RejectsMalformedKey(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Set(context.Background(), "../../etc/passwd", []byte("x")); err == nil {
		t.Error("path traversal key accepted")
	}
}

func TestFilesystem_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFilesystem(dir)
	if err != nil {
		t.Fatal(err)
	}
	fp := testFingerprint("persist")
	if err := first.Set(ctx, fp, []byte("durable")); err != nil {
		t.Fatal(err)
	}

	second, err := NewFilesystem(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := second.Get(ctx, fp)
	if err != nil || !ok {
		t.Fatalf("reopen miss: ok=%v err=%v", ok, err)
	}
	if string(got) != "durable" {
		t.Errorf("got %s", got)
	}
}

package testutil

import (
	"testing"

	"taskdeck/internal/store"
)

// NewTestKV creates an in-memory KV adapter with all migrations applied.
// It automatically closes the adapter when the test completes.
func NewTestKV(t *testing.T) *store.KV {
	t.Helper()

	kv, err := store.NewKV(":memory:")
	if err != nil {
		t.Fatalf("creating test kv: %v", err)
	}

	t.Cleanup(func() {
		if err := kv.Close(); err != nil {
			t.Errorf("closing test kv: %v", err)
		}
	})

	return kv
}

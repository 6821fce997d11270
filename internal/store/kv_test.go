package store_test

import (
	"context"
	"testing"

	"taskdeck/tests/testutil"
)

func TestKVGetMissingKey(t *testing.T) {
	kv := testutil.NewTestKV(t)

	_, found, err := kv.Get(context.Background(), "never-written")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatalf("expected found=false for a missing key")
	}
}

func TestKVPutGetDelete(t *testing.T) {
	kv := testutil.NewTestKV(t)
	ctx := context.Background()

	if err := kv.Put(ctx, "greeting", `"hello"`); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := kv.Put(ctx, "greeting", `"hello again"`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, found, err := kv.Get(ctx, "greeting")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || value != `"hello again"` {
		t.Fatalf("expected overwritten value, got %q (found=%v)", value, found)
	}

	if err := kv.Delete(ctx, "greeting"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := kv.Get(ctx, "greeting"); found {
		t.Fatalf("key still present after delete")
	}

	// Deleting an absent key is not an error.
	if err := kv.Delete(ctx, "greeting"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

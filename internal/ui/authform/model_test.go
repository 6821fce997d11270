package authform

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskdeck/internal/notify"
	"taskdeck/internal/store"
	"taskdeck/tests/testutil"
)

func TestResetRequestMailsRegisteredName(t *testing.T) {
	kv := testutil.NewTestKV(t)
	sessions, err := store.NewSessionStore(context.Background(), kv)
	if err != nil {
		t.Fatalf("creating session store: %v", err)
	}
	if _, err := sessions.SignUp(context.Background(), "ann@x.com", "pw", "Ann"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	outbox := t.TempDir()
	m := New(sessions, notify.NewMailer(outbox), 80, 24)
	m.mode = modeRequestReset
	m.fb.email = "ann@x.com"

	msg := m.submit()()
	if res, ok := msg.(resetRequestedMsg); !ok || res.err != nil {
		t.Fatalf("reset request failed: %+v", msg)
	}

	entries, err := os.ReadDir(outbox)
	if err != nil {
		t.Fatalf("reading outbox: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 message in outbox, got %d", len(entries))
	}
	raw, err := os.ReadFile(filepath.Join(outbox, entries[0].Name()))
	if err != nil {
		t.Fatalf("reading message: %v", err)
	}
	if !strings.Contains(string(raw), "Hi Ann,") {
		t.Fatalf("message does not greet the user by name:\n%s", raw)
	}
}

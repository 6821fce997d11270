package notify

import (
	"os"
	"strings"
	"testing"
)

func TestSendPasswordResetWritesToOutbox(t *testing.T) {
	dir := t.TempDir()
	m := NewMailer(dir)

	path, err := m.SendPasswordReset("ann@example.com", "Ann", "tok-123")
	if err != nil {
		t.Fatalf("send password reset: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading outbox message: %v", err)
	}
	msg := string(raw)

	if !strings.Contains(msg, "ann@example.com") {
		t.Fatalf("message missing recipient:\n%s", msg)
	}
	if !strings.Contains(msg, "tok-123") {
		t.Fatalf("message missing reset token:\n%s", msg)
	}
	if !strings.Contains(msg, "Subject:") {
		t.Fatalf("message missing subject header:\n%s", msg)
	}
}

func TestSendPasswordResetCreatesOutboxDir(t *testing.T) {
	dir := t.TempDir() + "/nested/outbox"
	m := NewMailer(dir)

	if _, err := m.SendPasswordReset("ann@example.com", "Ann", "tok-123"); err != nil {
		t.Fatalf("send password reset: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading outbox dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 message in outbox, got %d", len(entries))
	}
}

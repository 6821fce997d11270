// Package notify composes user-facing notification mail. Dispatch is
// stubbed: messages are written to a local outbox directory instead of
// being handed to a mail transfer agent.
package notify

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

const fromName = "Taskdeck"
const fromAddress = "no-reply@taskdeck.local"

// Mailer composes RFC 5322 messages and files them in an outbox directory.
type Mailer struct {
	outboxDir string
}

// NewMailer creates a mailer writing to outboxDir. The directory is
// created on first use.
func NewMailer(outboxDir string) *Mailer {
	return &Mailer{outboxDir: outboxDir}
}

// SendPasswordReset composes the password-reset notification for the given
// recipient and writes it to the outbox. It returns the path of the
// written message file.
func (m *Mailer) SendPasswordReset(toEmail, toName, token string) (string, error) {
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"A password reset was requested for your account. Use this token to "+
			"choose a new password:\n\n    %s\n\n"+
			"The token expires in one hour. If you did not request a reset you "+
			"can ignore this message.\n",
		toName, token,
	)

	msg, err := compose(toEmail, toName, "Reset your Taskdeck password", body)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(m.outboxDir, 0o755); err != nil {
		return "", fmt.Errorf("creating outbox directory: %w", err)
	}

	path := filepath.Join(m.outboxDir, uuid.NewString()+".eml")
	if err := os.WriteFile(path, msg, 0o600); err != nil {
		return "", fmt.Errorf("writing message to outbox: %w", err)
	}

	return path, nil
}

// compose builds a single-part plain-text message.
func compose(toEmail, toName, subject, body string) ([]byte, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: fromName, Address: fromAddress}})
	h.SetAddressList("To", []*mail.Address{{Name: toName, Address: toEmail}})
	h.SetSubject(subject)

	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing message: %w", err)
	}

	return buf.Bytes(), nil
}

// Package email provides the email automation action. Delivery is
// handed to the configured SMTP relay when one is set and is otherwise
// recorded without sending.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

// ErrRecipientRequired is returned when the configuration has no recipient.
var ErrRecipientRequired = errors.New("email requires a 'to' address")

// Action composes and sends one email.
type Action struct {
	To      []string
	Subject string
	Body    string
	From    string

	// SMTPAddr is the relay host:port. Empty means dry-run delivery.
	SMTPAddr string
}

// NewAction builds an Action from raw configuration.
func NewAction(config map[string]any) (*Action, error) {
	to := recipients(config["to"])
	if len(to) == 0 {
		return nil, ErrRecipientRequired
	}

	subject, _ := config["subject"].(string)
	body, _ := config["body"].(string)

	from, _ := config["from"].(string)
	if from == "" {
		from = "noreply@lumo.local"
	}

	smtpAddr, _ := config["smtp_addr"].(string)

	return &Action{
		To:       to,
		Subject:  subject,
		Body:     body,
		From:     from,
		SMTPAddr: smtpAddr,
	}, nil
}

func recipients(raw any) []string {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}

		return []string{v}
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}

		return out
	}

	return nil
}

// Validate checks the action configuration.
func (a *Action) Validate(_ context.Context) error {
	if len(a.To) == 0 {
		return ErrRecipientRequired
	}

	for _, addr := range a.To {
		if !strings.Contains(addr, "@") {
			return fmt.Errorf("invalid recipient address %q", addr)
		}
	}

	return nil
}

// Execute delivers the message. Without a relay configured it logs the
// send and reports it as delivered, which keeps sequences runnable in
// environments without mail infrastructure.
func (a *Action) Execute(ctx context.Context, _ map[string]any, logger *slog.Logger) (any, error) {
	logger = logger.With("action", "email", "to", strings.Join(a.To, ","), "subject", a.Subject)

	if a.SMTPAddr != "" {
		msg := a.message()

		if err := smtp.SendMail(a.SMTPAddr, nil, a.From, a.To, msg); err != nil {
			return nil, fmt.Errorf("email delivery failed: %w", err)
		}
	}

	logger.InfoContext(ctx, "email action completed", "relayed", a.SMTPAddr != "")

	return map[string]any{
		"sent":    true,
		"to":      a.To,
		"subject": a.Subject,
		"sent_at": time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (a *Action) message() []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", a.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(a.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", a.Subject)
	b.WriteString("\r\n")
	b.WriteString(a.Body)

	return []byte(b.String())
}

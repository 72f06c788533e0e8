// Package notify delivers email notifications to job record owners. The
// request path only enqueues; delivery happens on the outbox worker, so a
// slow or failing mail server never surfaces as a request failure.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is one notification addressed to a single recipient.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Notifier sends a message. Implementations are expected to be safe for
// concurrent use.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}

// SMTPNotifier sends mail through a plain SMTP endpoint with AUTH PLAIN.
type SMTPNotifier struct {
	addr string
	host string
	from string
	auth smtp.Auth
}

func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	n := &SMTPNotifier{
		addr: fmt.Sprintf("%s:%d", host, port),
		host: host,
		from: from,
	}
	if username != "" {
		n.auth = smtp.PlainAuth("", username, password, host)
	}
	return n
}

func (n *SMTPNotifier) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", m.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(m.Body)
	b.WriteString("\r\n")

	if err := smtp.SendMail(n.addr, n.auth, n.from, []string{m.Recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

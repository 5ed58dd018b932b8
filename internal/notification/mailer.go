package notification

import (
	"context"

	"github.com/keycasey/Spirit-Beads-Service/pkg/config"
	"gopkg.in/gomail.v2"
)

// Message is a single outbound email.
type Message struct {
	To      []string
	CC      []string
	Subject string
	Body    string
	HTML    bool
}

// Mailer delivers messages. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from the SMTP settings. An empty username
// disables authentication, which suits local relays.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", msg.To...)
	if len(msg.CC) > 0 {
		mail.SetHeader("Cc", msg.CC...)
	}
	mail.SetHeader("Subject", msg.Subject)

	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	mail.SetBody(contentType, msg.Body)

	return m.dialer.DialAndSend(mail)
}

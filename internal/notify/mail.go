package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain text email through an SMTP relay.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	send     sendMailFunc
	now      func() time.Time
}

// NewMailer creates a Mailer for the given relay.
func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

// Send delivers a plain text message to one recipient. smtp.SendMail has no
// context support, so ctx is only checked before dialing.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid email header")
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := m.send(addr, auth, m.from, []string{to}, m.buildMessage(to, subject, body)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + m.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

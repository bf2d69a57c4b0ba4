// Package notify decides when resource breaches are e-mailed and sends the
// digest.
package notify

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one plain-text e-mail.
type Message struct {
	FromName string
	To       string
	Subject  string
	Body     string
}

// Mailer delivers a message to its single recipient.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay. PLAIN auth is used when a
// username is configured.
type SMTPMailer struct {
	cfg SMTPConfig
	// send is smtp.SendMail outside tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a mailer for cfg, or nil when no host is set.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Host == "" {
		return nil
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Send delivers msg. net/smtp has no context support, so ctx is only
// checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	return m.send(addr, auth, m.cfg.From, []string{msg.To}, m.render(msg, time.Now()))
}

func (m *SMTPMailer) render(msg Message, now time.Time) []byte {
	from := "<" + m.cfg.From + ">"
	if msg.FromName != "" {
		from = mime.QEncoding.Encode("utf-8", msg.FromName) + " " + from
	}
	domain := m.cfg.Host
	if i := strings.LastIndex(m.cfg.From, "@"); i >= 0 {
		domain = m.cfg.From[i+1:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domain)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

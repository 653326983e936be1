// Package mailer delivers notification emails over SMTP.
package mailer

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/notify"
)

// SendFunc matches smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain-text mail through an authenticated SMTP relay
type Mailer struct {
	host     string
	port     string
	user     string
	password string
	fromName string
	send     SendFunc
}

// New creates a mailer. Without a user or password it logs instead of sending.
func New(host, port, user, password, fromName string) *Mailer {
	return &Mailer{host: host, port: port, user: user, password: password, fromName: fromName, send: smtp.SendMail}
}

// WithSendFunc replaces the SMTP transport
func (m *Mailer) WithSendFunc(f SendFunc) *Mailer {
	m.send = f
	return m
}

// Configured reports whether credentials are present
func (m *Mailer) Configured() bool {
	return m.user != "" && m.password != ""
}

// Send implements notify.Notifier
func (m *Mailer) Send(ctx context.Context, msg notify.Message) bool {
	if !m.Configured() {
		log.Printf("📭 Mailer: not configured, dropping %q", msg.Subject)
		return false
	}
	if len(msg.To) == 0 {
		return false
	}

	done := make(chan error, 1)
	go func() {
		auth := smtp.PlainAuth("", m.user, m.password, m.host)
		done <- m.send(net.JoinHostPort(m.host, m.port), auth, m.user, msg.To, m.build(msg, time.Now()))
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("❌ Mailer: failed to send %q: %v", msg.Subject, err)
			return false
		}
		log.Printf("📧 Mailer: sent %q to %d recipient(s)", msg.Subject, len(msg.To))
		return true
	case <-ctx.Done():
		log.Printf("❌ Mailer: gave up on %q: %v", msg.Subject, ctx.Err())
		return false
	}
}

func (m *Mailer) build(msg notify.Message, now time.Time) []byte {
	var b strings.Builder
	from := m.user
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.fromName), m.user)
	}
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

var _ notify.Notifier = (*Mailer)(nil)

package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

// Mailer sends rendered emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailNotifier renders EventCreated messages and hands them to a Mailer.
type MailNotifier struct {
	Mailer   Mailer
	To       string
	Location *time.Location
}

func (n *MailNotifier) NotifyEventCreated(ctx context.Context, ev EventCreated) error {
	msg, err := Render(ev, n.To, n.Location)
	if err != nil {
		return err
	}
	return n.Mailer.Send(ctx, msg)
}

// SMTPMailer sends mail through an SMTP relay using PLAIN auth when a username is set.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// send is smtp.SendMail; replaced in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer for host:port.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("smtp: no recipient configured")
	}

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	body := buildMIME(m.From, msg)

	// net/smtp has no context support; give up waiting when ctx ends.
	errCh := make(chan error, 1)
	go func() { errCh <- m.send(addr, auth, m.From, []string{msg.To}, body) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", addr, ctx.Err())
	}
}

func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// sanitizeHeader strips line breaks so user input cannot inject headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	Log logger.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.Log.Info("event notification (mail delivery not configured)",
		logger.String("to", msg.To),
		logger.String("subject", msg.Subject))
	m.Log.Debug("event notification body", logger.String("html", msg.HTML))
	return nil
}

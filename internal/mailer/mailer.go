// Package mailer delivers the one-time login codes by email.
//
// The login service only sees the Mailer interface; the concrete sender is
// chosen at startup. SMTPMailer is the production sender. LogMailer writes
// the message to the log instead — handy in development, where the code can
// be read straight from the server output without a mail account.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// Mailer sends a plain-text email to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Config holds SMTP connection settings.
type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string // envelope sender; defaults to User when empty
}

// Configured reports whether enough settings are present to talk to a
// real SMTP server.
func (c Config) Configured() bool {
	return c.Host != "" && c.User != "" && c.Pass != ""
}

// SMTPMailer sends mail through an SMTP relay with PLAIN auth.
//
// Port 465 uses implicit TLS (the connection is TLS from the first byte);
// any other port dials in the clear and upgrades with STARTTLS when the
// server offers it. These are the two ways real relays are deployed.
type SMTPMailer struct {
	cfg    Config
	logger *slog.Logger
}

// NewSMTPMailer creates an SMTPMailer for the given relay settings.
func NewSMTPMailer(cfg Config, logger *slog.Logger) (*SMTPMailer, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("mailer: SMTP host, user and password are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPMailer{cfg: cfg, logger: logger}, nil
}

// Send delivers one message. A non-nil return means the relay did not accept
// the message; callers surface that to the user rather than swallowing it.
//
// NOTE ON ctx: net/smtp predates context and doesn't take one. We honour
// cancellation at the dial boundary only — once the SMTP conversation has
// started it runs to completion or error.
func (s *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	msg := buildMessage(s.cfg.From, to, subject, body)

	var err error
	if s.cfg.Port == 465 {
		err = s.sendImplicitTLS(addr, auth, to, msg)
	} else {
		err = s.sendStartTLS(addr, auth, to, msg)
	}
	if err != nil {
		return fmt.Errorf("mailer: sending to %s via %s: %w", to, addr, err)
	}

	s.logger.Debug("email dispatched",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}

// sendStartTLS dials in the clear and upgrades with STARTTLS when offered.
func (s *SMTPMailer) sendStartTLS(addr string, auth smtp.Auth, to, msg string) error {
	c, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}

	return s.transact(c, auth, to, msg)
}

// sendImplicitTLS handles port 465, where the socket is TLS from the start.
func (s *SMTPMailer) sendImplicitTLS(addr string, auth smtp.Auth, to, msg string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	return s.transact(c, auth, to, msg)
}

// transact runs the AUTH/MAIL/RCPT/DATA sequence on an open client.
func (s *SMTPMailer) transact(c *smtp.Client, auth smtp.Auth, to, msg string) error {
	if err := c.Auth(auth); err != nil {
		return err
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to, subject, body string) string {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body + "\r\n")
	return sb.String()
}

// LogMailer is a development stand-in that logs messages instead of
// sending them. The login code ends up in the server log.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message at Info level and always succeeds.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("email (SMTP not configured, logging instead)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}

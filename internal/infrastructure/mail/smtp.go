// Package mail implements the delivery transport over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/delivery"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/logger"
)

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the envelope sender and From header address
	From string

	// DialTimeout caps connection establishment (default 10s)
	DialTimeout time.Duration
}

// SMTPTransport sends delivery messages through an SMTP relay.
// STARTTLS is used when the server offers it; authentication is attempted
// when credentials are configured.
type SMTPTransport struct {
	cfg Config
	now func() time.Time
}

// NewSMTPTransport creates an SMTP transport.
func NewSMTPTransport(cfg Config) *SMTPTransport {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &SMTPTransport{cfg: cfg, now: time.Now}
}

// Send implements delivery.Transport.
func (t *SMTPTransport) Send(ctx context.Context, msg delivery.Message) error {
	payload, err := buildMessage(t.cfg.From, msg, t.now().UTC())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	dialer := &net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	// The deadline covers the whole SMTP conversation.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if t.cfg.Username != "" {
		auth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(t.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}

	if err := client.Quit(); err != nil {
		// The message was accepted; a failed QUIT is not a delivery failure.
		logger.Warn(ctx, "smtp quit failed", "error", err)
	}

	return nil
}

var _ delivery.Transport = (*SMTPTransport)(nil)

package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/fieldcount/roster/internal/platform/timeouts"
)

// SMTPConfig carries the transport endpoint and sender identity.
type SMTPConfig struct {
	// Addr is the host:port of the SMTP endpoint.
	Addr string
	// From is the envelope and header sender address.
	From string
	// Username and Password enable PLAIN auth when both are set.
	Username string
	Password string
	// Timeout bounds one complete send, dial included. Zero falls back to
	// timeouts.MailSend.
	Timeout time.Duration
}

// SMTPSender delivers mail over SMTP with STARTTLS when the server offers
// it. Every send is bounded: a timeout counts as a failed send and the
// caller's watermark stays put.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender validates the transport configuration.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.From = strings.TrimSpace(cfg.From)
	if cfg.Addr == "" {
		return nil, fmt.Errorf("smtp address is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return nil, fmt.Errorf("smtp address must be host:port: %w", err)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp sender address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.MailSend
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send delivers one message to all recipients in a single SMTP session.
func (s *SMTPSender) Send(ctx context.Context, recipients []string, subject string, textBody string, htmlBody string) error {
	if s == nil {
		return fmt.Errorf("smtp sender is not configured")
	}
	cleaned := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		if trimmed := strings.TrimSpace(recipient); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.deliver(ctx, cleaned, subject, textBody, htmlBody)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	case err := <-done:
		return err
	}
}

func (s *SMTPSender) deliver(ctx context.Context, recipients []string, subject string, textBody string, htmlBody string) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	host, _, _ := net.SplitHostPort(s.cfg.Addr)

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", recipient, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(buildMessage(s.cfg.From, recipients, subject, textBody, htmlBody)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}
	return client.Quit()
}

const mimeBoundary = "=-roster-alt-boundary"

// buildMessage assembles a multipart/alternative MIME message with text
// and HTML parts.
func buildMessage(from string, recipients []string, subject string, textBody string, htmlBody string) []byte {
	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + strings.Join(recipients, ", ") + "\r\n")
	msg.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: multipart/alternative; boundary=\"" + mimeBoundary + "\"\r\n")
	msg.WriteString("\r\n")

	msg.WriteString("--" + mimeBoundary + "\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n")

	msg.WriteString("--" + mimeBoundary + "\r\n")
	msg.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")

	msg.WriteString("--" + mimeBoundary + "--\r\n")
	return []byte(msg.String())
}

// Package mail is the outbound mail-transport boundary. The engine sees
// only the Sender interface; delivery failures are transient by contract
// and retried on the next batch run.
package mail

import (
	"context"
	"log"
	"strings"
)

// Sender delivers one composed notification to a set of recipients.
type Sender interface {
	Send(ctx context.Context, recipients []string, subject string, textBody string, htmlBody string) error
}

// LogSender logs outbound mail instead of delivering it. It stands in for
// a real transport when no SMTP endpoint is configured, keeping dry runs
// and local development side-effect free.
type LogSender struct {
	Logf func(format string, args ...any)
}

// Send logs the would-be delivery and reports success.
func (s *LogSender) Send(ctx context.Context, recipients []string, subject string, textBody string, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logf := log.Printf
	if s != nil && s.Logf != nil {
		logf = s.Logf
	}
	logf("mail (dry run) to=%s subject=%q bytes=%d", strings.Join(recipients, ","), subject, len(textBody)+len(htmlBody))
	return nil
}

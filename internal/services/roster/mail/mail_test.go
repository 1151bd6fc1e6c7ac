package mail

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestLogSenderLogsInsteadOfSending(t *testing.T) {
	t.Parallel()

	var logged string
	sender := &LogSender{Logf: func(format string, args ...any) {
		logged = format
	}}
	err := sender.Send(context.Background(), []string{"lead@example.com"}, "Area E roster update", "text", "<p>html</p>")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if logged == "" {
		t.Fatal("nothing logged")
	}
}

func TestLogSenderHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender := &LogSender{Logf: func(string, ...any) {}}
	if err := sender.Send(ctx, []string{"lead@example.com"}, "subject", "text", "html"); err == nil {
		t.Fatal("Send() with cancelled context succeeded")
	}
}

func TestNewSMTPSenderValidatesConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cfg     SMTPConfig
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  SMTPConfig{Addr: "mail.example.com:587", From: "roster@example.com"},
		},
		{
			name:    "missing address",
			cfg:     SMTPConfig{From: "roster@example.com"},
			wantErr: true,
		},
		{
			name:    "address without port",
			cfg:     SMTPConfig{Addr: "mail.example.com", From: "roster@example.com"},
			wantErr: true,
		},
		{
			name:    "missing sender",
			cfg:     SMTPConfig{Addr: "mail.example.com:587"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewSMTPSender(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("NewSMTPSender() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSMTPSender() error = %v", err)
			}
		})
	}
}

func TestSMTPSenderRequiresRecipients(t *testing.T) {
	t.Parallel()

	sender, err := NewSMTPSender(SMTPConfig{Addr: "mail.example.com:587", From: "roster@example.com", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewSMTPSender() error = %v", err)
	}
	if err := sender.Send(context.Background(), []string{"  ", ""}, "subject", "text", "html"); err == nil {
		t.Fatal("Send() with no usable recipients succeeded")
	}
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	msg := string(buildMessage(
		"roster@example.com",
		[]string{"lead-c@example.com", "lead-e@example.com"},
		"Area E roster update",
		"plain body",
		"<p>html body</p>",
	))

	for _, want := range []string{
		"From: roster@example.com\r\n",
		"To: lead-c@example.com, lead-e@example.com\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: multipart/alternative;",
		"Content-Type: text/plain; charset=utf-8",
		"plain body",
		"Content-Type: text/html; charset=utf-8",
		"<p>html body</p>",
		"--" + mimeBoundary + "--\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.Contains(msg, "Subject: ") {
		t.Fatalf("message missing subject header:\n%s", msg)
	}
}

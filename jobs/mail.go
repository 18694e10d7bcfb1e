package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/optimwalls/Optimwalls/internal/jobs"
)

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail over a plain SMTP relay such as Mailpit in
// development.
type SMTPMailer struct {
	Addr     string
	From     string
	Username string
	Password string
}

// Send submits one message to the relay.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	if m.Addr == "" || m.From == "" {
		return errors.New("smtp mailer not configured")
	}
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.Username != "" {
		host := m.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.Username, m.Password, host)
	}
	return smtp.SendMail(m.Addr, auth, m.From, []string{to}, []byte(msg))
}

// LogMailer writes messages to the log instead of delivering them. Used when
// no relay is configured so token flows stay testable locally.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Logger.Info("outbound email (not delivered)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body))
	return nil
}

// MailJob processes TaskTypeSendEmail tasks.
type MailJob struct {
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Mailer == nil {
		return fmt.Errorf("mail job not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTypeSendEmail)
	err := j.Mailer.Send(ctx, payload.To, payload.Subject, payload.Body)
	if err != nil {
		j.Logger.Error("send email", slog.String("to", payload.To), slog.Any("error", err))
	}
	return tracker.End(err)
}

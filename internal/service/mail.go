package service

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers the transactional emails of the auth flow
type Mailer interface {
	SendVerificationMail(ctx context.Context, to, name, token string) error
	SendPasswordResetMail(ctx context.Context, to, name, token string) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Sender    string
	ClientURL string
	Timeout   time.Duration
	// Attempts is the total number of dials per message
	Attempts int
}

var (
	verificationTmpl = template.Must(template.New("verification").Parse(
		`<p>Hi {{.Name}},</p><p>Click <a href="{{.Link}}">here</a> to verify your ReadStack account.</p><p>This link will expire in 24 hours.</p>`))

	resetTmpl = template.Must(template.New("reset").Parse(
		`<p>Hi {{.Name}},</p><p>Click <a href="{{.Link}}">here</a> to choose a new password.</p><p>This link will expire in 30 minutes. If you didn't ask for it you can ignore this email.</p>`))
)

type mailData struct {
	Name string
	Link string
}

// renderMail escapes every user supplied value into the HTML body
func renderMail(t *template.Template, name, link string) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, mailData{Name: name, Link: link}); err != nil {
		return "", fmt.Errorf("failed to render %s mail, %w", t.Name(), err)
	}

	return b.String(), nil
}

func mailLink(clientURL, path, to, token string) string {
	return fmt.Sprintf("%s%s?email=%s&token=%s",
		clientURL, path, url.QueryEscape(to), url.QueryEscape(token))
}

// dialError marks a failure before anything reached the server, the only
// case where another attempt can't deliver the message twice.
type dialError struct{ err error }

func (e *dialError) Error() string { return "failed to dial mail server, " + e.err.Error() }
func (e *dialError) Unwrap() error { return e.err }

// SMTPMailer sends mail through a gomail dialer. A fresh connection is
// dialed per message. Up to Attempts dials are made, a message is never
// resent once the connection was established.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("no mail host provided")
	}

	if cfg.Sender == "" {
		return nil, errors.New("no mail sender address provided")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}

	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

func (m *SMTPMailer) SendVerificationMail(ctx context.Context, to, name, token string) error {
	body, err := renderMail(verificationTmpl, name, mailLink(m.cfg.ClientURL, "/auth/verify-email", to, token))
	if err != nil {
		return err
	}

	return m.send(ctx, to, "Verify your email to start using ReadStack", body)
}

func (m *SMTPMailer) SendPasswordResetMail(ctx context.Context, to, name, token string) error {
	body, err := renderMail(resetTmpl, name, mailLink(m.cfg.ClientURL, "/auth/reset-password", to, token))
	if err != nil {
		return err
	}

	return m.send(ctx, to, "Reset your ReadStack password", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if to == m.cfg.Sender {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	var err error
	for attempt := 1; attempt <= m.cfg.Attempts; attempt++ {
		if err = m.dialAndSend(ctx, msg); err == nil {
			return nil
		}

		var de *dialError
		if !errors.As(err, &de) || ctx.Err() != nil {
			break
		}

		zap.L().Warn("Failed to dial mail server", zap.Int("attempt", attempt), zap.Error(err))
	}

	return fmt.Errorf("failed to send mail, %w", err)
}

// dialAndSend bounds the blocking gomail calls by the mail timeout. A timed
// out send may still finish in the background, so it is never retried.
func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *gomail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		sc, err := m.dialer.Dial()
		if err != nil {
			done <- &dialError{err: err}
			return
		}
		defer sc.Close()

		done <- gomail.Send(sc, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogMailer only logs the tokens. It's used when no SMTP host is
// configured, so local setups can still finish the auth flow.
type LogMailer struct{}

func (LogMailer) SendVerificationMail(_ context.Context, to, _, token string) error {
	zap.L().Info("Verification mail", zap.String("to", to), zap.String("token", token))
	return nil
}

func (LogMailer) SendPasswordResetMail(_ context.Context, to, _, token string) error {
	zap.L().Info("Password reset mail", zap.String("to", to), zap.String("token", token))
	return nil
}

package service

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMailEscapesName(t *testing.T) {
	name := "<a href='https://evil.example'>Reset here</a>"
	link := mailLink("http://localhost:5173", "/auth/verify-email", "a+b@example.com", "tok&en")

	for _, tmpl := range []string{"verification", "reset"} {
		tm := verificationTmpl
		if tmpl == "reset" {
			tm = resetTmpl
		}

		body, err := renderMail(tm, name, link)
		require.NoError(t, err)

		assert.NotContains(t, body, "evil.example'>", tmpl)
		assert.Contains(t, body, "&lt;a href=", tmpl)
		assert.Equal(t, 1, strings.Count(body, "<a "), tmpl)
		assert.Contains(t, body, `href="http://localhost:5173/auth/verify-email?email=`, tmpl)
	}
}

func TestMailLinkEscapesQuery(t *testing.T) {
	link := mailLink("https://app.example", "/auth/reset-password", "a+b@example.com", "x&y=z")
	assert.Equal(t, "https://app.example/auth/reset-password?email=a%2Bb%40example.com&token=x%26y%3Dz", link)
}

func TestNewSMTPMailerDefaults(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{Sender: "no-reply@example.com"})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPConfig{Host: "localhost"})
	require.Error(t, err)

	m, err := NewSMTPMailer(SMTPConfig{Host: "localhost", Sender: "no-reply@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.cfg.Attempts)
	assert.Equal(t, 10*time.Second, m.cfg.Timeout)
}

func TestSendRetriesDialFailures(t *testing.T) {
	// nothing listens on port 1
	m, err := NewSMTPMailer(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     1,
		Sender:   "no-reply@example.com",
		Timeout:  2 * time.Second,
		Attempts: 3,
	})
	require.NoError(t, err)

	err = m.SendVerificationMail(context.Background(), "user@example.com", "User", "token")
	require.Error(t, err)

	var de *dialError
	assert.True(t, errors.As(err, &de))
}

func TestSendDoesNotRetryTimeouts(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		accepted atomic.Int32
		mu       sync.Mutex
		conns    []net.Conn
	)

	// accepts but never greets, so every send hangs
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}

			accepted.Add(1)
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	addr := ln.Addr().(*net.TCPAddr)
	m, err := NewSMTPMailer(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Sender:   "no-reply@example.com",
		Timeout:  100 * time.Millisecond,
		Attempts: 3,
	})
	require.NoError(t, err)

	err = m.SendPasswordResetMail(context.Background(), "user@example.com", "User", "token")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Eventually(t, func() bool { return accepted.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, accepted.Load())
}

package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ethpandaops/testreportoor/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	subject    string
	body       string
	recipients []string
}

type fakeTransport struct {
	sent []sentMessage
	err  error
}

func (f *fakeTransport) Send(_ context.Context, subject, body string, recipients []string) error {
	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, sentMessage{subject: subject, body: body, recipients: recipients})

	return nil
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func configuredNotify() config.NotifyConfig {
	return config.NotifyConfig{
		SuiteName:  "Suite",
		Recipients: []string{"a@example.com", "b@example.com"},
		SMTP: config.SMTPConfig{
			Host:     "smtp.example.com",
			Port:     587,
			User:     "bot@example.com",
			Password: "secret",
			From:     "bot@example.com",
		},
	}
}

func TestNotifier_Notify(t *testing.T) {
	msg := Message{Subject: "subject", Body: "body"}

	t.Run("delivers to all recipients", func(t *testing.T) {
		transport := &fakeTransport{}
		n := New(testLogger(), configuredNotify(), transport)

		require.NoError(t, n.Notify(context.Background(), msg))
		require.Len(t, transport.sent, 1)
		assert.Equal(t, "subject", transport.sent[0].subject)
		assert.Equal(t, "body", transport.sent[0].body)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, transport.sent[0].recipients)
	})

	t.Run("no recipients skips delivery", func(t *testing.T) {
		cfg := configuredNotify()
		cfg.Recipients = nil
		transport := &fakeTransport{}

		err := New(testLogger(), cfg, transport).Notify(context.Background(), msg)
		assert.ErrorIs(t, err, ErrNoRecipients)
		assert.Empty(t, transport.sent)
	})

	t.Run("missing credentials skip delivery", func(t *testing.T) {
		for _, mutate := range []func(*config.NotifyConfig){
			func(c *config.NotifyConfig) { c.SMTP.Host = "" },
			func(c *config.NotifyConfig) { c.SMTP.User = "" },
			func(c *config.NotifyConfig) { c.SMTP.Password = "" },
		} {
			cfg := configuredNotify()
			mutate(&cfg)
			transport := &fakeTransport{}

			err := New(testLogger(), cfg, transport).Notify(context.Background(), msg)
			assert.ErrorIs(t, err, ErrNotConfigured)
			assert.Empty(t, transport.sent)
		}
	})

	t.Run("transport failure is returned", func(t *testing.T) {
		boom := errors.New("connection refused")
		transport := &fakeTransport{err: boom}

		err := New(testLogger(), configuredNotify(), transport).Notify(context.Background(), msg)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotConfigured)
	})
}

func TestNew_DefaultsToSMTP(t *testing.T) {
	n := New(testLogger(), configuredNotify(), nil)

	_, ok := n.transport.(*SMTPTransport)
	assert.True(t, ok)
}

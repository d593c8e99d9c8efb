package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethpandaops/testreportoor/pkg/config"
	"github.com/ethpandaops/testreportoor/pkg/regression"
	"github.com/ethpandaops/testreportoor/pkg/report"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotConfigured means the SMTP host, user or password is missing.
	ErrNotConfigured = errors.New("smtp not configured (missing host, user or password)")

	// ErrNoRecipients means there is nobody to notify.
	ErrNoRecipients = errors.New("no notification recipients configured")
)

// Transport delivers a formatted message.
type Transport interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

// Notifier formats regression verdicts and hands them to a Transport.
type Notifier struct {
	log       logrus.FieldLogger
	cfg       config.NotifyConfig
	transport Transport
}

// New creates a Notifier. When transport is nil an SMTP transport is
// built from cfg.
func New(log logrus.FieldLogger, cfg config.NotifyConfig, transport Transport) *Notifier {
	if transport == nil {
		transport = NewSMTPTransport(cfg.SMTP)
	}

	return &Notifier{
		log:       log.WithField("component", "notifier"),
		cfg:       cfg,
		transport: transport,
	}
}

// Format builds the message for a verdict using the configured suite name.
func (n *Notifier) Format(
	verdict *regression.Verdict,
	current, previous report.Summary,
) Message {
	return Format(n.cfg.SuiteName, verdict, current, previous)
}

// Notify delivers msg to the configured recipients. ErrNoRecipients and
// ErrNotConfigured mean delivery was skipped; any other error is a
// transport failure.
func (n *Notifier) Notify(ctx context.Context, msg Message) error {
	if len(n.cfg.Recipients) == 0 {
		return ErrNoRecipients
	}

	if !n.cfg.Enabled() {
		return ErrNotConfigured
	}

	if err := n.transport.Send(ctx, msg.Subject, msg.Body, n.cfg.Recipients); err != nil {
		n.log.WithError(err).Error("Failed to send notification")

		return fmt.Errorf("sending notification: %w", err)
	}

	n.log.WithFields(logrus.Fields{
		"subject":    msg.Subject,
		"recipients": len(n.cfg.Recipients),
	}).Info("Notification sent")

	return nil
}

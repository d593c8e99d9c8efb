package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/testreportoor/pkg/config"
)

// SMTPTransport sends plain text mail through an SMTP submission server.
// STARTTLS and PLAIN auth are required unless cfg.Insecure is set, in
// which case each is used only when the server offers it.
type SMTPTransport struct {
	cfg     config.SMTPConfig
	now     func() time.Time
	rootCAs *x509.CertPool
}

// ErrInsecureServer is returned when the server lacks STARTTLS or AUTH
// and the transport is not configured to allow that.
var ErrInsecureServer = errors.New("smtp server does not support secure delivery")

// Ensure interface compliance.
var _ Transport = (*SMTPTransport)(nil)

// NewSMTPTransport creates a transport for the given server settings.
func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg, now: time.Now}
}

// Send delivers one message to all recipients in a single transaction.
func (t *SMTPTransport) Send(
	ctx context.Context,
	subject, body string,
	recipients []string,
) error {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))

	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("starting smtp session: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{
			ServerName: t.cfg.Host,
			MinVersion: tls.VersionTLS12,
			RootCAs:    t.rootCAs,
		}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	} else if !t.cfg.Insecure {
		return fmt.Errorf("%w: %s does not offer STARTTLS", ErrInsecureServer, addr)
	}

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	} else if !t.cfg.Insecure && t.cfg.User != "" {
		return fmt.Errorf("%w: %s does not offer AUTH", ErrInsecureServer, addr)
	}

	if err := client.Mail(t.cfg.From); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}

	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}

	if _, err := w.Write(buildMessage(t.cfg.From, recipients, subject, body, t.now())); err != nil {
		_ = w.Close()

		return fmt.Errorf("writing message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("quit: %w", err)
	}

	return nil
}

// buildMessage renders an RFC 5322 text/plain message with CRLF line
// endings.
func buildMessage(from string, to []string, subject, body string, date time.Time) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")

	body = strings.ReplaceAll(body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return b.Bytes()
}

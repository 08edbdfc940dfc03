// Package mail delivers the transactional messages the platform sends:
// verification links and welcome notes. Delivery is plain-text SMTP with
// opportunistic STARTTLS; when SMTP is disabled by configuration every send
// returns ErrSMTPDisabled so callers can treat mail as optional.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"
)

// ErrSMTPDisabled signals that SMTP delivery is disabled via configuration.
var ErrSMTPDisabled = errors.New("mailer: delivery disabled")

// Message is one outbound email. From is optional and falls back to the
// configured sender.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer sends messages. The auth layer holds one and never blocks on it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSettings is the runtime configuration for the SMTP mailer.
type SMTPSettings struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

const defaultSMTPTimeout = 10 * time.Second

// NewSMTPMailer builds a Mailer for the given settings. A disabled
// configuration is valid and yields a mailer whose sends report
// ErrSMTPDisabled.
func NewSMTPMailer(cfg SMTPSettings) (Mailer, error) {
	if cfg.Enabled {
		if strings.TrimSpace(cfg.Host) == "" {
			return nil, errors.New("mailer: host is required when enabled")
		}
		if cfg.Port == 0 {
			return nil, errors.New("mailer: port is required when enabled")
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}

	return &smtpMailer{
		cfg:    cfg,
		dialFn: dialSMTP,
		authFn: authSMTP,
	}, nil
}

type smtpMailer struct {
	cfg    SMTPSettings
	dialFn smtpDialFunc
	authFn smtpAuthFunc
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Enabled {
		return ErrSMTPDisabled
	}

	from, recipients, err := m.checkMessage(msg)
	if err != nil {
		return err
	}

	conn, client, err := m.dialFn(ctx, m.cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer client.Close()

	if err := m.authFn(client, m.cfg); err != nil {
		return err
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mailer: mail from: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mailer: rcpt to %s: %w", rcpt, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("mailer: data command: %w", err)
	}
	if _, err := io.WriteString(wc, formatMessage(from, recipients, msg.Subject, msg.Body)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("mailer: write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("mailer: close data writer: %w", err)
	}

	return client.Quit()
}

// checkMessage resolves the sender and deduplicates recipients before any
// network traffic happens.
func (m *smtpMailer) checkMessage(msg Message) (string, []string, error) {
	recipients := uniqueAddresses(msg.To)
	if len(recipients) == 0 {
		return "", nil, errors.New("mailer: at least one recipient is required")
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = m.cfg.From
	}
	if from == "" {
		return "", nil, errors.New("mailer: sender address is required")
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return "", nil, fmt.Errorf("mailer: invalid from address: %w", err)
	}

	for _, rcpt := range recipients {
		if _, err := mail.ParseAddress(rcpt); err != nil {
			return "", nil, fmt.Errorf("mailer: invalid recipient address %q: %w", rcpt, err)
		}
	}

	return from, recipients, nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		result = append(result, addr)
	}
	return result
}

type smtpClient interface {
	Mail(string) error
	Rcpt(string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
	StartTLS(*tls.Config) error
	Auth(smtp.Auth) error
	Extension(string) (bool, string)
}

type (
	smtpDialFunc func(ctx context.Context, cfg SMTPSettings) (net.Conn, smtpClient, error)
	smtpAuthFunc func(client smtpClient, cfg SMTPSettings) error
)

func dialSMTP(ctx context.Context, cfg SMTPSettings) (net.Conn, smtpClient, error) {
	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dialer := &net.Dialer{Timeout: cfg.Timeout}

	var (
		conn net.Conn
		err  error
	)
	if cfg.UseTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", address, &tls.Config{ServerName: cfg.Host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("mailer: dial %s: %w", address, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("mailer: new client: %w", err)
	}

	if !cfg.UseTLS {
		ok, _ := client.Extension("STARTTLS")
		switch {
		case ok:
			if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				_ = client.Close()
				_ = conn.Close()
				return nil, nil, fmt.Errorf("mailer: start tls: %w", err)
			}
		case strings.TrimSpace(cfg.Username) != "":
			// Credentials never go over a plaintext connection.
			_ = client.Close()
			_ = conn.Close()
			return nil, nil, fmt.Errorf("mailer: %s does not offer STARTTLS, refusing plaintext auth", address)
		}
	}

	return conn, &realSMTPClient{Client: client}, nil
}

func authSMTP(client smtpClient, cfg SMTPSettings) error {
	if strings.TrimSpace(cfg.Username) == "" {
		return nil
	}
	if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
		return fmt.Errorf("mailer: auth: %w", err)
	}
	return nil
}

type realSMTPClient struct {
	*smtp.Client
}

// formatMessage renders the wire message. Auto-Submitted marks the mail as
// transactional so receivers do not bounce vacation replies back at us.
func formatMessage(from string, to []string, subject, body string) string {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", strings.Join(to, ", ")),
		fmt.Sprintf("Subject: %s", escapeHeader(subject)),
		fmt.Sprintf("Date: %s", time.Now().Format(time.RFC1123Z)),
		"Auto-Submitted: auto-generated",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
	}

	return strings.Join(headers, "\r\n") + body
}

// escapeHeader flattens CRLF so a crafted subject cannot inject headers.
func escapeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}

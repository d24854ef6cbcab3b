// Package notify formats and sends the e-mails sent to coordinators.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

var (
	// ErrInvalidRecipient is returned for an address without "@".
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrMailerDisabled is returned when no SMTP server is configured.
	ErrMailerDisabled = errors.New("mailer disabled")
)

// Message is one HTML e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string

	// ID correlates the message with log lines. Optional.
	ID string
}

//go:generate mockgen -destination=mocks/mock_mailer.go -package=mocks github.com/erazemk/almoxarifado/internal/notify Mailer

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends each message on a fresh STARTTLS connection.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewMailer returns an SMTP mailer, or a disabled one when no host is set.
func NewMailer(cfg SMTPConfig) Mailer {
	if cfg.Host == "" {
		return disabledMailer{}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}

	email := mail.NewMsg()
	if err := email.From(m.cfg.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := email.To(msg.To); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextHTML, msg.HTML)
	if msg.ID != "" {
		email.SetGenHeader(mail.Header("X-Almoxarifado-ID"), msg.ID)
	}

	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

type disabledMailer struct{}

func (disabledMailer) Send(context.Context, Message) error {
	return ErrMailerDisabled
}

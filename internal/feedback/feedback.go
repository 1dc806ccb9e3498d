// Package feedback sends user feedback by email.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/debuglog"
)

// Status messages shown while and after sending.
const (
	StatusSending = "Sending..."
	StatusSent    = "Feedback sent successfully!"
	StatusFailed  = "Failed to send feedback. Please try again."
)

var (
	// ErrInvalidMessage is returned for a message with missing or malformed fields.
	ErrInvalidMessage = errors.New("invalid feedback message")
	// ErrNotConfigured is returned when no SMTP host or recipient is set.
	ErrNotConfigured = errors.New("feedback email is not configured")
)

// MaxBodyLength bounds the message body.
const MaxBodyLength = 5000

// Message is one piece of feedback.
type Message struct {
	Name  string
	Email string
	Body  string
}

// Validate trims the fields and checks them.
func (m *Message) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Body = strings.TrimSpace(m.Body)

	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidMessage)
	case m.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidMessage)
	case m.Body == "":
		return fmt.Errorf("%w: message is required", ErrInvalidMessage)
	case len(m.Body) > MaxBodyLength:
		return fmt.Errorf("%w: message too long (max %d characters)", ErrInvalidMessage, MaxBodyLength)
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrInvalidMessage)
	}
	return nil
}

// DeliverFunc sends a built message.
type DeliverFunc func(ctx context.Context, msg *gomail.Msg) error

// Sender delivers feedback over SMTP.
type Sender struct {
	cfg     config.FeedbackConfig
	deliver DeliverFunc
}

// Option customizes a Sender.
type Option func(*Sender)

// WithDeliver replaces SMTP delivery.
func WithDeliver(fn DeliverFunc) Option {
	return func(s *Sender) { s.deliver = fn }
}

func NewSender(cfg config.FeedbackConfig, opts ...Option) *Sender {
	s := &Sender{cfg: cfg}
	s.deliver = s.dialAndSend
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a destination has been set up.
func (s *Sender) Configured() bool {
	return s.cfg.SMTPHost != "" && s.cfg.To != ""
}

// Send validates msg and mails it to the configured recipient.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if !s.Configured() {
		return ErrNotConfigured
	}

	m, err := s.build(msg)
	if err != nil {
		return err
	}

	if err := s.deliver(ctx, m); err != nil {
		debuglog.Errorf("feedback delivery failed: %v", err)
		return fmt.Errorf("sending feedback: %w", err)
	}
	debuglog.Infof("feedback sent from %s", msg.Email)
	return nil
}

func (s *Sender) build(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()

	from := s.cfg.From
	if from == "" {
		from = s.cfg.To
	}
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := m.To(s.cfg.To); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	if err := m.ReplyToFormat(msg.Name, msg.Email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	subject := s.cfg.Subject
	if subject == "" {
		subject = "reel feedback"
	}
	m.Subject(fmt.Sprintf("%s from %s", subject, msg.Name))
	m.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf("From: %s <%s>\n\n%s\n", msg.Name, msg.Email, msg.Body))
	m.SetGenHeader(gomail.HeaderXMailer, "reel")
	m.SetDate()
	m.SetMessageID()

	return m, nil
}

func (s *Sender) dialAndSend(ctx context.Context, m *gomail.Msg) error {
	var opts []gomail.Option
	if s.cfg.SMTPPort > 0 {
		opts = append(opts, gomail.WithPort(s.cfg.SMTPPort))
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}
	defer client.Close()

	sendCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return client.DialAndSendWithContext(sendCtx, m)
}

// StatusFor maps a Send result to the message shown to the user.
func StatusFor(err error) string {
	if err == nil {
		return StatusSent
	}
	return StatusFailed
}

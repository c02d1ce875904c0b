// Package mailer delivers outreach email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Message is one outgoing plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
	ReplyTo string
	Bcc     []string
}

// Sender delivers messages and returns the Message-ID it assigned.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Dialer is the part of gomail.Dialer used by the SMTP sender.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Retry    resilience.RetryConfig
}

// SMTPSender sends through an SMTP relay via gomail.
type SMTPSender struct {
	dialer   Dialer
	from     string
	fromName string
	domain   string
	retry    resilience.RetryConfig
	now      func() time.Time
}

// NewSMTPSender creates a sender for cfg. From must be a valid address.
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, eris.New("mailer: smtp host is required")
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewSender(d, cfg)
}

// NewSender creates a sender over an existing dialer.
func NewSender(d Dialer, cfg Config) (*SMTPSender, error) {
	addr, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, eris.Wrapf(err, "mailer: invalid from address %q", cfg.From)
	}
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = resilience.DefaultRetryConfig()
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("smtp", "send")
	}

	domain := "localhost"
	if at := strings.LastIndex(addr.Address, "@"); at >= 0 {
		domain = addr.Address[at+1:]
	}
	return &SMTPSender{
		dialer:   d,
		from:     addr.Address,
		fromName: cfg.FromName,
		domain:   domain,
		retry:    retry,
		now:      time.Now,
	}, nil
}

// Send delivers msg, retrying transient (4yz, network) failures. Permanent
// SMTP rejections are returned immediately.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return "", eris.Wrapf(err, "mailer: invalid recipient %q", msg.To)
	}

	id := s.MessageID()
	m := s.build(msg, id)

	err := resilience.Do(ctx, s.retry, func(context.Context) error {
		return s.dialer.DialAndSend(m)
	})
	if err != nil {
		return "", eris.Wrapf(err, "mailer: send to %s (%s)", msg.To, resilience.Classify(err))
	}

	zap.L().Info("email sent",
		zap.String("to", msg.To),
		zap.String("message_id", id),
	)
	return id, nil
}

// MessageID returns a fresh RFC 5322 Message-ID in the sender's domain.
func (s *SMTPSender) MessageID() string {
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), s.domain)
}

func (s *SMTPSender) build(msg Message, id string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetDateHeader("Date", s.now())
	m.SetBody("text/plain", msg.Body)
	return m
}

var _ Sender = (*SMTPSender)(nil)

// Package mailer delivers outbound email: over SMTP in deployments, to the log
// in development, with bounded retries either way.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"
)

type Message struct {
	Subject string
	Body    string
	From    string
	To      []string
}

func (m Message) validate() error {
	if m.From == "" {
		return errors.New("mailer: empty sender")
	}
	if len(m.To) == 0 {
		return errors.New("mailer: no recipients")
	}
	for _, addr := range append([]string{m.From}, m.To...) {
		if strings.ContainsAny(addr, "\r\n") {
			return fmt.Errorf("mailer: invalid address %q", addr)
		}
	}
	return nil
}

// build renders m as a plain-text message with Date and Message-ID set and
// the subject encoded for non-ASCII text.
func (m Message) build() (*mail.Msg, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("mailer: sender: %w", err)
	}
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("mailer: recipients: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, m.Body)
	return msg, nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through a relay, upgrading to TLS when the server
// offers it. A new connection is made per message.
type SMTPSender struct {
	host string
	opts []mail.Option
}

func NewSMTPSender(host string, port int, username, password string) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(10 * time.Second),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	if _, err := mail.NewClient(host, opts...); err != nil {
		return nil, fmt.Errorf("mailer: smtp client: %w", err)
	}
	return &SMTPSender{host: host, opts: opts}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := msg.build()
	if err != nil {
		return backoff.Permanent(err)
	}

	client, err := mail.NewClient(s.host, s.opts...)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("mailer: smtp client: %w", err))
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("mailer: dial: %w", err)
	}
	// once DATA is accepted the relay owns the message; a failed QUIT changes nothing
	defer func() { _ = client.Close() }()

	if err := client.Send(m); err != nil {
		var sendErr *mail.SendError
		if errors.As(err, &sendErr) && !sendErr.IsTemp() {
			return backoff.Permanent(fmt.Errorf("mailer: send: %w", err))
		}
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return backoff.Permanent(err)
	}
	s.log.InfoContext(ctx, "mail_logged",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

type RetryConfig struct {
	MaxRetries      int
	RatePerSecond   float64
	InitialInterval time.Duration
}

// RetrySender paces deliveries through a token bucket and retries transient
// failures with exponential backoff. Errors wrapped with backoff.Permanent
// are returned immediately.
type RetrySender struct {
	next    Sender
	limiter *rate.Limiter
	cfg     RetryConfig
	log     *slog.Logger
}

func NewRetrySender(next Sender, cfg RetryConfig, log *slog.Logger) *RetrySender {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	return &RetrySender{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cfg:     cfg,
		log:     log,
	}
}

func (s *RetrySender) Send(ctx context.Context, msg Message) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.cfg.InitialInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.cfg.MaxRetries)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		return s.next.Send(ctx, msg)
	}
	notify := func(err error, wait time.Duration) {
		s.log.WarnContext(ctx, "mail_send_retry", "attempt", attempt, "wait", wait, "error", err.Error())
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return fmt.Errorf("send mail after %d attempt(s): %w", attempt, err)
	}
	return nil
}

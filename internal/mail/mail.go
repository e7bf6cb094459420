package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"github.com/campusconecto/campusconecto/backend/api/pkg/metrics"
)

var ErrNoProvider = errors.New("no mail provider configured")

// Message is an HTML email to a single recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message through one provider.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Chain tries each sender in order and stops at the first success.
type Chain struct {
	senders []Sender
}

func NewChain(senders ...Sender) *Chain {
	return &Chain{senders: senders}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Send(ctx context.Context, msg Message) error {
	if len(c.senders) == 0 {
		return ErrNoProvider
	}
	var errs []error
	for _, s := range c.senders {
		err := s.Send(ctx, msg)
		if err == nil {
			metrics.MailSent.WithLabelValues(s.Name(), "ok").Inc()
			return nil
		}
		metrics.MailSent.WithLabelValues(s.Name(), "error").Inc()
		logger.Warnf("mail via %s to %s failed: %v", s.Name(), msg.To, err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return errors.Join(errs...)
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.Infof("mail to=%s subject=%q (%d bytes html)", msg.To, msg.Subject, len(msg.HTML))
	return nil
}

package mail

import (
	"context"
	"strings"

	"github.com/campusconecto/campusconecto/backend/api/internal/config"
	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
)

// NewSenderFromConfig assembles the delivery chain named by
// cfg.Providers. Providers missing their credentials are skipped; when none
// remain, messages are only logged.
func NewSenderFromConfig(ctx context.Context, cfg config.MailConfig) Sender {
	var senders []Sender
	for _, p := range cfg.Providers {
		switch strings.ToLower(p) {
		case "resend":
			if cfg.ResendAPIKey == "" {
				logger.Debugf("mail: resend skipped, RESEND_API_KEY not set")
				continue
			}
			senders = append(senders, NewResendSender(cfg.ResendAPIKey, cfg.From))
		case "ses":
			if cfg.AWSRegion == "" {
				logger.Debugf("mail: ses skipped, AWS_REGION not set")
				continue
			}
			s, err := NewSESSender(ctx, cfg.AWSRegion, cfg.From)
			if err != nil {
				logger.Warnf("mail: ses unavailable: %v", err)
				continue
			}
			senders = append(senders, s)
		case "smtp":
			if cfg.SMTPHost == "" {
				logger.Debugf("mail: smtp skipped, SMTP_HOST not set")
				continue
			}
			senders = append(senders, NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From))
		case "log":
			senders = append(senders, LogSender{})
		default:
			logger.Warnf("mail: unknown provider %q", p)
		}
	}
	if len(senders) == 0 {
		logger.Warnf("mail: no provider configured, emails will only be logged")
		senders = append(senders, LogSender{})
	}
	return NewChain(senders...)
}

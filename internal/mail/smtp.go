package mail

import (
	"context"
	"fmt"
	"net/smtp"
)

// SMTPSender delivers through a plain-auth SMTP relay.
type SMTPSender struct {
	host     string
	port     string
	user     string
	password string
	from     string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host, port, user, password, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, password: password, from: from, send: smtp.SendMail}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}
	body := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.from, msg.To, msg.Subject, msg.HTML,
	))
	return s.send(fmt.Sprintf("%s:%s", s.host, s.port), auth, envelopeAddress(s.from), []string{msg.To}, body)
}

// envelopeAddress strips a display name: "Name <a@b>" -> "a@b".
func envelopeAddress(from string) string {
	for i := len(from) - 1; i >= 0; i-- {
		if from[i] == '<' {
			end := len(from)
			if from[end-1] == '>' {
				end--
			}
			return from[i+1 : end]
		}
	}
	return from
}

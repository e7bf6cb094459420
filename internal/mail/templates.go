package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<h2>Hello {{.FullName}},</h2>
<p>Welcome to <strong>Campus Conecto</strong>!</p>
<p>We're excited to have you on board. Explore academic circles, share ideas, and grow together!</p>
<p>Visit <a href="{{.FrontendURL}}">{{.FrontendURL}}</a> to get started.</p>
<br/>
<p>Campus Conecto Team</p>
`))

var resetCodeTmpl = template.Must(template.New("resetCode").Parse(`
<h2>Password Reset Request</h2>
<p>You have requested to reset your password for your Campus Conecto account.</p>
<p>Here is your One-Time Password (OTP):</p>
<h1 style="font-size: 40px; letter-spacing: 5px; text-align: center; color: #4a6cf7;">{{.Code}}</h1>
<p>This OTP is valid for {{.Minutes}} minutes. If you did not request a password reset, please ignore this email.</p>
<br/>
<p>Campus Conecto Team</p>
`))

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// Mailer renders the account emails and hands them to a Sender.
type Mailer struct {
	sender      Sender
	frontendURL string
}

func NewMailer(sender Sender, frontendURL string) *Mailer {
	return &Mailer{sender: sender, frontendURL: frontendURL}
}

func (m *Mailer) SendWelcome(ctx context.Context, to, fullName string) error {
	html, err := render(welcomeTmpl, struct{ FullName, FrontendURL string }{fullName, m.frontendURL})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{To: to, Subject: "Welcome to Campus Conecto!", HTML: html})
}

func (m *Mailer) SendResetCode(ctx context.Context, to, code string, ttl time.Duration) error {
	html, err := render(resetCodeTmpl, struct {
		Code    string
		Minutes int
	}{code, int(ttl.Minutes())})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{To: to, Subject: "Password Reset OTP - Campus Conecto", HTML: html})
}

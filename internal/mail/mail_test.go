package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/config"
	"github.com/campusconecto/campusconecto/backend/api/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name string
	err  error
	sent []Message
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestChainFallsBack(t *testing.T) {
	failing := &fakeSender{name: "primary", err: errors.New("down")}
	backup := &fakeSender{name: "backup"}
	failed := testutil.ToFloat64(metrics.MailSent.WithLabelValues("primary", "error"))

	require.NoError(t, NewChain(failing, backup).Send(context.Background(), Message{To: "a@x.com"}))
	require.Len(t, backup.sent, 1)
	require.Equal(t, failed+1, testutil.ToFloat64(metrics.MailSent.WithLabelValues("primary", "error")))
}

func TestChainAllFail(t *testing.T) {
	err := NewChain(&fakeSender{name: "a", err: errors.New("x")}, &fakeSender{name: "b", err: errors.New("y")}).
		Send(context.Background(), Message{To: "a@x.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "a: x")
	require.Contains(t, err.Error(), "b: y")

	require.ErrorIs(t, NewChain().Send(context.Background(), Message{}), ErrNoProvider)
}

func TestMailerTemplates(t *testing.T) {
	rec := &fakeSender{name: "rec"}
	m := NewMailer(rec, "https://campusconecto.com")
	ctx := context.Background()

	require.NoError(t, m.SendWelcome(ctx, "alice@x.com", "<Alice>"))
	require.NoError(t, m.SendResetCode(ctx, "alice@x.com", "123456", 15*time.Minute))
	require.Len(t, rec.sent, 2)

	welcome := rec.sent[0]
	require.Equal(t, "Welcome to Campus Conecto!", welcome.Subject)
	require.Contains(t, welcome.HTML, "&lt;Alice&gt;")
	require.Contains(t, welcome.HTML, "https://campusconecto.com")

	reset := rec.sent[1]
	require.Equal(t, "alice@x.com", reset.To)
	require.Contains(t, reset.HTML, "123456")
	require.Contains(t, reset.HTML, "valid for 15 minutes")
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", "587", "user", "pw", "Campus Conecto <no-reply@campusconecto.com>")
	var gotAddr, gotFrom string
	var gotBody []byte
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotBody = addr, from, msg
		require.NotNil(t, a)
		require.Equal(t, []string{"bob@x.com"}, to)
		return nil
	}
	require.NoError(t, s.Send(context.Background(), Message{To: "bob@x.com", Subject: "Hi", HTML: "<p>x</p>"}))
	require.Equal(t, "smtp.example.com:587", gotAddr)
	require.Equal(t, "no-reply@campusconecto.com", gotFrom)
	require.True(t, strings.Contains(string(gotBody), "Content-Type: text/html"))
	require.True(t, strings.HasSuffix(string(gotBody), "<p>x</p>\r\n"))
}

func TestNewSenderFromConfig(t *testing.T) {
	chain, ok := NewSenderFromConfig(context.Background(), config.MailConfig{Providers: []string{"resend", "smtp"}}).(*Chain)
	require.True(t, ok)
	require.Len(t, chain.senders, 1)
	require.Equal(t, "log", chain.senders[0].Name())

	chain = NewSenderFromConfig(context.Background(), config.MailConfig{
		Providers:    []string{"resend", "smtp"},
		ResendAPIKey: "re_test",
		SMTPHost:     "smtp.example.com",
	}).(*Chain)
	require.Len(t, chain.senders, 2)
	require.Equal(t, "resend", chain.senders[0].Name())
	require.Equal(t, "smtp", chain.senders[1].Name())
}

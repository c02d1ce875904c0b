package mailer

import (
	"bytes"
	"context"
	"errors"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

type fakeDialer struct {
	errs []error
	sent []*gomail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.sent = append(f.sent, m...)
	return nil
}

func testConfig() Config {
	return Config{
		From:     "jan@youngadvisory.nl",
		FromName: "Jan de Vries",
		Retry:    resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	}
}

func TestSend_BuildsMessage(t *testing.T) {
	d := &fakeDialer{}
	s, err := NewSender(d, testConfig())
	require.NoError(t, err)

	id, err := s.Send(context.Background(), Message{
		To:      "piet@acme.nl",
		Subject: "Young Advisory Group x Acme",
		Body:    "Beste Piet,\n\nGroet",
		Bcc:     []string{"crm@youngadvisory.nl"},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^<[0-9a-f-]{36}@youngadvisory\.nl>$`, id)

	require.Len(t, d.sent, 1)
	m := d.sent[0]
	assert.Equal(t, []string{"piet@acme.nl"}, m.GetHeader("To"))
	assert.Equal(t, []string{id}, m.GetHeader("Message-ID"))
	assert.Equal(t, []string{"Young Advisory Group x Acme"}, m.GetHeader("Subject"))
	assert.Contains(t, m.GetHeader("From")[0], "jan@youngadvisory.nl")

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Beste Piet,")
}

func TestSend_RetriesTransient(t *testing.T) {
	d := &fakeDialer{errs: []error{&textproto.Error{Code: 451, Msg: "try again later"}}}
	s, err := NewSender(d, testConfig())
	require.NoError(t, err)

	_, err = s.Send(context.Background(), Message{To: "piet@acme.nl", Subject: "x", Body: "y"})
	require.NoError(t, err)
	assert.Len(t, d.sent, 1)
}

func TestSend_PermanentRejection(t *testing.T) {
	d := &fakeDialer{errs: []error{&textproto.Error{Code: 550, Msg: "mailbox unavailable"}, nil}}
	s, err := NewSender(d, testConfig())
	require.NoError(t, err)

	_, err = s.Send(context.Background(), Message{To: "piet@acme.nl", Subject: "x", Body: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permanent")
	assert.Empty(t, d.sent)
}

func TestSend_InvalidRecipient(t *testing.T) {
	d := &fakeDialer{}
	s, err := NewSender(d, testConfig())
	require.NoError(t, err)

	_, err = s.Send(context.Background(), Message{To: "not an address"})
	assert.Error(t, err)
	assert.Empty(t, d.sent)
}

func TestNewSender_Validation(t *testing.T) {
	_, err := NewSender(&fakeDialer{}, Config{From: "bogus"})
	assert.Error(t, err)

	_, err = NewSMTPSender(Config{From: "a@b.nl"})
	assert.Error(t, err)

	s, err := NewSMTPSender(Config{Host: "smtp.example.com", Port: 587, From: "a@b.nl"})
	require.NoError(t, err)
	assert.Equal(t, "b.nl", s.domain)
}

func TestSend_ContextCanceled(t *testing.T) {
	d := &fakeDialer{errs: []error{errors.New("connection reset by peer"), errors.New("connection reset by peer")}}
	cfg := testConfig()
	cfg.Retry.InitialBackoff = time.Second
	s, err := NewSender(d, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Send(ctx, Message{To: "piet@acme.nl"})
	assert.Error(t, err)
}

package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSenderComposesMessage(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 1025, From: `"BizInsight360" <no-reply@bizinsight360.com>`})
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	sender.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := sender.Send(context.Background(), PasswordResetMessage("user@example.com", "http://localhost:3000/reset-password?token=abc"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:1025", gotAddr)
	assert.Equal(t, "no-reply@bizinsight360.com", gotFrom)
	assert.Equal(t, []string{"user@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, `From: "BizInsight360" <no-reply@bizinsight360.com>`+"\r\n"))
	assert.Contains(t, gotMsg, "Subject: Password Reset Request\r\n")
	assert.Contains(t, gotMsg, "reset-password?token=abc")
}

func TestSMTPSenderRejectsHeaderInjection(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 25, From: "a@b.c"})
	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	err := sender.Send(context.Background(), Message{To: "x@example.com\r\nBcc: y@example.com", Subject: "hi"})
	assert.Error(t, err)
}

func TestSMTPSenderHonoursCancelledContext(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 25, From: "a@b.c"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, Message{To: "x@example.com"}), context.Canceled)
}

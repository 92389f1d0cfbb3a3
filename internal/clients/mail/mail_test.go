package mail

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"crypto-pulse/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPBody(t *testing.T) {
	assert.Equal(t, "Your OTP is: 123456. It is valid for 10 minutes.", OTPBody("123456", 10))
}

func TestNewSenderWithoutHostLogs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	sender, err := NewSender(config.Config{}, log)
	require.NoError(t, err)
	require.IsType(t, &LogSender{}, sender)

	require.NoError(t, sender.SendOTP(context.Background(), "a@x.com", "654321"))
	assert.Contains(t, buf.String(), `"to":"a@x.com"`)
	assert.Contains(t, buf.String(), `"otp":"654321"`)
}

func TestSMTPSenderUnreachable(t *testing.T) {
	sender, err := NewSender(config.Config{
		SMTPHost:      "127.0.0.1",
		SMTPPort:      1,
		MailFrom:      "no-reply@cryptopulse.local",
		OTPTTLMinutes: 10,
	}, slog.Default())
	require.NoError(t, err)
	require.IsType(t, &SMTPSender{}, sender)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, sender.SendOTP(ctx, "a@x.com", "123456"))
}

func TestSMTPSenderRejectsBadRecipient(t *testing.T) {
	sender, err := NewSMTPSender(config.Config{SMTPHost: "127.0.0.1", SMTPPort: 1, MailFrom: "no-reply@cryptopulse.local"})
	require.NoError(t, err)

	err = sender.SendOTP(context.Background(), "not an address", "123456")
	assert.ErrorContains(t, err, "mail to")
}

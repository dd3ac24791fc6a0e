package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"uctenky/backend/config"
)

func TestNew_DisabledFallsBackToLog(t *testing.T) {
	s, err := New(&config.MailConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	assert.NoError(t, s.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "x"}))
	assert.ErrorIs(t, s.Send(context.Background(), Message{Subject: "x"}), ErrNoRecipients)
}

func TestBuild(t *testing.T) {
	m, err := build("uctenky@example.com", Message{
		To:      []string{"jana@example.com"},
		Subject: "Ticket approved",
		Body:    "ok",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ticket approved"}, m.GetGenHeader("Subject"))

	_, err = build("uctenky@example.com", Message{})
	assert.ErrorIs(t, err, ErrNoRecipients)

	_, err = build("not an address", Message{To: []string{"jana@example.com"}})
	assert.Error(t, err)
}

package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/receivinggo/internal/notify"
)

func TestSend(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotMsg string
	m := New("smtp.example.com", "587", "bot@example.com", "pw", "Inspection Bot").
		WithSendFunc(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, string(msg)
			assert.Equal(t, "bot@example.com", from)
			return nil
		})

	ok := m.Send(context.Background(), notify.Message{To: []string{"a@example.com", "b@example.com"}, Subject: "✅ ORDER COMPLETE - PO: X", Body: "line1\nline2"})
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, gotMsg, "Subject: =?utf-8?q?")
	assert.True(t, strings.HasSuffix(gotMsg, "line1\r\nline2"))
}

func TestSend_Failures(t *testing.T) {
	failing := New("h", "25", "u", "p", "").WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("550 rejected")
	})
	assert.False(t, failing.Send(context.Background(), notify.Message{To: []string{"a@example.com"}}))

	unconfigured := New("h", "25", "", "", "")
	assert.False(t, unconfigured.Send(context.Background(), notify.Message{To: []string{"a@example.com"}}))
}

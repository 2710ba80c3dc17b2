package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  email.SendEmailParams
		wantErr string
	}{
		{
			name:   "valid params",
			params: email.SendEmailParams{SendTo: "owner@example.com", Subject: "Hi", BodyHTML: "<p>x</p>", Tag: "t"},
		},
		{
			name:   "plus addressing",
			params: email.SendEmailParams{SendTo: "owner+arns@sub.example.com", Subject: "Hi", BodyHTML: "<p>x</p>"},
		},
		{
			name:    "empty recipient",
			params:  email.SendEmailParams{Subject: "Hi", BodyHTML: "<p>x</p>"},
			wantErr: "SendTo is required",
		},
		{
			name:    "malformed recipient",
			params:  email.SendEmailParams{SendTo: "not-an-address", Subject: "Hi", BodyHTML: "<p>x</p>"},
			wantErr: "SendTo must be a valid email address",
		},
		{
			name:    "blank subject",
			params:  email.SendEmailParams{SendTo: "owner@example.com", Subject: "  ", BodyHTML: "<p>x</p>"},
			wantErr: "Subject is required",
		},
		{
			name:    "blank body",
			params:  email.SendEmailParams{SendTo: "owner@example.com", Subject: "Hi", BodyHTML: "\n"},
			wantErr: "BodyHTML is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.params.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	dev, err := email.New(ctx, email.Config{Provider: email.ProviderDev, DevOutputDir: t.TempDir(), SenderEmail: "noreply@example.com"})
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, dev)

	_, err = email.New(ctx, email.Config{Provider: email.ProviderPostmark, SenderEmail: "noreply@example.com"})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)

	_, err = email.New(ctx, email.Config{Provider: email.ProviderSES, SenderEmail: "noreply@example.com"})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)

	_, err = email.New(ctx, email.Config{Provider: "mailgun", SenderEmail: "noreply@example.com"})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "owner@example.com",
		Subject:  "Grace period started",
		BodyHTML: "<p>example</p>",
		BodyText: "example",
		Tag:      "arns-name-grace-period-start",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var metaFile string
	for _, e := range entries {
		assert.Contains(t, e.Name(), "arns-name-grace-period-start")
		if strings.HasSuffix(e.Name(), ".json") {
			metaFile = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, metaFile)

	raw, err := os.ReadFile(metaFile)
	require.NoError(t, err)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "owner@example.com", meta["send_to"])
	assert.Equal(t, "Grace period started", meta["subject"])

	err = sender.SendEmail(context.Background(), email.SendEmailParams{SendTo: "bad", Subject: "x", BodyHTML: "x"})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}

package postgres_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/arnsnotify/storage/postgres"
)

func TestMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(postgres.Migrations, postgres.MigrationsDir+"/*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)

	var all strings.Builder
	for _, f := range files {
		b, err := fs.ReadFile(postgres.Migrations, f)
		require.NoError(t, err)
		body := string(b)
		assert.Contains(t, body, "-- +goose Up", f)
		assert.Contains(t, body, "-- +goose Down", f)
		all.WriteString(body)
	}

	schema := all.String()
	for _, table := range []string{
		"subscribers", "subscriber_event_types", "name_subscriptions", "events",
		"webhooks", "webhook_event_types", "arns_names", "arns_expiration_notifications",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
	assert.Contains(t, schema, "nonce BIGINT PRIMARY KEY")
	assert.Contains(t, schema, "UNIQUE (name, notification_type, end_timestamp)")
}

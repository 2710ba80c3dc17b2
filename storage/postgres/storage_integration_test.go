//go:build integration

package postgres_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/dmitrymomot/arnsnotify/pkg/logger"
	"github.com/dmitrymomot/arnsnotify/pkg/pg"
	"github.com/dmitrymomot/arnsnotify/storage/postgres"
	"github.com/dmitrymomot/arnsnotify/svc/arns"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

var (
	poolOnce   sync.Once
	sharedPool *pgxpool.Pool
	poolErr    error
)

// migratedPool starts one PostgreSQL container for the package and applies
// the embedded migrations. Ryuk removes the container after the run. Tests
// use disjoint nonces and names instead of truncating.
func migratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	poolOnce.Do(func() {
		ctx := context.Background()
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("arnsnotify"),
			tcpostgres.WithUsername("arnsnotify"),
			tcpostgres.WithPassword("arnsnotify"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			poolErr = err
			return
		}
		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			poolErr = err
			return
		}

		cfg := pg.Config{
			ConnectionString: dsn,
			MaxOpenConns:     20,
			MaxIdleConns:     2,
			RetryAttempts:    5,
			RetryInterval:    time.Second,
			MigrationsPath:   postgres.MigrationsDir,
			MigrationsTable:  "schema_migrations",
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			_ = container.Terminate(ctx)
			poolErr = err
			return
		}
		if err := pg.Migrate(ctx, pool, cfg, logger.Discard(), postgres.Migrations); err != nil {
			pool.Close()
			_ = container.Terminate(ctx)
			poolErr = err
			return
		}
		sharedPool = pool
	})
	if poolErr != nil {
		t.Fatalf("failed to start postgres container: %v", poolErr)
	}
	return sharedPool
}

func TestStorage_ClaimEventConcurrent(t *testing.T) {
	t.Parallel()

	store := postgres.New(migratedPool(t))
	ctx := context.Background()
	e := notify.Event{
		EventType: notify.EventBuyNameNotice,
		EventData: map[string]any{"name": "race"},
		Nonce:     9001,
	}

	const claimers = 16
	var (
		wg   sync.WaitGroup
		won  atomic.Int32
		errs = make(chan error, claimers)
	)
	start := make(chan struct{})
	for range claimers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := store.ClaimEvent(ctx, e, time.Now())
			if err != nil {
				errs <- err
				return
			}
			if ok {
				won.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), won.Load())

	stored, err := store.GetEvent(ctx, e.Nonce)
	require.NoError(t, err)
	assert.Equal(t, e.EventType, stored.EventType)
	assert.Equal(t, "race", stored.EventData["name"])
	assert.Nil(t, stored.ProcessedAt)
}

func TestStorage_EventLifecycle(t *testing.T) {
	t.Parallel()

	store := postgres.New(migratedPool(t))
	ctx := context.Background()
	e := notify.Event{EventType: notify.EventBuyNameNotice, Nonce: 9002}

	ok, err := store.ClaimEvent(ctx, e, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	// a released claim can be taken again
	require.NoError(t, store.ReleaseEvent(ctx, e.Nonce))
	_, err = store.GetEvent(ctx, e.Nonce)
	assert.ErrorIs(t, err, notify.ErrEventNotFound)

	ok, err = store.ClaimEvent(ctx, e, time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.MarkEventProcessed(ctx, e.Nonce, time.Now()))

	// processed rows survive release
	require.NoError(t, store.ReleaseEvent(ctx, e.Nonce))
	stored, err := store.GetEvent(ctx, e.Nonce)
	require.NoError(t, err)
	assert.NotNil(t, stored.ProcessedAt)

	ok, err = store.ClaimEvent(ctx, e, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, store.MarkEventProcessed(ctx, 9999, time.Now()), notify.ErrEventNotFound)
}

func TestStorage_UpsertLeasedNameKeepsOwner(t *testing.T) {
	t.Parallel()

	store := postgres.New(migratedPool(t))
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	require.NoError(t, store.UpsertLeasedName(ctx, arns.NameUpsert{
		Name:           "keep-owner",
		ProcessID:      "proc-1",
		StartTimestamp: start,
		EndTimestamp:   end,
		Ownership:      &arns.Ownership{Owner: "alice", RootTxID: "tx-1"},
		SyncedAt:       start,
	}))

	renewed := end.AddDate(1, 0, 0)
	require.NoError(t, store.UpsertLeasedName(ctx, arns.NameUpsert{
		Name:           "keep-owner",
		ProcessID:      "proc-2",
		StartTimestamp: start,
		EndTimestamp:   renewed,
		SyncedAt:       end,
	}))

	n, err := store.GetLeasedName(ctx, "keep-owner")
	require.NoError(t, err)
	assert.Equal(t, "proc-2", n.ProcessID)
	assert.Equal(t, "alice", n.Owner)
	assert.Equal(t, "tx-1", n.RootTxID)
	assert.True(t, renewed.Equal(n.EndTimestamp))

	require.NoError(t, store.UpsertLeasedName(ctx, arns.NameUpsert{
		Name:           "keep-owner",
		ProcessID:      "proc-2",
		StartTimestamp: start,
		EndTimestamp:   renewed,
		Ownership:      &arns.Ownership{Owner: "bob", RootTxID: "tx-2"},
		SyncedAt:       renewed,
	}))
	n, err = store.GetLeasedName(ctx, "keep-owner")
	require.NoError(t, err)
	assert.Equal(t, "bob", n.Owner)

	_, err = store.GetLeasedName(ctx, "missing-name")
	assert.ErrorIs(t, err, arns.ErrNameNotFound)

	names, err := store.ListNamesEndingBetween(ctx, renewed.Add(-time.Minute), renewed.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "keep-owner", names[0].Name)
}

func TestStorage_ExpirationReceiptRearm(t *testing.T) {
	t.Parallel()

	store := postgres.New(migratedPool(t))
	ctx := context.Background()
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	receipt := arns.ExpirationReceipt{
		Name:         "rearm",
		Type:         arns.NoticeGracePeriodStart,
		EndTimestamp: end,
		SentAt:       end,
	}

	inserted, err := store.InsertExpirationReceiptIfAbsent(ctx, receipt)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertExpirationReceiptIfAbsent(ctx, receipt)
	require.NoError(t, err)
	assert.False(t, inserted)

	// the other notice type for the same lease is independent
	ending := receipt
	ending.Type = arns.NoticeGracePeriodEnding
	inserted, err = store.InsertExpirationReceiptIfAbsent(ctx, ending)
	require.NoError(t, err)
	assert.True(t, inserted)

	// a renewal moves the end timestamp and re-arms the notice
	renewed := receipt
	renewed.EndTimestamp = end.AddDate(1, 0, 0)
	inserted, err = store.InsertExpirationReceiptIfAbsent(ctx, renewed)
	require.NoError(t, err)
	assert.True(t, inserted)

	require.NoError(t, store.DeleteExpirationReceipt(ctx, receipt.Name, receipt.Type, receipt.EndTimestamp))
	inserted, err = store.InsertExpirationReceiptIfAbsent(ctx, receipt)
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestStorage_SubscribersAndWebhooks(t *testing.T) {
	t.Parallel()

	pool := migratedPool(t)
	store := postgres.New(pool)
	ctx := context.Background()

	var subID, otherID string
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO subscribers (email, verified, premium) VALUES ('hooks@example.com', true, true) RETURNING id::text`,
	).Scan(&subID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO subscribers (email, verified) VALUES ('other@example.com', true) RETURNING id::text`,
	).Scan(&otherID))

	_, err := pool.Exec(ctx, `
INSERT INTO subscriber_event_types (subscriber_id, event_type)
VALUES ($1::uuid, $3), ($1::uuid, $4), ($2::uuid, $4)`,
		subID, otherID, string(notify.EventGracePeriodStart), string(notify.EventBuyNameNotice))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO name_subscriptions (subscriber_id, name) VALUES ($1::uuid, 'watched')`, subID)
	require.NoError(t, err)

	var hookID string
	require.NoError(t, pool.QueryRow(ctx, `
INSERT INTO webhooks (subscriber_id, url, type, auth_header)
VALUES ($1::uuid, 'https://hooks.example.com/in', 'discord', 'Bearer x')
RETURNING id::text`, subID).Scan(&hookID))
	_, err = pool.Exec(ctx, `
INSERT INTO webhook_event_types (webhook_id, event_type) VALUES ($1::uuid, $2), ($1::uuid, $3)`,
		hookID, string(notify.EventBuyNameNotice), string(notify.EventGracePeriodStart))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
WITH w AS (
    INSERT INTO webhooks (subscriber_id, url, active) VALUES ($1::uuid, 'https://hooks.example.com/off', false)
    RETURNING id
)
INSERT INTO webhook_event_types (webhook_id, event_type) SELECT id, $2::text FROM w`,
		subID, string(notify.EventBuyNameNotice))
	require.NoError(t, err)

	subs, err := store.FindSubscribersByEvent(ctx, notify.EventGracePeriodStart)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, subID, subs[0].ID)
	assert.True(t, subs[0].Premium)
	assert.ElementsMatch(t,
		[]notify.EventType{notify.EventBuyNameNotice, notify.EventGracePeriodStart}, subs[0].EventTypes)

	subs, err = store.FindSubscriptionsByName(ctx, "watched")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "hooks@example.com", subs[0].Email)

	hooks, err := store.FindWebhooks(ctx, notify.EventBuyNameNotice, []string{otherID, subID})
	require.NoError(t, err)
	require.Len(t, hooks, 1, "inactive hooks are skipped")
	assert.Equal(t, hookID, hooks[0].ID)
	assert.Equal(t, notify.WebhookDiscord, hooks[0].Type)
	assert.Equal(t, "Bearer x", hooks[0].Authorization)
	assert.Len(t, hooks[0].EventTypes, 2)
	assert.Nil(t, hooks[0].LastTriggeredAt)

	hooks, err = store.FindWebhooks(ctx, notify.EventBuyNameNotice, nil)
	require.NoError(t, err)
	assert.Empty(t, hooks)

	now := time.Now().UTC()
	require.NoError(t, store.UpdateWebhookDeliveryState(ctx, hookID, notify.DeliveryState{
		Status:      notify.WebhookStatusFailed,
		Error:       "status 400: " + strings.Repeat("é", 10),
		TriggeredAt: now,
	}))
	hooks, err = store.FindWebhooks(ctx, notify.EventBuyNameNotice, []string{subID})
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, notify.WebhookStatusFailed, hooks[0].LastStatus)
	assert.Contains(t, hooks[0].LastError, "400")
	require.NotNil(t, hooks[0].LastTriggeredAt)

	err = store.UpdateWebhookDeliveryState(ctx, "00000000-0000-0000-0000-000000000000", notify.DeliveryState{
		Status: notify.WebhookStatusSuccess, TriggeredAt: now,
	})
	assert.ErrorIs(t, err, notify.ErrWebhookNotFound)
}

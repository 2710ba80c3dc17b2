package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/arnsnotify/pkg/pg"
	"github.com/dmitrymomot/arnsnotify/svc/arns"
)

var _ arns.Store = (*Storage)(nil)

// Owner columns keep their value when the upsert carries no ownership.
const upsertLeasedNameQuery = `
INSERT INTO arns_names (name, process_id, owner, root_tx_id, start_timestamp, end_timestamp, last_synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (name) DO UPDATE SET
    process_id = EXCLUDED.process_id,
    start_timestamp = EXCLUDED.start_timestamp,
    end_timestamp = EXCLUDED.end_timestamp,
    last_synced_at = EXCLUDED.last_synced_at,
    owner = COALESCE(EXCLUDED.owner, arns_names.owner),
    root_tx_id = COALESCE(EXCLUDED.root_tx_id, arns_names.root_tx_id)`

func (s *Storage) UpsertLeasedName(ctx context.Context, u arns.NameUpsert) error {
	var owner, rootTx *string
	if u.Ownership != nil {
		owner, rootTx = &u.Ownership.Owner, &u.Ownership.RootTxID
	}
	_, err := s.db.Exec(ctx, upsertLeasedNameQuery,
		u.Name, u.ProcessID, owner, rootTx, u.StartTimestamp, u.EndTimestamp, u.SyncedAt)
	if err != nil {
		return fmt.Errorf("upsert arns name %s: %w", u.Name, err)
	}
	return nil
}

const leasedNameColumns = `
SELECT name, process_id, COALESCE(owner, ''), COALESCE(root_tx_id, ''),
       start_timestamp, end_timestamp, last_synced_at
FROM arns_names`

func (s *Storage) GetLeasedName(ctx context.Context, name string) (arns.LeasedName, error) {
	rows, err := s.db.Query(ctx, leasedNameColumns+` WHERE name = $1`, name)
	if err != nil {
		return arns.LeasedName{}, fmt.Errorf("get arns name %s: %w", name, err)
	}
	n, err := pgx.CollectExactlyOneRow(rows, scanLeasedName)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return arns.LeasedName{}, arns.ErrNameNotFound
		}
		return arns.LeasedName{}, fmt.Errorf("get arns name %s: %w", name, err)
	}
	return n, nil
}

func (s *Storage) ListNamesEndingBetween(ctx context.Context, from, to time.Time) ([]arns.LeasedName, error) {
	rows, err := s.db.Query(ctx,
		leasedNameColumns+` WHERE end_timestamp BETWEEN $1 AND $2 ORDER BY end_timestamp, name`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("list arns names ending between: %w", err)
	}
	names, err := pgx.CollectRows(rows, scanLeasedName)
	if err != nil {
		return nil, fmt.Errorf("scan arns names: %w", err)
	}
	return names, nil
}

func scanLeasedName(row pgx.CollectableRow) (arns.LeasedName, error) {
	var n arns.LeasedName
	err := row.Scan(&n.Name, &n.ProcessID, &n.Owner, &n.RootTxID,
		&n.StartTimestamp, &n.EndTimestamp, &n.LastSyncedAt)
	return n, err
}

const insertReceiptQuery = `
INSERT INTO arns_expiration_notifications (name, notification_type, end_timestamp, sent_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name, notification_type, end_timestamp) DO NOTHING`

func (s *Storage) InsertExpirationReceiptIfAbsent(ctx context.Context, r arns.ExpirationReceipt) (bool, error) {
	tag, err := s.db.Exec(ctx, insertReceiptQuery, r.Name, string(r.Type), r.EndTimestamp, r.SentAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert expiration receipt for %s: %w", r.Name, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Storage) DeleteExpirationReceipt(ctx context.Context, name string, t arns.NoticeType, end time.Time) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM arns_expiration_notifications WHERE name = $1 AND notification_type = $2 AND end_timestamp = $3`,
		name, string(t), end)
	if err != nil {
		return fmt.Errorf("delete expiration receipt for %s: %w", name, err)
	}
	return nil
}

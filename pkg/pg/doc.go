// Package pg opens pgx connection pools, applies goose migrations and
// classifies PostgreSQL errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	if err := pg.Migrate(ctx, pool, cfg, log, postgres.Migrations); err != nil { ... }
//
// IsDuplicateKeyError is the hook stores use to turn a unique-constraint
// violation into an "already exists" answer instead of a failure.
package pg

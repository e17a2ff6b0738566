// Package pg stores background task state in PostgreSQL.
//
// Connect opens a pgx pool with retries, Migrate applies the embedded goose
// migrations that create the kv_store table, and Storage implements the
// key-value contract used by background.Manager on top of it:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	store := pg.NewStorage(pool)
//
// Writes are upserts, so the table holds one row per key.
package pg

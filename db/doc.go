// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db is the persistence layer: schema, connection setup, queries, and
classification of constraint errors.

# Opening

	store, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatal(err)
	}

SQLite paths are rewritten by SQLiteDSN to enable foreign keys, a busy timeout
and immediate transactions. The SQLite pool holds one connection, so code
running inside InTx must use the transaction it was given and never the pool.

# Tables

  - users: accounts; username and email are unique
  - poll: owned by a user, deleted with it
  - poll_option: owned by a poll; tally is the stored vote count
  - vote: one per (poll_id, voter); references (poll_id, option_id)

# Relationships

	users 1──* poll
	poll 1──* poll_option
	poll 1──* vote
	poll_option 1──* vote (same poll only)

All foreign keys use ON DELETE CASCADE.

# Queries

Query functions accept sqlx.QueryerContext or sqlx.ExecerContext, so the same
function runs on the pool or inside a transaction:

	err := store.InTx(ctx, func(tx *sqlx.Tx) error {
		if err := db.InsertVote(ctx, tx, v); err != nil {
			return err
		}
		_, err := db.IncrementTally(ctx, tx, v.PollID, v.OptionID)
		return err
	})

# Errors

CastErr maps driver errors from both lib/pq and modernc.org/sqlite:

  - sql.ErrNoRows -> ErrNotFound
  - unique or primary key violation -> ErrConflict
  - foreign key violation -> ErrReference
*/
package db

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists vote records and counts them per team.

# Backends

Three backends implement VoteStore:

  - MongoStore: one document per vote in the votes collection (default)
  - SQLStore with driver "postgres" (lib/pq)
  - SQLStore with driver "sqlite" (modernc.org/sqlite, used by tests)

# Shared Handle

Handle owns the single long-lived connection. It dials on first use, so the
server starts even when the database is down or unconfigured:

	votes := store.NewHandleFromConfig(cfg)
	defer votes.Close(ctx)

Concurrent first requests wait on one open. A failed open is returned to
the caller and retried by the next request. With no connection string every
call fails with ErrNotConfigured.

Every error returned by Handle is a *StorageError.

# Schema

The SQL backends create this table on open (IF NOT EXISTS):

	votes(id, team, home_score, away_score, ip_hash, user_agent, created_at)

Mongo documents use the field names team, homeScore, awayScore,
timestamp, ipHash and userAgent.
*/
package store

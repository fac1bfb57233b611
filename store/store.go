// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"

	"github.com/danielhkuo/matchday-vote/cliparse"
	"github.com/danielhkuo/matchday-vote/models"
)

var ErrNotConfigured = errors.New("vote store not configured")

// VoteStore persists vote records and counts them per team.
// Records are append-only: there is no update or delete.
type VoteStore interface {
	InsertVote(ctx context.Context, vote models.Vote) error
	CountByTeam(ctx context.Context) (map[string]int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// StorageError wraps any failure that came from the backing store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewHandleFromConfig returns a lazily connecting handle for the configured
// backend. Nothing is dialed until the first request.
func NewHandleFromConfig(cfg cliparse.Config) *Handle {
	if cfg.DatabaseURL == "" {
		return NewHandle(nil)
	}

	switch cfg.DatabaseType {
	case cliparse.DatabaseMongo:
		return NewHandle(func(ctx context.Context) (VoteStore, error) {
			return OpenMongo(ctx, cfg.DatabaseURL, cfg.DatabaseName)
		})
	default:
		return NewHandle(func(ctx context.Context) (VoteStore, error) {
			return OpenSQL(ctx, cfg.DatabaseType, cfg.DatabaseURL)
		})
	}
}

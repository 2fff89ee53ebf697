package storage

import (
	"context"

	"namesmith/internal/domain"
)

// Repository defines the interface for persisting per-user application state.
// This allows us to swap storage implementations (e.g., BadgerDB, PostgreSQL)
// without changing the code that drives the bot.
type Repository interface {
	// LoadState returns the user's state. A missing or unreadable record
	// yields an empty state, never an error.
	LoadState(ctx context.Context, userID int64) (domain.State, error)

	// SaveState replaces the user's stored state with s.
	SaveState(ctx context.Context, userID int64, s domain.State) error

	// DeleteState forgets everything stored for the user.
	DeleteState(ctx context.Context, userID int64) error

	// Close gracefully shuts down the repository connection.
	Close() error
}

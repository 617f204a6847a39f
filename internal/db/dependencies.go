package db

import (
	"context"
	"time"
)

// Client is the persistent store. Every write commits immediately.
type Client interface {
	Close() error

	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key string, value string) error

	// GetPremiumUser returns nil and no error for unknown users.
	GetPremiumUser(ctx context.Context, userID int64) (*PremiumUser, error)
	// AddPremiumUser registers userID and reports whether it was new.
	AddPremiumUser(ctx context.Context, userID int64) (bool, error)
	// MarkBoosted sets has_boosted and the verification time, registering the user if needed.
	MarkBoosted(ctx context.Context, userID int64, at time.Time) error

	// AddWarning stores w and returns the number of warnings the user now has in that chat.
	AddWarning(ctx context.Context, w *Warning) (int, error)
	CountWarnings(ctx context.Context, chatID, userID int64) (int, error)
	// RemoveOldestWarnings deletes up to n warnings, oldest first, and returns how many went away.
	RemoveOldestWarnings(ctx context.Context, chatID, userID int64, n int) (int, error)
	ClearWarnings(ctx context.Context, chatID, userID int64) error
}

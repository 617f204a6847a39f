package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rottengram/rottenshield/internal/db"
)

func (c *Client) GetPremiumUser(ctx context.Context, userID int64) (*db.PremiumUser, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	user := &db.PremiumUser{}
	query := c.db.Rebind(`SELECT user_id, has_boosted, boost_verified_at FROM premium_users WHERE user_id = ?`)
	if err := c.db.GetContext(ctx, user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get premium user %d: %w", userID, err)
	}
	return user, nil
}

func (c *Client) AddPremiumUser(ctx context.Context, userID int64) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := c.db.Rebind(`
		INSERT INTO premium_users (user_id, has_boosted)
		VALUES (?, FALSE)
		ON CONFLICT (user_id) DO NOTHING
	`)
	res, err := c.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add premium user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (c *Client) MarkBoosted(ctx context.Context, userID int64, at time.Time) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := c.db.Rebind(`
		INSERT INTO premium_users (user_id, has_boosted, boost_verified_at)
		VALUES (?, TRUE, ?)
		ON CONFLICT (user_id) DO UPDATE SET
		has_boosted = excluded.has_boosted,
		boost_verified_at = excluded.boost_verified_at
	`)
	if _, err := c.db.ExecContext(ctx, query, userID, at.UTC()); err != nil {
		return fmt.Errorf("failed to mark user %d as boosted: %w", userID, err)
	}
	return nil
}

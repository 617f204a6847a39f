package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (c *Client) GetKV(ctx context.Context, key string) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var value string
	err := c.db.GetContext(ctx, &value, c.db.Rebind(`SELECT value FROM kv_store WHERE key = ?`), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get value for key %s: %w", key, err)
	}
	return value, nil
}

func (c *Client) SetKV(ctx context.Context, key string, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := c.db.Rebind(`
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`)
	if _, err := c.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set value for key %s: %w", key, err)
	}
	return nil
}

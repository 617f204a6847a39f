package sqlstore

import (
	"context"
	"fmt"

	"github.com/rottengram/rottenshield/internal/db"
)

func (c *Client) AddWarning(ctx context.Context, w *db.Warning) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := tx.Rebind(`INSERT INTO warnings (chat_id, user_id, issued_by, issued_at) VALUES (?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insert, w.ChatID, w.UserID, w.IssuedBy, w.IssuedAt.UTC()); err != nil {
		return 0, fmt.Errorf("failed to insert warning: %w", err)
	}

	var count int
	if err := tx.GetContext(ctx, &count, tx.Rebind(`SELECT COUNT(*) FROM warnings WHERE chat_id = ? AND user_id = ?`), w.ChatID, w.UserID); err != nil {
		return 0, fmt.Errorf("failed to count warnings: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit warning: %w", err)
	}
	return count, nil
}

func (c *Client) CountWarnings(ctx context.Context, chatID, userID int64) (int, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	query := c.db.Rebind(`SELECT COUNT(*) FROM warnings WHERE chat_id = ? AND user_id = ?`)
	if err := c.db.GetContext(ctx, &count, query, chatID, userID); err != nil {
		return 0, fmt.Errorf("failed to count warnings: %w", err)
	}
	return count, nil
}

func (c *Client) RemoveOldestWarnings(ctx context.Context, chatID, userID int64, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := c.db.Rebind(`
		DELETE FROM warnings WHERE id IN (
			SELECT id FROM warnings
			WHERE chat_id = ? AND user_id = ?
			ORDER BY issued_at, id
			LIMIT ?
		)
	`)
	res, err := c.db.ExecContext(ctx, query, chatID, userID, n)
	if err != nil {
		return 0, fmt.Errorf("failed to remove warnings: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(removed), nil
}

func (c *Client) ClearWarnings(ctx context.Context, chatID, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := c.db.Rebind(`DELETE FROM warnings WHERE chat_id = ? AND user_id = ?`)
	if _, err := c.db.ExecContext(ctx, query, chatID, userID); err != nil {
		return fmt.Errorf("failed to clear warnings: %w", err)
	}
	return nil
}

var _ db.Client = (*Client)(nil)

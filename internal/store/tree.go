package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// LoadTree returns the stored JSON value for the named tree.
// found is false when nothing has been saved under name yet.
func (s *Store) LoadTree(ctx context.Context, name string) (value any, found bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx, "SELECT data FROM trees WHERE name = ?", name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load tree %q: %w", name, err)
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false, fmt.Errorf("load tree %q: %w", name, err)
	}
	return value, true, nil
}

// SaveTree replaces the stored value of the named tree. A nil value deletes
// the tree.
func (s *Store) SaveTree(ctx context.Context, name string, value any) error {
	if value == nil {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM trees WHERE name = ?", name); err != nil {
			return fmt.Errorf("save tree %q: %w", name, err)
		}
		return nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("save tree %q: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trees (name, data) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data
	`, name, string(b))
	if err != nil {
		return fmt.Errorf("save tree %q: %w", name, err)
	}
	return nil
}

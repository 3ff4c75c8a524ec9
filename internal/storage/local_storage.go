package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Item is a single durable key/value record. Removed keys keep a tombstone so
// the revision keeps growing across set/remove cycles.
type Item struct {
	Key       string
	Value     string
	Present   bool
	Revision  int64
	UpdatedAt time.Time
}

// LocalStorage is a string key/value store shared by every client process
// that opens the same database file.
type LocalStorage struct {
	db  *sql.DB
	now func() time.Time
}

func NewLocalStorage(db *sql.DB) *LocalStorage {
	return &LocalStorage{db: db, now: time.Now}
}

// Get returns the item for key. A missing key is not an error.
func (s *LocalStorage) Get(ctx context.Context, key string) (Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT value, revision, updated_at
		FROM local_storage
		WHERE key = ?
	`, key)

	item, err := scanItem(key, row)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{Key: key}, nil
	}
	if err != nil {
		return Item{}, fmt.Errorf("get %q: %w", key, err)
	}

	return item, nil
}

func (s *LocalStorage) Set(ctx context.Context, key, value string) (Item, error) {
	return s.write(ctx, key, sql.NullString{String: value, Valid: true})
}

func (s *LocalStorage) Remove(ctx context.Context, key string) (Item, error) {
	return s.write(ctx, key, sql.NullString{})
}

func (s *LocalStorage) write(ctx context.Context, key string, value sql.NullString) (Item, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO local_storage(key, value, revision, updated_at)
		VALUES(?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = local_storage.revision + 1,
			updated_at = excluded.updated_at
		RETURNING value, revision, updated_at
	`, key, value, s.now().UnixMilli())

	item, err := scanItem(key, row)
	if err != nil {
		if value.Valid {
			return Item{}, fmt.Errorf("set %q: %w", key, err)
		}

		return Item{}, fmt.Errorf("remove %q: %w", key, err)
	}

	return item, nil
}

// List returns every item including tombstones.
func (s *LocalStorage) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, revision, updated_at
		FROM local_storage
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("list local storage: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Item
	for rows.Next() {
		var (
			key       string
			value     sql.NullString
			revision  int64
			updatedMs int64
		)
		if err := rows.Scan(&key, &value, &revision, &updatedMs); err != nil {
			return nil, fmt.Errorf("scan local storage item: %w", err)
		}
		out = append(out, newItem(key, value, revision, updatedMs))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate local storage: %w", err)
	}

	return out, nil
}

func scanItem(key string, row *sql.Row) (Item, error) {
	var (
		value     sql.NullString
		revision  int64
		updatedMs int64
	)
	if err := row.Scan(&value, &revision, &updatedMs); err != nil {
		return Item{}, err
	}

	return newItem(key, value, revision, updatedMs), nil
}

func newItem(key string, value sql.NullString, revision, updatedMs int64) Item {
	item := Item{
		Key:      key,
		Value:    value.String,
		Present:  value.Valid,
		Revision: revision,
	}
	if updatedMs > 0 {
		item.UpdatedAt = time.UnixMilli(updatedMs)
	}

	return item
}

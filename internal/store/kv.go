package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Get returns the value stored under name. The boolean is false when the key
// is absent.
func (s *Store) Get(ctx context.Context, name string) (string, bool, error) {
	query, args := builder(dialect.SQLite).
		Select("value").
		From(entsql.Table(tableKV)).
		Where(entsql.EQ("name", name)).
		Query()

	var value string
	if err := s.db.GetContext(ctx, &value, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", name, err)
	}
	return value, true, nil
}

// Put stores value under name, replacing any previous value.
func (s *Store) Put(ctx context.Context, name, value string) error {
	query, args := builder(dialect.SQLite).
		Insert(tableKV).
		Columns("name", "value", "updated_at").
		Values(name, value, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("name"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

// PutMany stores several keys in one transaction.
func (s *Store) PutMany(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for name, value := range values {
		query, args := builder(dialect.SQLite).
			Insert(tableKV).
			Columns("name", "value", "updated_at").
			Values(name, value, now).
			OnConflict(entsql.ConflictColumns("name"), entsql.ResolveWithNewValues()).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("put %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Remove deletes the given keys. Missing keys are ignored.
func (s *Store) Remove(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	vals := make([]any, len(names))
	for i, n := range names {
		vals[i] = n
	}
	query, args := builder(dialect.SQLite).
		Delete(tableKV).
		Where(entsql.In("name", vals...)).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove keys: %w", err)
	}
	return nil
}

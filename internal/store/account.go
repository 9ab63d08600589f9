package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// ErrDuplicateEmail is returned by AccountRepo.Create when the email is
// already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Account is a registered learner.
type Account struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// AccountRepo manages learner accounts.
type AccountRepo interface {
	// Create inserts a new account.
	Create(ctx context.Context, a *Account) error

	// ByEmail returns the account with the given email, or nil.
	ByEmail(ctx context.Context, email string) (*Account, error)

	// ByID returns the account with the given id, or nil.
	ByID(ctx context.Context, id string) (*Account, error)
}

type accountRepo struct {
	db      *sqlx.DB
	dialect string
}

func (r *accountRepo) Create(ctx context.Context, a *Account) error {
	existing, err := r.ByEmail(ctx, a.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateEmail
	}

	query, args := builder(r.dialect).
		Insert(tableAccounts).
		Columns("id", "email", "password_hash", "created_at").
		Values(a.ID, strings.ToLower(a.Email), a.PasswordHash, a.CreatedAt.UTC()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		// Lost a race with a concurrent sign-up for the same email.
		if existing, _ := r.ByEmail(ctx, a.Email); existing != nil {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *accountRepo) ByEmail(ctx context.Context, email string) (*Account, error) {
	return r.one(ctx, entsql.EQ("email", strings.ToLower(email)))
}

func (r *accountRepo) ByID(ctx context.Context, id string) (*Account, error) {
	return r.one(ctx, entsql.EQ("id", id))
}

func (r *accountRepo) one(ctx context.Context, p *entsql.Predicate) (*Account, error) {
	query, args := builder(r.dialect).
		Select("id", "email", "password_hash", "created_at").
		From(entsql.Table(tableAccounts)).
		Where(p).
		Limit(1).
		Query()

	var a Account
	if err := r.db.GetContext(ctx, &a, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &a, nil
}

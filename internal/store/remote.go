package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	// Remote drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Supported remote drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// placeholderMarkers identify template values copied from sample config.
var placeholderMarkers = []string{"placeholder", "your-", "dummy", "changeme"}

// IsPlaceholder reports whether v is empty or looks like an unfilled
// template value.
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	for _, m := range placeholderMarkers {
		if strings.Contains(v, m) {
			return true
		}
	}
	return false
}

// Remote is the shared progress database, keyed by user id. It also holds
// the account table used by the identity provider.
type Remote struct {
	db      *sqlx.DB
	dialect string
	logger  *slog.Logger
}

// OpenRemote connects to the remote database and migrates its schema.
// It returns ErrNotConfigured when dsn is missing or a placeholder.
func OpenRemote(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Remote, error) {
	if IsPlaceholder(dsn) {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		db  *sql.DB
		d   string
		err error
	)
	switch driver {
	case DriverPostgres, "":
		driver, d = DriverPostgres, dialect.Postgres
		db, err = sql.Open(driver, dsn)
	case DriverMySQL:
		d = dialect.MySQL
		db, err = sql.Open(driver, dsn)
	case DriverSQLite:
		d = dialect.SQLite
		db, err = openSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported remote driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open remote: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping remote: %w", err)
	}

	if err := migrate(ctx, entsql.OpenDB(d, db), remoteTables...); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate remote: %w", err)
	}

	return &Remote{db: sqlx.NewDb(db, driver), dialect: d, logger: logger}, nil
}

// Close closes the connection pool.
func (r *Remote) Close() error {
	return r.db.Close()
}

// Accounts returns the account repository.
func (r *Remote) Accounts() AccountRepo {
	return &accountRepo{db: r.db, dialect: r.dialect}
}

// progressRow maps the user_progress table.
type progressRow struct {
	UserID             string `db:"user_id"`
	Points             int    `db:"points"`
	CurrentChapter     int    `db:"current_chapter"`
	CompletedChapters  string `db:"completed_chapters"`
	CollectedCreatures string `db:"collected_creatures"`
	Eggs               int    `db:"eggs"`
	CompletedProjects  string `db:"completed_projects"`
	ChapterProgress    string `db:"chapter_progress"`
	SubmittedCode      string `db:"submitted_code"`
}

var progressSelect = []string{
	"user_id", "points", "current_chapter", "completed_chapters",
	"collected_creatures", "eggs", "completed_projects", "chapter_progress",
	"submitted_code",
}

// Name implements Backend.
func (r *Remote) Name() string { return "remote" }

// Load implements Backend.
func (r *Remote) Load(ctx context.Context, userID string) (*ProgressRecord, error) {
	query, args := builder(r.dialect).
		Select(progressSelect...).
		From(entsql.Table(tableProgress)).
		Where(entsql.EQ("user_id", userID)).
		Limit(1).
		Query()

	var row progressRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load progress for %s: %w", userID, err)
	}
	return row.record()
}

// Save implements Backend as an upsert on user_id.
func (r *Remote) Save(ctx context.Context, userID string, rec *ProgressRecord) error {
	row, err := newProgressRow(userID, rec)
	if err != nil {
		return err
	}
	query, args := builder(r.dialect).
		Insert(tableProgress).
		Columns(append(progressSelect, "updated_at")...).
		Values(row.UserID, row.Points, row.CurrentChapter, row.CompletedChapters,
			row.CollectedCreatures, row.Eggs, row.CompletedProjects, row.ChapterProgress,
			row.SubmittedCode, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save progress for %s: %w", userID, err)
	}
	return nil
}

// Delete implements Backend.
func (r *Remote) Delete(ctx context.Context, userID string) error {
	query, args := builder(r.dialect).
		Delete(tableProgress).
		Where(entsql.EQ("user_id", userID)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete progress for %s: %w", userID, err)
	}
	return nil
}

func newProgressRow(userID string, rec *ProgressRecord) (*progressRow, error) {
	p := rec.Progress
	row := &progressRow{
		UserID:         userID,
		Points:         p.Points,
		CurrentChapter: p.CurrentChapter,
		Eggs:           p.Eggs,
	}
	fields := []struct {
		dst *string
		v   any
	}{
		{&row.CompletedChapters, nonNilInts(p.CompletedChapters)},
		{&row.CollectedCreatures, nonNilInts(p.CollectedCreatures)},
		{&row.CompletedProjects, nonNilInts(p.CompletedProjects)},
		{&row.ChapterProgress, nonNilMap(rec.Chapters)},
		{&row.SubmittedCode, nonNilMap(p.SubmittedCode)},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.v)
		if err != nil {
			return nil, fmt.Errorf("encode progress row: %w", err)
		}
		*f.dst = string(b)
	}
	return row, nil
}

func (row *progressRow) record() (*ProgressRecord, error) {
	rec := &ProgressRecord{
		Progress: ProgressData{
			Points:         row.Points,
			CurrentChapter: row.CurrentChapter,
			Eggs:           row.Eggs,
		},
		Chapters: map[int]ChapterRecord{},
	}
	fields := []struct {
		name string
		src  string
		dst  any
	}{
		{"completed_chapters", row.CompletedChapters, &rec.Progress.CompletedChapters},
		{"collected_creatures", row.CollectedCreatures, &rec.Progress.CollectedCreatures},
		{"completed_projects", row.CompletedProjects, &rec.Progress.CompletedProjects},
		{"chapter_progress", row.ChapterProgress, &rec.Chapters},
		{"submitted_code", row.SubmittedCode, &rec.Progress.SubmittedCode},
	}
	for _, f := range fields {
		if f.src == "" || f.src == "null" {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	if len(rec.Progress.SubmittedCode) == 0 {
		rec.Progress.SubmittedCode = nil
	}
	return rec, nil
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func nonNilMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}

// Package cache provides the SQLite-backed summary cache. Successful
// summaries are stored per issue id so a re-run can skip already
// summarized issues.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"ideagen/pkg/models"
)

// Store is the GORM-backed summary cache.
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Config holds cache store configuration.
type Config struct {
	Path     string // SQLite database file
	MaxConns int    // open connection cap (default 4)
}

// NewStore opens (and if needed creates) the cache database, runs
// migrations, and enables WAL mode for concurrent readers.
func NewStore(cfg Config) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		Conn:       sqlDB,
	}, &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &Store{db: db, sqlDB: sqlDB}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// GetSummary returns the cached summary for an issue id, or nil when the
// issue has no cache entry.
func (s *Store) GetSummary(ctx context.Context, issueID int64) (*models.SummarizedIssue, error) {
	var row cachedSummary
	err := s.db.WithContext(ctx).First(&row, "issue_id = ?", issueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load summary %d: %w", issueID, err)
	}

	summary := row.toModel()
	return &summary, nil
}

// PutSummary inserts or replaces the cache entry for a summary.
func (s *Store) PutSummary(ctx context.Context, summary *models.SummarizedIssue) error {
	row := newCachedSummary(summary)
	err := s.db.WithContext(ctx).
		Where("issue_id = ?", summary.IssueID).
		Assign(row).
		FirstOrCreate(&cachedSummary{}).Error
	if err != nil {
		return fmt.Errorf("store summary %d: %w", summary.IssueID, err)
	}
	return nil
}

// DeleteSummary removes the cache entry for an issue id, if present.
func (s *Store) DeleteSummary(ctx context.Context, issueID int64) error {
	err := s.db.WithContext(ctx).Delete(&cachedSummary{}, "issue_id = ?", issueID).Error
	if err != nil {
		return fmt.Errorf("delete summary %d: %w", issueID, err)
	}
	return nil
}

// Count returns how many summaries are cached.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&cachedSummary{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count summaries: %w", err)
	}
	return n, nil
}

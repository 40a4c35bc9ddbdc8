package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists templates in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store. The DSN is a file path; its
// directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	if dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			slog.Error("Failed to create database directory", "error", err, "dir", dir)
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if dsn == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// SaveTemplate inserts tmpl.
func (s *SQLiteStore) SaveTemplate(ctx context.Context, tmpl models.WorkflowTemplate) error {
	if err := validateTemplate(tmpl); err != nil {
		return err
	}
	raw, err := encodeSteps(tmpl.Steps)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflow_templates (id, name, steps, created_at) VALUES (?, ?, ?, ?)`,
		tmpl.ID, tmpl.Name, raw, tmpl.CreatedAt.UTC())
	if err != nil {
		slog.Error("SQLiteStore SaveTemplate failed", "error", err, "templateID", tmpl.ID)
		return fmt.Errorf("failed to insert template %s: %w", tmpl.ID, err)
	}
	slog.Debug("SQLiteStore SaveTemplate succeeded", "templateID", tmpl.ID, "name", tmpl.Name)
	return nil
}

// GetTemplate loads a template by id.
func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (models.WorkflowTemplate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, steps, created_at FROM workflow_templates WHERE id = ?`, id)
	tmpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkflowTemplate{}, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		slog.Error("SQLiteStore GetTemplate failed", "error", err, "templateID", id)
		return models.WorkflowTemplate{}, fmt.Errorf("failed to load template %s: %w", id, err)
	}
	return tmpl, nil
}

// ListTemplates returns all templates, oldest first.
func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]models.WorkflowTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, steps, created_at FROM workflow_templates ORDER BY created_at, id`)
	if err != nil {
		slog.Error("SQLiteStore ListTemplates query failed", "error", err)
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var out []models.WorkflowTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			slog.Error("SQLiteStore ListTemplates scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		out = append(out, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate template rows: %w", err)
	}
	slog.Debug("SQLiteStore ListTemplates succeeded", "count", len(out))
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

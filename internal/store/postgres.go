package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists templates in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// SaveTemplate inserts tmpl.
func (s *PostgresStore) SaveTemplate(ctx context.Context, tmpl models.WorkflowTemplate) error {
	if err := validateTemplate(tmpl); err != nil {
		return err
	}
	raw, err := encodeSteps(tmpl.Steps)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflow_templates (id, name, steps, created_at) VALUES ($1, $2, $3::jsonb, $4)`,
		tmpl.ID, tmpl.Name, raw, tmpl.CreatedAt.UTC())
	if err != nil {
		slog.Error("PostgresStore SaveTemplate failed", "error", err, "templateID", tmpl.ID)
		return fmt.Errorf("failed to insert template %s: %w", tmpl.ID, err)
	}
	slog.Debug("PostgresStore SaveTemplate succeeded", "templateID", tmpl.ID, "name", tmpl.Name)
	return nil
}

// GetTemplate loads a template by id.
func (s *PostgresStore) GetTemplate(ctx context.Context, id string) (models.WorkflowTemplate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, steps::text, created_at FROM workflow_templates WHERE id = $1`, id)
	tmpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkflowTemplate{}, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		slog.Error("PostgresStore GetTemplate failed", "error", err, "templateID", id)
		return models.WorkflowTemplate{}, fmt.Errorf("failed to load template %s: %w", id, err)
	}
	return tmpl, nil
}

// ListTemplates returns all templates, oldest first.
func (s *PostgresStore) ListTemplates(ctx context.Context) ([]models.WorkflowTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, steps::text, created_at FROM workflow_templates ORDER BY created_at, id`)
	if err != nil {
		slog.Error("PostgresStore ListTemplates query failed", "error", err)
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var out []models.WorkflowTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			slog.Error("PostgresStore ListTemplates scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		out = append(out, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate template rows: %w", err)
	}
	slog.Debug("PostgresStore ListTemplates succeeded", "count", len(out))
	return out, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

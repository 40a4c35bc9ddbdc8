// Package store provides storage backends for saved workflow templates.
//
// It includes an in-memory store used when no database is configured, and
// SQLite and PostgreSQL stores selected from the DSN.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

// TemplateStore persists named workflow templates.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, tmpl models.WorkflowTemplate) error
	GetTemplate(ctx context.Context, id string) (models.WorkflowTemplate, error)
	ListTemplates(ctx context.Context) ([]models.WorkflowTemplate, error)
	Close() error
}

// Opts holds configuration for the database-backed stores.
type Opts struct {
	DSN string
}

// Option configures a store.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType returns "postgres" for PostgreSQL URLs or key/value
// connection strings and "sqlite3" for everything else.
func DetectDSNType(dsn string) string {
	d := strings.TrimSpace(dsn)
	if strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(d, "host=") || strings.Contains(d, "dbname=") || strings.Contains(d, "user=") {
		return "postgres"
	}
	return "sqlite3"
}

// Open returns the store matching dsn, or an in-memory store when dsn is empty.
func Open(dsn string) (TemplateStore, error) {
	if strings.TrimSpace(dsn) == "" {
		slog.Debug("store.Open: no DSN provided, using in-memory store")
		return NewInMemoryStore(), nil
	}
	if DetectDSNType(dsn) == "postgres" {
		slog.Debug("store.Open: detected PostgreSQL DSN", "dsn_type", "postgresql")
		return NewPostgresStore(WithPostgresDSN(dsn))
	}
	slog.Debug("store.Open: detected SQLite DSN", "dsn_type", "sqlite", "db_path", dsn)
	return NewSQLiteStore(WithSQLiteDSN(dsn))
}

// InMemoryStore keeps templates in process memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	templates map[string]models.WorkflowTemplate
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{templates: make(map[string]models.WorkflowTemplate)}
}

// SaveTemplate stores tmpl. Ids must be unique.
func (s *InMemoryStore) SaveTemplate(_ context.Context, tmpl models.WorkflowTemplate) error {
	if err := validateTemplate(tmpl); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[tmpl.ID]; exists {
		return fmt.Errorf("template %s already exists", tmpl.ID)
	}
	s.templates[tmpl.ID] = cloneTemplate(tmpl)
	slog.Debug("InMemoryStore SaveTemplate succeeded", "templateID", tmpl.ID, "name", tmpl.Name)
	return nil
}

// GetTemplate returns the template with the given id.
func (s *InMemoryStore) GetTemplate(_ context.Context, id string) (models.WorkflowTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tmpl, ok := s.templates[id]
	if !ok {
		return models.WorkflowTemplate{}, fmt.Errorf("template %s: %w", id, models.ErrNotFound)
	}
	return cloneTemplate(tmpl), nil
}

// ListTemplates returns all templates, oldest first.
func (s *InMemoryStore) ListTemplates(_ context.Context) ([]models.WorkflowTemplate, error) {
	s.mu.RLock()
	out := make([]models.WorkflowTemplate, 0, len(s.templates))
	for _, tmpl := range s.templates {
		out = append(out, cloneTemplate(tmpl))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }

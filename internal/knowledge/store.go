// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package knowledge stores the snippets Eliza grounds responses in and
// retrieves them by keyword. A sqlite file backs local deployments; a
// Postgres DSN can be configured for hosted ones. Both run through
// database/sql so the query layer is shared.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xmrtdao/eliza-gateway/internal/config"
)

// Snippet is one stored knowledge excerpt.
type Snippet struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists and retrieves snippets.
type Store interface {
	// Put inserts or replaces a snippet. An empty ID is assigned one.
	Put(ctx context.Context, s Snippet) (Snippet, error)

	// Search returns up to limit snippets whose topic or content contains
	// any of the query's keywords, most recently updated first.
	Search(ctx context.Context, query string, limit int) ([]Snippet, error)

	Close() error
}

// sqlStore implements Store over database/sql for both backends.
type sqlStore struct {
	db       *sql.DB
	postgres bool
}

// Open connects the configured backend and ensures the schema exists.
func Open(cfg config.KnowledgeConfig) (Store, error) {
	var (
		db  *sql.DB
		err error
		pg  bool
	)
	switch cfg.Driver {
	case "sqlite":
		db, err = sql.Open("sqlite3", cfg.Path)
	case "postgres":
		db, err = sql.Open("pgx", cfg.DSN)
		pg = true
	default:
		return nil, fmt.Errorf("knowledge: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("knowledge: failed to open store: %w", err)
	}

	store := &sqlStore{db: db, postgres: pg}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an existing database handle. Used by tests.
func NewWithDB(db *sql.DB, postgres bool) Store {
	return &sqlStore{db: db, postgres: postgres}
}

func (s *sqlStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS snippets (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		content TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("knowledge: failed to migrate schema: %w", err)
	}
	return nil
}

// placeholder renders the n-th query placeholder for the active backend.
func (s *sqlStore) placeholder(n int) string {
	if s.postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *sqlStore) Put(ctx context.Context, snip Snippet) (Snippet, error) {
	if snip.ID == "" {
		snip.ID = uuid.New().String()
	}
	if snip.UpdatedAt.IsZero() {
		snip.UpdatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(
		`INSERT INTO snippets (id, topic, content, updated_at) VALUES (%s, %s, %s, %s)
		ON CONFLICT (id) DO UPDATE SET topic = excluded.topic, content = excluded.content, updated_at = excluded.updated_at`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4),
	)
	if _, err := s.db.ExecContext(ctx, query, snip.ID, snip.Topic, snip.Content, snip.UpdatedAt); err != nil {
		return Snippet{}, fmt.Errorf("knowledge: failed to put snippet: %w", err)
	}
	return snip, nil
}

func (s *sqlStore) Search(ctx context.Context, query string, limit int) ([]Snippet, error) {
	if limit <= 0 {
		limit = 5
	}

	keywords := keywordsOf(query)
	if len(keywords) == 0 {
		return nil, nil
	}

	var (
		conds []string
		args  []any
	)
	n := 1
	for _, kw := range keywords {
		conds = append(conds, fmt.Sprintf("(lower(topic) LIKE %s OR lower(content) LIKE %s)",
			s.placeholder(n), s.placeholder(n+1)))
		pattern := "%" + kw + "%"
		args = append(args, pattern, pattern)
		n += 2
	}

	sqlQuery := fmt.Sprintf(
		"SELECT id, topic, content, updated_at FROM snippets WHERE %s ORDER BY updated_at DESC LIMIT %s",
		strings.Join(conds, " OR "), s.placeholder(n),
	)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("knowledge: search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Snippet
	for rows.Next() {
		var snip Snippet
		if err := rows.Scan(&snip.ID, &snip.Topic, &snip.Content, &snip.UpdatedAt); err != nil {
			return nil, fmt.Errorf("knowledge: failed to scan snippet: %w", err)
		}
		results = append(results, snip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knowledge: search iteration failed: %w", err)
	}
	return results, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// stopWords are skipped during keyword extraction so searches match on
// meaningful terms only.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "what": {},
	"how": {}, "why": {}, "do": {}, "does": {}, "my": {}, "me": {}, "i": {},
	"you": {}, "of": {}, "to": {}, "in": {}, "on": {}, "for": {}, "and": {},
	"or": {}, "about": {}, "tell": {},
}

func keywordsOf(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?\"'()[]{}")
		if len(f) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		keywords = append(keywords, f)
	}
	return keywords
}

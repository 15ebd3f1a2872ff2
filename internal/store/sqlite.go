// Package store provides the SQLite document registry and the signed
// download links used by citation linkification.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/shirabe/internal/linkify"
	"github.com/hyperjump/shirabe/internal/models"
)

// SQLiteStore is the document registry backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		folder TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL,
		title TEXT,
		pages INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_folder_name ON documents(folder, name);
	CREATE INDEX IF NOT EXISTS idx_documents_folder ON documents(folder);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document, replacing any previous registration of
// the same (folder, name). Re-ingesting a changed file is an upsert, not an
// error.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, folder, path, title, pages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(folder, name) DO UPDATE SET
			id = excluded.id, path = excluded.path, title = excluded.title,
			pages = excluded.pages, updated_at = excluded.updated_at`,
		doc.ID, doc.Name, doc.Folder, doc.Path, doc.Title, doc.Pages, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

// GetDocument returns a document by ID.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, folder, path, title, pages, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Name, &doc.Folder, &doc.Path, &doc.Title, &doc.Pages,
		&doc.CreatedAt, &doc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocumentByName returns a document by folder and bare file name.
func (s *SQLiteStore) GetDocumentByName(ctx context.Context, folder, name string) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, folder, path, title, pages, created_at, updated_at
		 FROM documents WHERE folder = ? AND name = ?`, folder, name,
	).Scan(&doc.ID, &doc.Name, &doc.Folder, &doc.Path, &doc.Title, &doc.Pages,
		&doc.CreatedAt, &doc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s/%s", folder, name)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a document by ID.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}

// DeleteDocumentByName removes a document by folder and name.
func (s *SQLiteStore) DeleteDocumentByName(ctx context.Context, folder, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE folder = ? AND name = ?`, folder, name)
	return err
}

// ListByFolder returns the documents registered under folder, newest first.
// An empty folder lists everything.
func (s *SQLiteStore) ListByFolder(ctx context.Context, folder string) ([]*models.Document, error) {
	q := `SELECT id, name, folder, path, title, pages, created_at, updated_at
	      FROM documents ORDER BY created_at DESC`
	args := []any{}
	if folder != "" {
		q = `SELECT id, name, folder, path, title, pages, created_at, updated_at
		     FROM documents WHERE folder = ? ORDER BY created_at DESC`
		args = append(args, folder)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Folder, &doc.Path, &doc.Title,
			&doc.Pages, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// ListDocuments implements the engine's linkify catalog: every registered
// document in folder, as (name, logical path, title) triples.
func (s *SQLiteStore) ListDocuments(ctx context.Context, folder string) ([]linkify.DocumentInfo, error) {
	docs, err := s.ListByFolder(ctx, folder)
	if err != nil {
		return nil, err
	}
	out := make([]linkify.DocumentInfo, len(docs))
	for i, doc := range docs {
		out[i] = linkify.DocumentInfo{Name: doc.Name, Path: doc.Path, Title: doc.Title}
	}
	return out, nil
}

// CountDocuments returns the total number of registered documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

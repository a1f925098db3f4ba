// Package store keeps the translation memory and the audio artifact registry
// in an SQLite database private to the running process. Nothing is written
// to disk: the database disappears when the process exits.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/bhasha/internal/audio"
)

var ErrNotFound = errors.New("memory entry not found")

type Store struct {
	db *sql.DB
}

// New opens a fresh in-memory database. Each call gets its own database.
func New() (*Store, error) {
	dsn := fmt.Sprintf("file:bhasha-%s?mode=memory&cache=shared", uuid.New().String())
	return open(dsn)
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives as long as one connection holds it open.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		detected_lang TEXT,
		service_used TEXT,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	-- audio_artifacts mirrors the files currently held by the audio manager
	CREATE TABLE IF NOT EXISTS audio_artifacts (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		url TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_artifacts_created ON audio_artifacts(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID             string    `json:"id"`
	SourceText     string    `json:"source_text"`
	SourceLang     string    `json:"source_lang"`
	TargetLang     string    `json:"target_lang"`
	TranslatedText string    `json:"translated_text"`
	DetectedLang   string    `json:"detected_lang,omitempty"`
	ServiceUsed    string    `json:"service_used,omitempty"`
	UsageCount     int       `json:"usage_count"`
	LastUsed       time.Time `json:"last_used"`
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries int   `json:"total_entries"`
	TotalUsage   int   `json:"total_usage"`
	Artifacts    int   `json:"artifacts"`
	ArtifactSize int64 `json:"artifact_size"`
}

// GetCachedTranslation looks up a previous translation and bumps its usage.
func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (*MemoryEntry, bool, error) {
	e := MemoryEntry{}
	var detected, service sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, translated_text, detected_lang, service_used, usage_count, last_used
		 FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		normalizeText(sourceText), sourceLang, targetLang).Scan(
		&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.TranslatedText, &detected, &service, &e.UsageCount, &e.LastUsed)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	e.DetectedLang = detected.String
	e.ServiceUsed = service.String

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE id = ?`,
		time.Now(), e.ID)
	e.UsageCount++

	return &e, true, err
}

func (s *Store) SaveToMemory(ctx context.Context, e MemoryEntry) error {
	id := fmt.Sprintf("mem_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, translated_text, detected_lang, service_used, usage_count, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, normalizeText(e.SourceText), e.SourceLang, e.TargetLang, e.TranslatedText, e.DetectedLang, e.ServiceUsed, time.Now(), time.Now())
	return err
}

// DeleteMemory removes a translation memory entry by ID. It returns
// ErrNotFound when no entry has that ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, translated_text, COALESCE(detected_lang, ''), COALESCE(service_used, ''), usage_count, last_used
		 FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.TranslatedText, &e.DetectedLang, &e.ServiceUsed, &e.UsageCount, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory and artifacts.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usage_count), 0) FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM audio_artifacts`).Scan(
		&stats.Artifacts,
		&stats.ArtifactSize,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ArtifactCreated records a new audio artifact.
func (s *Store) ArtifactCreated(ctx context.Context, a *audio.Artifact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audio_artifacts (id, path, size, url, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Path, a.Size, a.URL, a.CreatedAt)
	return err
}

// ArtifactReleased forgets a released audio artifact.
func (s *Store) ArtifactReleased(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM audio_artifacts WHERE id = ?`, id)
	return err
}

// ListArtifacts returns registered artifacts, oldest first.
func (s *Store) ListArtifacts(ctx context.Context) ([]audio.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, size, COALESCE(url, ''), created_at FROM audio_artifacts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []audio.Artifact
	for rows.Next() {
		var a audio.Artifact
		if err := rows.Scan(&a.ID, &a.Path, &a.Size, &a.URL, &a.CreatedAt); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

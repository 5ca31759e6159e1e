package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"bananalab/internal/logging"
	"bananalab/internal/metrics"
	"bananalab/internal/thumbnail"
)

var log = logging.Component("store")

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned by Get for a page with no stored thumbnail.
var ErrNotFound = errors.New("thumbnail not found")

// Store is a SQLite-backed page-id -> thumbnail table.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the database file at dbPath. The parent
// directory is created when missing.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	log.Info("Thumbnail store path: %s", dbPath)

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close store after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close store after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("initialize_schema", start, err) }()

	_, err = s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS thumbnails (
		page_id TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		fingerprint INTEGER NOT NULL,
		placeholder INTEGER NOT NULL DEFAULT 0,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_thumbnails_updated ON thumbnails(updated_at);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// SaveThumbnails upserts every thumbnail in one transaction. Nil entries
// are skipped. Pages are written in id order so repeated runs produce the
// same file layout.
func (s *Store) SaveThumbnails(ctx context.Context, thumbs map[string]*thumbnail.Encoded) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_thumbnails", start, err) }()

	ids := make([]string, 0, len(thumbs))
	for id, enc := range thumbs {
		if enc != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO thumbnails (page_id, format, width, height, fingerprint, placeholder, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			format = excluded.format,
			width = excluded.width,
			height = excluded.height,
			fingerprint = excluded.fingerprint,
			placeholder = excluded.placeholder,
			data = excluded.data,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, id := range ids {
		enc := thumbs[id]
		// SQLite integers are signed; the fingerprint round-trips bit for bit.
		if _, err = stmt.ExecContext(ctx, id, string(enc.Format), enc.Width, enc.Height,
			int64(enc.Fingerprint), enc.Placeholder, enc.Data, now); err != nil {
			return fmt.Errorf("failed to save thumbnail %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit thumbnails: %w", err)
	}
	log.Debug("saved %d thumbnails", len(ids))
	return nil
}

// Get returns the stored thumbnail for pageID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, pageID string) (enc *thumbnail.Encoded, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			recordQuery("get_thumbnail", start, nil)
			return
		}
		recordQuery("get_thumbnail", start, err)
	}()

	var (
		format      string
		fingerprint int64
	)
	enc = &thumbnail.Encoded{PageID: pageID}
	err = s.db.QueryRowContext(ctx, `
		SELECT format, width, height, fingerprint, placeholder, data
		FROM thumbnails WHERE page_id = ?
	`, pageID).Scan(&format, &enc.Width, &enc.Height, &fingerprint, &enc.Placeholder, &enc.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pageID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thumbnail %s: %w", pageID, err)
	}
	enc.Format = thumbnail.Format(format)
	enc.Fingerprint = uint64(fingerprint)
	return enc, nil
}

// Count returns the number of stored thumbnails.
func (s *Store) Count(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { recordQuery("count", start, err) }()

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM thumbnails").Scan(&n)
	return n, err
}

func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.StoreQueryDuration.WithLabelValues(operation).Observe(duration)
}

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the core.HistoryStore interface,
// the durable backend for the dashboard's analysis history and theme
// preference.
type SQLiteStore struct {
	db     *sql.DB
	limit  int
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed history store.
func NewSQLiteStore(dbPath string, limit int, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_history (
			row_id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id INTEGER NOT NULL,
			item_type TEXT NOT NULL,
			input TEXT NOT NULL,
			classification TEXT NOT NULL,
			score REAL NOT NULL,
			message TEXT NOT NULL,
			features TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preferences table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		limit:  limit,
		logger: logger,
	}, nil
}

// Record inserts an item and trims the table to the configured limit,
// discarding the oldest rows.
func (s *SQLiteStore) Record(ctx context.Context, item *core.HistoryItem) error {
	features, err := marshalFeatures(item.Result)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_history (item_id, item_type, input, classification, score, message, features, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, string(item.Type), item.Input, string(item.Result.Classification),
		item.Result.Score, item.Result.Message, features, item.Timestamp.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert history item: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM analysis_history
		WHERE row_id NOT IN (
			SELECT row_id FROM analysis_history ORDER BY row_id DESC LIMIT ?
		)
	`, s.limit)
	if err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}

	return nil
}

// List returns items passing the filter, most recent first.
func (s *SQLiteStore) List(ctx context.Context, filter core.HistoryFilter) ([]*core.HistoryItem, error) {
	query := `
		SELECT item_id, item_type, input, classification, score, message, features, created_at
		FROM analysis_history
	`
	var args []any

	switch filter {
	case core.FilterAll, "":
	case core.FilterURL, core.FilterEmail:
		query += ` WHERE item_type = ?`
		args = append(args, string(filter))
	default:
		query += ` WHERE LOWER(classification) = LOWER(?)`
		args = append(args, string(filter))
	}

	query += ` ORDER BY row_id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	items := []*core.HistoryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			s.logger.Error("Failed to scan history row", zap.Error(err))
			continue
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}

	return items, nil
}

// Clear discards all items.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Theme returns the stored theme preference, defaulting to dark.
func (s *SQLiteStore) Theme(ctx context.Context) (string, error) {
	var theme string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM preferences WHERE key = 'theme'
	`).Scan(&theme)
	if err == sql.ErrNoRows {
		return core.ThemeDark, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read theme: %w", err)
	}
	return theme, nil
}

// SetTheme stores the theme preference.
func (s *SQLiteStore) SetTheme(ctx context.Context, theme string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO preferences (key, value) VALUES ('theme', ?)
	`, theme)
	if err != nil {
		return fmt.Errorf("failed to store theme: %w", err)
	}
	return nil
}

// Stop closes the database connection.
func (s *SQLiteStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*core.HistoryItem, error) {
	var (
		item           core.HistoryItem
		result         core.AnalysisResult
		itemType       string
		classification string
		features       sql.NullString
		createdAt      string
	)

	if err := row.Scan(&item.ID, &itemType, &item.Input, &classification,
		&result.Score, &result.Message, &features, &createdAt); err != nil {
		return nil, err
	}

	item.Type = core.AnalysisType(itemType)
	result.Classification = core.Classification(classification)

	if features.Valid && features.String != "" {
		if err := json.Unmarshal([]byte(features.String), &result.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
	}

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	item.Timestamp = ts
	item.Result = &result

	return &item, nil
}

func marshalFeatures(result *core.AnalysisResult) (sql.NullString, error) {
	if result == nil || result.Features == nil {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(result.Features)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode features: %w", err)
	}

	return sql.NullString{String: string(data), Valid: true}, nil
}

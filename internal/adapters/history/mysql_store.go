package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the core.HistoryStore interface,
// for deployments where the dashboard state lives in a shared database.
type MySQLStore struct {
	db     *sql.DB
	limit  int
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL and prepares the history schema.
func NewMySQLStore(dsn string, limit int, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_history (
			row_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			item_id BIGINT NOT NULL,
			item_type VARCHAR(16) NOT NULL,
			input TEXT NOT NULL,
			classification VARCHAR(32) NOT NULL,
			score DOUBLE NOT NULL,
			message TEXT NOT NULL,
			features TEXT,
			created_at VARCHAR(35) NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			pref_key VARCHAR(64) PRIMARY KEY,
			pref_value VARCHAR(255) NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preferences table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		limit:  limit,
		logger: logger,
	}, nil
}

// Record inserts an item and trims the table to the configured limit.
func (s *MySQLStore) Record(ctx context.Context, item *core.HistoryItem) error {
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

	// MySQL forbids referencing the target table in a subquery of the same
	// DELETE, so the cutoff is computed first.
	var cutoff sql.NullInt64
	err = s.db.QueryRowContext(ctx, `
		SELECT MIN(row_id) FROM (
			SELECT row_id FROM analysis_history ORDER BY row_id DESC LIMIT ?
		) AS recent
	`, s.limit).Scan(&cutoff)
	if err != nil {
		return fmt.Errorf("failed to compute history cutoff: %w", err)
	}

	if cutoff.Valid {
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM analysis_history WHERE row_id < ?
		`, cutoff.Int64); err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}

	return nil
}

// List returns items passing the filter, most recent first.
func (s *MySQLStore) List(ctx context.Context, filter core.HistoryFilter) ([]*core.HistoryItem, error) {
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
func (s *MySQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Theme returns the stored theme preference, defaulting to dark.
func (s *MySQLStore) Theme(ctx context.Context) (string, error) {
	var theme string
	err := s.db.QueryRowContext(ctx, `
		SELECT pref_value FROM preferences WHERE pref_key = 'theme'
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
func (s *MySQLStore) SetTheme(ctx context.Context, theme string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (pref_key, pref_value) VALUES ('theme', ?)
		ON DUPLICATE KEY UPDATE pref_value = VALUES(pref_value)
	`, theme)
	if err != nil {
		return fmt.Errorf("failed to store theme: %w", err)
	}
	return nil
}

// Stop closes the database connection.
func (s *MySQLStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}

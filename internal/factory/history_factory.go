package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/phishguard/phishguard/internal/adapters/history"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// HistoryFactory creates history stores based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryStore creates a history store based on the configuration
func (f *HistoryFactory) CreateHistoryStore() (core.HistoryStore, error) {
	storeType := f.cfg.GetString("history.type")
	limit := f.cfg.GetInt("history.limit")

	switch storeType {
	case "memory":
		return history.NewMemoryStore(f.logger, limit), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("history.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return history.NewSQLiteStore(sqlitePath, limit, f.logger)
	case "mysql":
		mysqlDSN := f.cfg.GetString("history.mysql_dsn")
		return history.NewMySQLStore(mysqlDSN, limit, f.logger)
	default:
		return nil, fmt.Errorf("unsupported history store type: %s", storeType)
	}
}

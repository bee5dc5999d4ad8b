package db

import (
	"context"
	"database/sql"

	_ "github.com/glebarez/go-sqlite"
)

func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn, err := ResolveSQLiteDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	}
	if cfg.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	}
	if cfg.Pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	}
	if err := applySQLitePragmas(ctx, sqlDB, cfg.SQLite); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

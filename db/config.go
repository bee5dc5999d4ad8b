package db

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/quailyquaily/cmdloop/internal/pathutil"
)

type Config struct {
	DSN string

	Pool   PoolConfig
	SQLite SQLiteConfig
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SQLiteConfig struct {
	BusyTimeoutMs int
	WAL           bool
	ForeignKeys   bool
}

func DefaultConfig() Config {
	return Config{
		Pool: PoolConfig{
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		SQLite: SQLiteConfig{
			BusyTimeoutMs: 5000,
			WAL:           true,
		},
	}
}

// ResolveSQLiteDSN turns a configured dsn into something the sqlite driver
// accepts. Plain paths get ~ expanded and their parent directory created;
// an empty dsn resolves to the default state database.
func ResolveSQLiteDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = filepath.Join(pathutil.StateDir(), "cmdloop.sqlite")
	}
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn, nil
	}
	path := pathutil.ExpandHomePath(dsn)
	if err := pathutil.EnsureParentDir(path); err != nil {
		return "", fmt.Errorf("create sqlite dir: %w", err)
	}
	return path, nil
}

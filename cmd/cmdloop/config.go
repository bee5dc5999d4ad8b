package main

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/quailyquaily/cmdloop/command"
	"github.com/quailyquaily/cmdloop/db"
	"github.com/quailyquaily/cmdloop/guard"
	"github.com/quailyquaily/cmdloop/internal/pathutil"
)

func guardConfigFromViper() guard.Config {
	var patterns []guard.RegexPattern
	_ = viper.UnmarshalKey("guard.redaction.patterns", &patterns)

	return guard.Config{
		RequireApproval: viper.GetBool("guard.require_approval") && !viper.GetBool("guard.approve_all"),
		AutoApprove:     viper.GetStringSlice("guard.auto_approve"),
		DenyTokens:      viper.GetStringSlice("guard.deny_tokens"),
		Redaction: guard.RedactionConfig{
			Enabled:  viper.GetBool("guard.redaction.enabled"),
			Patterns: patterns,
		},
		Audit: guard.AuditConfig{
			JSONLPath:      strings.TrimSpace(viper.GetString("guard.audit.jsonl_path")),
			RotateMaxBytes: viper.GetInt64("guard.audit.rotate_max_bytes"),
		},
	}
}

func auditPathFromViper(cfg guard.Config) string {
	path := strings.TrimSpace(cfg.Audit.JSONLPath)
	if path == "" {
		path = filepath.Join(pathutil.StateDir(), "guard_audit.jsonl")
	}
	return pathutil.ExpandHomePath(path)
}

func dbConfigFromViper() db.Config {
	cfg := db.DefaultConfig()

	cfg.DSN = viper.GetString("db.dsn")

	cfg.Pool.MaxOpenConns = viper.GetInt("db.pool.max_open_conns")
	cfg.Pool.MaxIdleConns = viper.GetInt("db.pool.max_idle_conns")
	cfg.Pool.ConnMaxLifetime = viper.GetDuration("db.pool.conn_max_lifetime")
	if cfg.Pool.ConnMaxLifetime < 0 {
		cfg.Pool.ConnMaxLifetime = 0
	}

	cfg.SQLite.BusyTimeoutMs = viper.GetInt("db.sqlite.busy_timeout_ms")
	cfg.SQLite.WAL = viper.GetBool("db.sqlite.wal")
	cfg.SQLite.ForeignKeys = viper.GetBool("db.sqlite.foreign_keys")

	// Ensure reasonable defaults even if config has zeros.
	if cfg.Pool.MaxOpenConns <= 0 {
		cfg.Pool.MaxOpenConns = 1
	}
	if cfg.Pool.MaxIdleConns <= 0 {
		cfg.Pool.MaxIdleConns = 1
	}
	if cfg.SQLite.BusyTimeoutMs <= 0 {
		cfg.SQLite.BusyTimeoutMs = 5000
	}
	return cfg
}

// approvalStoreFromViper falls back to an in-memory store when the
// database cannot be opened, so approvals still work for this process.
func approvalStoreFromViper(log *slog.Logger) (guard.ApprovalStore, func() error) {
	switch strings.ToLower(strings.TrimSpace(viper.GetString("guard.approvals.store"))) {
	case "memory":
		return guard.NewMemoryApprovalStore(), func() error { return nil }
	default:
		st, err := guard.NewSQLiteApprovalStore(dbConfigFromViper())
		if err != nil {
			log.Warn("guard_approvals_store_error", "error", err.Error())
			return guard.NewMemoryApprovalStore(), func() error { return nil }
		}
		return st, st.Close
	}
}

func executorOptionsFromViper(log *slog.Logger, term *command.Terminator) []command.Option {
	opts := []command.Option{
		command.WithLogger(log),
		command.WithPollInterval(viper.GetDuration("exec.poll_interval")),
		command.WithMaxOutputBytes(viper.GetInt("exec.max_output_bytes")),
		command.WithTimeoutBounds(viper.GetDuration("exec.min_timeout"), viper.GetDuration("exec.max_timeout")),
		command.WithPTY(viper.GetBool("exec.pty")),
		command.WithTerminator(term),
	}
	if shell := nonEmpty(viper.GetStringSlice("exec.shell")); len(shell) > 0 {
		opts = append(opts, command.WithShell(shell...))
	}
	return opts
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

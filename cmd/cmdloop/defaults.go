package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/quailyquaily/cmdloop/agent"
	"github.com/quailyquaily/cmdloop/command"
)

func setDefaults() {
	viper.SetDefault("exec.shell", []string{})
	viper.SetDefault("exec.poll_interval", command.DefaultPollInterval)
	viper.SetDefault("exec.grace_period", command.DefaultGracePeriod)
	viper.SetDefault("exec.max_output_bytes", command.DefaultMaxOutputBytes)
	viper.SetDefault("exec.min_timeout", 2*time.Second)
	viper.SetDefault("exec.max_timeout", 60*time.Second)
	viper.SetDefault("exec.pty", false)

	viper.SetDefault("guard.require_approval", true)
	viper.SetDefault("guard.auto_approve", []string{})
	viper.SetDefault("guard.deny_tokens", []string{})
	viper.SetDefault("guard.approvals.store", "sqlite")
	viper.SetDefault("guard.audit.jsonl_path", "")
	viper.SetDefault("guard.audit.rotate_max_bytes", int64(100*1024*1024))
	viper.SetDefault("guard.redaction.enabled", true)

	viper.SetDefault("db.dsn", "")
	viper.SetDefault("db.pool.max_open_conns", 1)
	viper.SetDefault("db.pool.max_idle_conns", 1)
	viper.SetDefault("db.pool.conn_max_lifetime", time.Duration(0))
	viper.SetDefault("db.sqlite.busy_timeout_ms", 5000)
	viper.SetDefault("db.sqlite.wal", true)
	viper.SetDefault("db.sqlite.foreign_keys", false)

	viper.SetDefault("retry.max_attempts", agent.DefaultMaxAttempts)
	viper.SetDefault("debugger.mode", "human")
	viper.SetDefault("debugger.max_fix_commands", 5)
	viper.SetDefault("debugger.fix_timeout", 60*time.Second)
	viper.SetDefault("debugger.notes_dir", "")

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.endpoint", "")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.model", "gpt-4o-mini")

	viper.SetDefault("logging.level", "warn")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("trace.file", "")
}

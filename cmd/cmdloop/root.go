package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quailyquaily/cmdloop/internal/pathutil"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "cmdloop",
		Short: "Run shell commands behind human approval and retry them until they succeed",
		Long: `cmdloop runs shell commands on behalf of an agent.

Every command is shown to you before it runs unless it was approved before,
matches an auto-approve prefix, or is forced. Failing commands are reported
and handed to a debugger (you, or a model) before they are retried.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ~/.cmdloop/config.yaml)")
	pf.String("log-level", "", "Log level: debug|info|warn|error")
	pf.String("log-format", "", "Log format: text|json")
	pf.Bool("yes", false, "Approve every command that is not denied by policy")
	pf.String("debugger", "", "How failures are debugged: none|human|llm")
	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("debugger.mode", pf.Lookup("debugger"))
	_ = viper.BindPFlag("guard.approve_all", pf.Lookup("yes"))

	root.AddCommand(newRunCmd(), newExecCmd(), newApprovalsCmd())
	return root
}

func initConfig(cfgFile string) error {
	setDefaults()

	viper.SetEnvPrefix("CMDLOOP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path := strings.TrimSpace(cfgFile); path != "" {
		viper.SetConfigFile(pathutil.ExpandHomePath(path))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	path := filepath.Join(pathutil.StateDir(), "config.yaml")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/kamusis/pss-index/internal/config"
	"github.com/kamusis/pss-index/internal/logger"
	"github.com/spf13/cobra"
)

// Exit codes of the pssidx binary.
const (
	exitOK       = 0
	exitInvalid  = 1 // blocking errors found, or any operational failure
	exitNoBackup = 2 // recovery impossible; the index needs a full rebuild
)

var rootCmd = &cobra.Command{
	Use:           "pssidx",
	Short:         "pssidx: build, merge and repair the PSS skill index",
	SilenceUsage:  true, // don't print usage on operational errors
	SilenceErrors: true, // Execute prints errors itself
	Long: `pssidx merges partial skill descriptors produced by parallel analysis
workers into the shared skill index at ~/.claude/cache/skill-index.json,
derives the domain registry from it, validates both, and restores the index
from a backup when validation fails.`,
	PersistentPreRunE: loadRuntime,
}

var (
	flagConfig    string
	flagIndex     string
	flagLogLevel  string
	flagLogFormat string
)

// cfg is the resolved configuration of the running command.
var cfg *config.Config

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default $PSS_CONFIG or ~/.pss/config.yaml)")
	pf.StringVar(&flagIndex, "index", "", "skill index path (overrides config and PSS_INDEX)")
	pf.StringVar(&flagLogLevel, "log-level", "", "diagnostic log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "text", "diagnostic log format: text or json")
}

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// withExit tags err with an exit code.
func withExit(code int, err error) error {
	return &exitError{code: code, err: err}
}

func loadRuntime(_ *cobra.Command, _ []string) error {
	level := flagLogLevel
	if level == "" {
		v, err := config.GetConfigValue(config.EnvLogLevel)
		if err != nil {
			return err
		}
		level = v
	}
	if err := logger.Configure(level, flagLogFormat); err != nil {
		return fmt.Errorf("invalid log settings: %w", err)
	}

	c, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'pssidx config init' to write a fresh one.", err)
	}
	if flagIndex != "" {
		derived := c.LockPath == config.LockPathFor(c.IndexPath)
		p, err := config.ExpandPath(flagIndex)
		if err != nil {
			return err
		}
		c.IndexPath = p
		if derived {
			c.LockPath = config.LockPathFor(p)
		}
	}
	cfg = c
	logger.L.WithField("index", cfg.IndexPath).Debug("configuration loaded")
	return nil
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitInvalid
}

// Execute is called by main.go.
func Execute() {
	err := rootCmd.Execute()
	if err != nil && err.Error() != "" {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

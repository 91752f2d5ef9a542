package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kamusis/pss-index/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write or inspect the pssidx configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and .env template",
	Long: `Create ~/.pss/config.yaml (or $PSS_CONFIG) with the default paths, a
~/.pss/.env template for per-machine overrides, and the directories the index
and the staging queue live in.`,
	Args: cobra.NoArgs,
	// A broken config must not stop init from replacing it.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE:              runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Long: `Print the configuration after defaults, the config file, ~/.pss/.env,
environment variables and flags have been applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var flagConfigForce bool

func init() {
	configInitCmd.Flags().BoolVar(&flagConfigForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	// ── 1. Resolve the config path ────────────────────────────────────────────
	cfgPath := flagConfig
	if cfgPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		cfgPath = p
	}

	// ── 2. Write config.yaml if missing ───────────────────────────────────────
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) || flagConfigForce {
		def, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(def, cfgPath); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s (use --force to overwrite)", cfgPath))
	}

	// ── 3. Write the .env template ────────────────────────────────────────────
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	if p, err := config.DotEnvPath(); err == nil {
		printOK("", fmt.Sprintf(".env template ready: %s", p))
	}

	// ── 4. Create the index and queue directories ─────────────────────────────
	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	for _, dir := range []string{filepath.Dir(c.IndexPath), c.QueueDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", dir, err)
		}
		printOK("", fmt.Sprintf("Directory ready: %s", dir))
	}

	fmt.Println()
	printOK("", "pssidx config init complete. Run 'pssidx doctor' to verify your environment.")
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"beadchat/internal/config"
	"beadchat/internal/logging"
)

var (
	// Global flags
	configPath   string
	flagProvider string
	flagModel    string
	debug        bool

	// Loaded before every command runs
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "beadchat",
	Short: "beadchat - multi-provider chat with composable personality beads",
	Long: `beadchat is a terminal chat client for Ollama, OpenAI, Anthropic, and
Gemini backends.

Personality is assembled from small reusable "beads": prompt fragments with a
category, priority, and override rule that compose into a single system
prompt. History is compacted per-request so long conversations keep fitting,
and @file references in your input are expanded inline.

Run without arguments to start the interactive chat.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if flagProvider != "" {
			cfg.Provider = flagProvider
		}
		if flagModel != "" {
			cfg.Model = flagModel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level := cfg.Logging.Level
		if debug {
			level = "debug"
		}
		if err := logging.Initialize(cfg.StateDir, cfg.Logging.Enabled || debug, level); err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.beadchat/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagProvider, "provider", "p", "", "Backend provider: ollama, openai, anthropic, gemini")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "Model identifier")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(beadCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

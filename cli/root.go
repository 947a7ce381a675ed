// Package cli implements the toolserver command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/skosovsky/toolserver/config"
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "toolserver",
		Short: "Serve LLM-backed tools over HTTP",
		Long:  "toolserver lists and runs named tools over HTTP; ask_llm forwards prompts to an Ollama backend.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
		Version:      version,
	}
	root.SetVersionTemplate("toolserver version {{.Version}}\n")

	root.PersistentFlags().String("config", "", "Path to a config file (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "Log format: text or json")
	root.PersistentFlags().String("model", "mistral", "Backend model identifier")
	root.PersistentFlags().String("backend-url", "http://ollama-llm:11434", "Backend base URL")
	root.PersistentFlags().Duration("timeout", 0, "Bound on one backend stream (default from config, 2m)")

	root.AddCommand(NewServeCmd(version))
	root.AddCommand(NewToolsCmd())
	root.AddCommand(NewCallCmd())
	root.AddCommand(NewDoctorCmd())
	return root
}

// loadConfig reads configuration for cmd using its merged flag set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, exitError(exitConfig, "%v", err)
	}
	return cfg, nil
}

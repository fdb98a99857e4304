// Package cli implements the pharo-copilot command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pharo-llm/pharo-copilot/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pharo-copilot",
	Short: "Inline code completion server backed by a local inference model",
	Long: `pharo-copilot serves inline code-completion suggestions to an editor
by delegating to a locally hosted inference server (Ollama protocol).

Example usage:
  pharo-copilot serve --socket /tmp/nvim.sock   # attach to a running editor
  pharo-copilot models list                     # show known models
  pharo-copilot eval stats                      # suggestion quality so far`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./copilot.yaml)")
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharo-llm/pharo-copilot/client/ollama"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model registry",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known models (static and backend-discovered)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := ollama.NewClient(ollama.Config{
			BaseURL: cfg.Backend.URL,
			Timeout: cfg.Timeout(),
		})
		defer client.Close()

		reg := buildRegistry(client)
		reg.Refresh(context.Background())

		for _, entry := range reg.ListForDisplay() {
			fmt.Printf("%-30s %s\n", entry.Label, entry.FullName)
		}
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	rootCmd.AddCommand(modelsCmd)
}

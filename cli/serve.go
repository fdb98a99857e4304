package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pharo-llm/pharo-copilot/client/ollama"
	"github.com/pharo-llm/pharo-copilot/config"
	"github.com/pharo-llm/pharo-copilot/editor"
	"github.com/pharo-llm/pharo-copilot/engine"
	"github.com/pharo-llm/pharo-copilot/eval"
	"github.com/pharo-llm/pharo-copilot/logger"
	"github.com/pharo-llm/pharo-copilot/registry"
)

var serveSocket string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Attach to a Neovim instance and serve completions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveSocket, "socket", "", "nvim RPC socket path (required)")
	serveCmd.MarkFlagRequired("socket")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	if err := config.EnsureStateDir(); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	fileLogger, err := logger.Init(cfg.Logging.Path, logger.ParseLevel(cfg.Logging.Level))
	if err != nil {
		return err
	}
	defer fileLogger.Close()

	events, err := logger.OpenEventLog(cfg.Evaluation.EventLog, cfg.Evaluation.EventLogMaxBytes)
	if err != nil {
		return err
	}
	defer events.Close()

	client := ollama.NewClient(ollama.Config{
		BaseURL:     cfg.Backend.URL,
		Timeout:     cfg.Timeout(),
		Template:    cfg.Backend.Template,
		TemplateTTL: cfg.TemplateTTL(),
		Options:     cfg.Backend.Options,
	})
	defer client.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := buildRegistry(client)
	reg.Refresh(ctx)
	model := resolveActiveModel(reg, cfg.Completion.Model)
	logger.Info("active model: %s", model)

	evaluator := eval.New(events, map[string]string{
		"device": loadOrCreateDeviceID(config.DefaultStateDir()),
	})
	evaluator.RegisterListener(func(event eval.Event) {
		logger.Debug("evaluation: %s %s (%d chars), acceptance %d%%",
			event.Action, event.Entry.Category, event.Entry.Length, evaluator.AcceptanceRate())
	})

	ed, err := editor.Dial(serveSocket)
	if err != nil {
		return err
	}
	defer ed.Close()

	eng := engine.New(ed, client, evaluator, events, engine.Config{
		Model:              model,
		CompletionTimeout:  cfg.Timeout(),
		TextChangeDebounce: cfg.Debounce(),
		PrefixTokens:       cfg.Completion.PrefixTokens,
		SuffixTokens:       cfg.Completion.SuffixTokens,
	})
	eng.Start(ctx)
	defer eng.Stop()

	if err := ed.OnEvent(func(event, data string) {
		eng.Notify(event, data)
	}); err != nil {
		return fmt.Errorf("failed to register editor handler: %w", err)
	}

	logger.Info("attached to nvim at %s", serveSocket)

	// Serve blocks until the editor goes away; Ctrl-C cancels via ctx.
	done := make(chan error, 1)
	go func() { done <- ed.Serve() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

// buildRegistry seeds the registry with the configured static models.
func buildRegistry(lister registry.Lister) *registry.Registry {
	static := make([]registry.ModelSpec, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		static = append(static, registry.ModelSpec{Family: m.Family, Tag: m.Tag, Label: m.Label})
	}
	return registry.New(static, lister)
}

// resolveActiveModel maps the configured model (label or full name) to a
// backend-addressable name, falling back to the null model so the
// pipeline keeps working, visibly, when nothing is configured.
func resolveActiveModel(reg *registry.Registry, configured string) string {
	if spec, ok := reg.ResolveLabel(configured); ok {
		return spec.FullName()
	}
	if spec, ok := reg.ResolveFullName(configured); ok {
		return spec.FullName()
	}
	logger.Warn("configured model %q not found, using null model", configured)
	return registry.NullModelName
}

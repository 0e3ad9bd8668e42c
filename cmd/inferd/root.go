package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"inferd/internal/catalog"
	"inferd/internal/config"
)

const version = "1.0.0"

// buildRootCmd constructs the Cobra command tree.
func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "inferd",
		Short:         "Model-serving daemon: initialize models once, run inference through a bounded worker pool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags shared by every subcommand.
	root.PersistentFlags().StringP("config", "c", "", "Config file (.yaml, .json or .toml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error (default info)")

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP daemon",
		Example: "  inferd serve --addr :8080 --models-dir ~/models --backend echo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	serveCmd.Flags().String("addr", "", "HTTP listen address (default :8080)")
	serveCmd.Flags().String("models-dir", "", "Directory to scan for *.gguf model files")
	serveCmd.Flags().String("backend", "", "Model backend: llama|echo (default llama)")
	serveCmd.Flags().Int("workers", 0, "Inference worker goroutines (default 4)")
	serveCmd.Flags().Int("queue-depth", 0, "Queued inferences before 429 (default 32)")
	serveCmd.Flags().String("journal", "", "SQLite journal path for lifecycle events (empty disables)")
	serveCmd.Flags().Bool("init-on-start", false, "Initialize every catalog model at startup")
	serveCmd.Flags().Int("llama-ctx", 0, "llama context window size (default 2048)")
	serveCmd.Flags().Int("llama-threads", 0, "llama inference threads (default 4)")
	serveCmd.Flags().Int64("max-body-bytes", 0, "Request body limit in bytes (default 1 MiB)")
	serveCmd.Flags().Int64("infer-timeout-seconds", 0, "Per-request inference timeout (0 disables)")
	serveCmd.Flags().String("cors-origins", "", "Comma-separated allowed CORS origins (empty disables CORS)")
	root.AddCommand(serveCmd)

	modelsCmd := &cobra.Command{
		Use:     "models",
		Short:   "Print the merged model catalog without starting the daemon",
		Example: "  inferd models --models-dir ~/models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd)
		},
	}
	modelsCmd.Flags().String("models-dir", "", "Directory to scan for *.gguf model files")
	root.AddCommand(modelsCmd)

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}

// loadConfig builds the effective config minus defaults: file first, then
// INFERD_* environment variables. Flag overlays happen per command and
// defaults are filled last.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if path, _ := cmd.InheritedFlags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("apply environment: %w", err)
	}
	if lf := cmd.InheritedFlags().Lookup("log-level"); lf != nil && lf.Changed {
		cfg.LogLevel = lf.Value.String()
	}
	return cfg, nil
}

// fillDefaults replaces unset fields with daemon defaults.
func fillDefaults(cfg *config.Config) {
	def := config.Default()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.Backend == "" {
		cfg.Backend = def.Backend
	}
	if cfg.Workers == 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueDepth == 0 {
		cfg.QueueDepth = def.QueueDepth
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.LlamaCtx == 0 {
		cfg.LlamaCtx = def.LlamaCtx
	}
	if cfg.LlamaThreads == 0 {
		cfg.LlamaThreads = def.LlamaThreads
	}
}

// runModels prints the merged catalog: explicit config entries win over
// scanned files.
func runModels(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("models-dir"); dir != "" {
		cfg.ModelsDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	specs := cfg.Specs()
	if cfg.ModelsDir != "" {
		discovered, err := catalog.Scan(cfg.ModelsDir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", cfg.ModelsDir, err)
		}
		specs = catalog.Merge(discovered, specs)
	}

	out := cmd.OutOrStdout()
	if len(specs) == 0 {
		fmt.Fprintln(out, "no models configured")
		return nil
	}
	for _, s := range specs {
		fmt.Fprintf(out, "%-32s %-8s %s\n", s.Name, s.Type, s.Path)
	}
	return nil
}

// splitCSV splits a comma-separated flag value, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

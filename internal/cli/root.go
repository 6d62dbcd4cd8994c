// Package cli implements the veriforge command line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	rpcURL      string
	explorerAPI string
	apiKey      string
)

// Execute runs the CLI.
func Execute(version string) error {
	rootCmd := &cobra.Command{
		Use:     "veriforge",
		Short:   "Smart contract source verification CLI",
		Long:    `Veriforge matches deployed contract bytecode against local build artifacts and submits the minimal source set to an explorer verification service.`,
		Version: version,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: veriforge.toml or vf.toml)")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "JSON-RPC endpoint (default from config)")
	rootCmd.PersistentFlags().StringVar(&explorerAPI, "explorer-api", "", "verification service API URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "explorer API key")

	rootCmd.AddCommand(createVerifyCmd())
	rootCmd.AddCommand(createListCmd())
	rootCmd.AddCommand(createHistoryCmd())
	rootCmd.AddCommand(createAuthCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd.Execute()
}

// newLogger builds the CLI logger. Diagnostics go to stderr so command
// output stays clean on stdout.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// getRPC returns the RPC URL from flag, env, or project config.
func getRPC() string {
	if rpcURL != "" {
		return rpcURL
	}
	if env := os.Getenv("VERIFORGE_RPC_URL"); env != "" {
		return env
	}
	if config := loadProjectConfigSilent(); config != nil && config.RPC != "" {
		return config.RPC
	}
	return "http://localhost:8545"
}

// getExplorerAPI returns the verification service URL from flag, env,
// project config, or global config.
func getExplorerAPI() string {
	if explorerAPI != "" {
		return explorerAPI
	}
	if env := os.Getenv("VERIFORGE_EXPLORER_API_URL"); env != "" {
		return env
	}
	if config := loadProjectConfigSilent(); config != nil && config.ExplorerAPI != "" {
		return config.ExplorerAPI
	}
	if global := loadGlobalConfigSilent(); global != nil && global.ExplorerAPI != "" {
		return global.ExplorerAPI
	}
	return ""
}

// getArtifactsDir returns the build artifact directory from flag, env,
// or project config, with the configured default last.
func getArtifactsDir(flagValue, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("VERIFORGE_ARTIFACTS_DIR"); env != "" {
		return env
	}
	if config := loadProjectConfigSilent(); config != nil && config.ArtifactsDir != "" {
		return config.ArtifactsDir
	}
	return fallback
}

// getExplorerBase returns the explorer's browse URL from env or project
// config, falling back to the value derived from the API URL.
func getExplorerBase(fallback string) string {
	if env := os.Getenv("VERIFORGE_EXPLORER_URL"); env != "" {
		return env
	}
	if config := loadProjectConfigSilent(); config != nil && config.Explorer != "" {
		return config.Explorer
	}
	return fallback
}

// getAPIKey returns the explorer API key from flag, env, or the
// credentials file keyed by the explorer API URL.
func getAPIKey() string {
	if apiKey != "" {
		return apiKey
	}
	if env := os.Getenv("VERIFORGE_EXPLORER_API_KEY"); env != "" {
		return env
	}
	if cred := getCredential(getExplorerAPI()); cred != "" {
		return cred
	}
	return ""
}

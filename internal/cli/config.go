package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// projectConfigFiles is the search order for project config files.
var projectConfigFiles = []string{"veriforge.toml", "vf.toml"}

// ProjectConfig is the project-level TOML configuration.
type ProjectConfig struct {
	ExplorerAPI  string `toml:"explorer_api"`
	Explorer     string `toml:"explorer,omitempty"`
	RPC          string `toml:"rpc,omitempty"`
	ArtifactsDir string `toml:"artifacts_dir,omitempty"`
}

// GlobalConfig is the global configuration stored in
// ~/.veriforge/config.yaml.
type GlobalConfig struct {
	ExplorerAPI string `yaml:"explorer_api"`
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var explorerAPIURL string
	var rpc string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Create a veriforge.toml configuration file in the current directory.

EXAMPLES:
  # Create config with defaults
  veriforge config init

  # Point at a specific explorer and node
  veriforge config init \
    --explorer-api https://api.explorer.example.com \
    --rpc https://rpc.example.com

  # Overwrite existing config
  veriforge config init --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(explorerAPIURL, rpc, force)
		},
	}

	cmd.Flags().StringVar(&explorerAPIURL, "explorer-api", "", "verification service API URL")
	cmd.Flags().StringVar(&rpc, "rpc", "http://localhost:8545", "JSON-RPC endpoint")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	return cmd
}

func runConfigInit(explorerAPIURL, rpc string, force bool) error {
	configPath := "veriforge.toml"

	for _, name := range projectConfigFiles {
		if _, err := os.Stat(name); err == nil && !force {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", name)
		}
	}

	content := fmt.Sprintf(`# Veriforge project configuration

explorer_api = "%s"
rpc = "%s"

# Build artifact directory (one JSON build record per compilation)
artifacts_dir = "./build/contracts"
`, explorerAPIURL, rpc)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit %s to customize settings\n", configPath)
	fmt.Println("  2. Run 'veriforge auth login' to store the explorer API key")
	fmt.Println("  3. Run 'veriforge verify <Contract> --address 0x...'")

	return nil
}

func runConfigShow() error {
	fmt.Println("Configuration sources (in order of precedence):")
	fmt.Println()

	fmt.Println("1. Command line flags")
	fmt.Println("   --rpc, --explorer-api, --api-key, --config")
	fmt.Println()

	fmt.Println("2. Environment variables")
	for _, key := range []string{"VERIFORGE_RPC_URL", "VERIFORGE_EXPLORER_API_URL", "VERIFORGE_EXPLORER_API_KEY", "VERIFORGE_ARTIFACTS_DIR"} {
		if v := os.Getenv(key); v != "" {
			if key == "VERIFORGE_EXPLORER_API_KEY" {
				v = maskAPIKey(v)
			}
			fmt.Printf("   %s=%s\n", key, v)
		} else {
			fmt.Printf("   %s=(not set)\n", key)
		}
	}
	fmt.Println()

	fmt.Println("3. Local project config (veriforge.toml or vf.toml)")
	projectConfig, configPath, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("   (not found)")
		} else {
			fmt.Printf("   Error: %v\n", err)
		}
	} else {
		fmt.Printf("   Loaded from: %s\n", configPath)
		if projectConfig.ExplorerAPI != "" {
			fmt.Printf("   explorer_api: %s\n", projectConfig.ExplorerAPI)
		}
		if projectConfig.RPC != "" {
			fmt.Printf("   rpc: %s\n", projectConfig.RPC)
		}
		if projectConfig.ArtifactsDir != "" {
			fmt.Printf("   artifacts_dir: %s\n", projectConfig.ArtifactsDir)
		}
	}
	fmt.Println()

	fmt.Println("4. Global config (~/.veriforge/config.yaml)")
	if global := loadGlobalConfigSilent(); global != nil && global.ExplorerAPI != "" {
		fmt.Printf("   explorer_api: %s\n", global.ExplorerAPI)
	} else {
		fmt.Println("   (not found)")
	}
	fmt.Println()

	fmt.Println("Effective configuration:")
	fmt.Printf("   RPC:          %s\n", getRPC())
	fmt.Printf("   Explorer API: %s\n", getExplorerAPI())
	if key := getAPIKey(); key != "" {
		fmt.Printf("   API Key:      %s\n", maskAPIKey(key))
	} else {
		fmt.Println("   API Key:      (not set)")
	}

	return nil
}

// loadProjectConfig loads the project config from the first matching
// config file. Returns the config, the path it was loaded from, and an
// error.
func loadProjectConfig() (*ProjectConfig, string, error) {
	if cfgFile != "" {
		config, err := loadProjectConfigFromPath(cfgFile)
		if err != nil {
			return nil, cfgFile, err
		}
		return config, cfgFile, nil
	}

	for _, name := range projectConfigFiles {
		if _, err := os.Stat(name); err == nil {
			config, err := loadProjectConfigFromPath(name)
			if err != nil {
				return nil, name, err
			}
			return config, name, nil
		}
	}
	return nil, "", os.ErrNotExist
}

func loadProjectConfigFromPath(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config ProjectConfig
	if _, err := toml.Decode(string(data), &config); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	return &config, nil
}

// loadProjectConfigSilent loads the project config without returning
// errors for missing files.
func loadProjectConfigSilent() *ProjectConfig {
	config, _, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Warning: failed to load project config: %v\n", err)
		return nil
	}
	return config
}

// loadGlobalConfigSilent loads ~/.veriforge/config.yaml, returning nil if
// absent or unreadable.
func loadGlobalConfigSilent() *GlobalConfig {
	data, err := os.ReadFile(filepath.Join(credentialsDir(), "config.yaml"))
	if err != nil {
		return nil
	}
	var config GlobalConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil
	}
	return &config
}

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Credentials stores API keys per explorer service.
type Credentials struct {
	Explorers map[string]ExplorerCredential `yaml:"explorers"`
}

// ExplorerCredential stores credentials for a single explorer.
type ExplorerCredential struct {
	APIKey string `yaml:"api_key"`
	Name   string `yaml:"name,omitempty"`
}

func createAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Explorer authentication commands",
	}

	cmd.AddCommand(createAuthLoginCmd())
	cmd.AddCommand(createAuthLogoutCmd())
	cmd.AddCommand(createAuthStatusCmd())

	return cmd
}

func createAuthLoginCmd() *cobra.Command {
	var explorerFlag string
	var apiKeyFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save an explorer API key",
		Long: `Save an API key for an explorer verification service.

The key is stored in ~/.veriforge/credentials with secure file permissions.

EXAMPLES:
  # Interactive login (prompts for API key)
  veriforge auth login

  # Login to a specific explorer
  veriforge auth login --explorer-api https://api.explorer.example.com

  # Non-interactive login (for CI)
  veriforge auth login --key $EXPLORER_API_KEY
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(explorerFlag, apiKeyFlag)
		},
	}

	cmd.Flags().StringVar(&explorerFlag, "explorer-api", "", "explorer API URL (default from config)")
	cmd.Flags().StringVar(&apiKeyFlag, "key", "", "API key (prompts if not provided)")

	return cmd
}

func createAuthLogoutCmd() *cobra.Command {
	var explorerFlag string
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogout(explorerFlag, allFlag)
		},
	}

	cmd.Flags().StringVar(&explorerFlag, "explorer-api", "", "explorer API URL (default from config)")
	cmd.Flags().BoolVar(&allFlag, "all", false, "clear all credentials")

	return cmd
}

func createAuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus()
		},
	}

	return cmd
}

func runAuthLogin(explorerURL, apiKeyInput string) error {
	if explorerURL == "" {
		explorerURL = getExplorerAPI()
	}
	if explorerURL == "" {
		return fmt.Errorf("no explorer API URL configured (use --explorer-api)")
	}

	key := apiKeyInput
	if key == "" {
		fmt.Printf("Enter API key for %s: ", explorerURL)

		stdinFd := int(os.Stdin.Fd())
		if term.IsTerminal(stdinFd) {
			byteKey, err := term.ReadPassword(stdinFd)
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read API key: %w", err)
			}
			key = string(byteKey)
		} else {
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil && err != io.EOF {
				return fmt.Errorf("failed to read API key: %w", err)
			}
			key = strings.TrimSpace(line)
		}
	}

	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := saveCredential(explorerURL, key); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("✅ Saved key for %s (%s)\n", explorerURL, maskAPIKey(key))
	fmt.Printf("   Credentials stored in %s\n", credentialsFilePath())
	return nil
}

func runAuthLogout(explorerURL string, all bool) error {
	if all {
		path := credentialsFilePath()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials: %w", err)
		}
		fmt.Println("✅ All credentials cleared")
		return nil
	}

	if explorerURL == "" {
		explorerURL = getExplorerAPI()
	}

	creds, err := loadCredentials()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No credentials found for %s\n", explorerURL)
			return nil
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	if _, exists := creds.Explorers[explorerURL]; !exists {
		fmt.Printf("No credentials found for %s\n", explorerURL)
		return nil
	}

	delete(creds.Explorers, explorerURL)

	if err := writeCredentials(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Printf("✅ Removed key for %s\n", explorerURL)
	return nil
}

func runAuthStatus() error {
	creds, err := loadCredentials()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No explorer credentials stored")
			fmt.Println("\nRun 'veriforge auth login' to add one")
			return nil
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	if len(creds.Explorers) == 0 {
		fmt.Println("No explorer credentials stored")
		fmt.Println("\nRun 'veriforge auth login' to add one")
		return nil
	}

	fmt.Println("Stored credentials:")
	for explorer, cred := range creds.Explorers {
		fmt.Printf("  • %s (key: %s)\n", explorer, maskAPIKey(cred.APIKey))
	}

	return nil
}

// Credential file helpers

func credentialsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".veriforge"
	}
	return filepath.Join(home, ".veriforge")
}

func credentialsFilePath() string {
	return filepath.Join(credentialsDir(), "credentials")
}

func loadCredentials() (*Credentials, error) {
	data, err := os.ReadFile(credentialsFilePath())
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	if creds.Explorers == nil {
		creds.Explorers = make(map[string]ExplorerCredential)
	}

	return &creds, nil
}

func writeCredentials(creds *Credentials) error {
	if err := os.MkdirAll(credentialsDir(), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	return os.WriteFile(credentialsFilePath(), data, 0600)
}

func saveCredential(explorerURL, key string) error {
	creds, err := loadCredentials()
	if err != nil {
		if os.IsNotExist(err) {
			creds = &Credentials{Explorers: make(map[string]ExplorerCredential)}
		} else {
			return err
		}
	}

	creds.Explorers[explorerURL] = ExplorerCredential{APIKey: key}
	return writeCredentials(creds)
}

func getCredential(explorerURL string) string {
	creds, err := loadCredentials()
	if err != nil {
		return ""
	}
	if cred, ok := creds.Explorers[explorerURL]; ok {
		return cred.APIKey
	}
	return ""
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

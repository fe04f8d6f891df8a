package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cardscraper/pkg/auth"
)

var authService string

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the reasoning-service API key",
	Long: `Manage the API key used by the analyze stage.

The key is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback, e.g. GROQ_API_KEY)`,
}

// authSetCmd represents the auth set command
var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the API key securely",
	Long: `Store the reasoning-service API key in the system keychain or an encrypted
file. The key is prompted for and hidden as you type.`,
	Example: `  # Store the Groq API key
  cardscraper auth set

  # Store a key for a different provider
  cardscraper auth set --service openai`,
	RunE: runAuthSet,
}

// authShowCmd represents the auth show command
var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored API key (masked)",
	RunE:  runAuthShow,
}

// authRemoveCmd represents the auth remove command
var authRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the stored API key",
	RunE:  runAuthRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(authRemoveCmd)

	authCmd.PersistentFlags().StringVar(&authService, "service", "groq", "reasoning service the key belongs to")
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	fmt.Printf("API key for %s (hidden as you type): ", authService)
	key, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	fmt.Println()

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is required")
	}

	cred := &auth.Credential{
		Service:      authService,
		APIKey:       key,
		LastModified: time.Now(),
	}
	if err := manager.Store(cred); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("API key for %s stored securely.\n", authService)
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	cred, err := manager.Retrieve(authService)
	if err != nil {
		return fmt.Errorf("no API key stored for %s", authService)
	}

	fmt.Printf("Service:  %s\n", cred.Service)
	fmt.Printf("API key:  %s\n", maskKey(cred.APIKey))
	if !cred.LastModified.IsZero() {
		fmt.Printf("Modified: %s\n", cred.LastModified.Format(time.RFC3339))
	}
	return nil
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(authService); err != nil {
		return fmt.Errorf("no API key stored for %s", authService)
	}

	fmt.Printf("API key for %s removed.\n", authService)
	return nil
}

// readSecret reads a line from the terminal without echoing it
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Non-interactive input (piped)
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", err
	}
	return line, nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

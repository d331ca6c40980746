package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cinematch/backend/internal/client"
	"github.com/spf13/cobra"
)

var (
	apiURL  string
	output  string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "cinematch",
	Short: "Cinematch CLI - rate movies and get recommendations",
	Long: `Cinematch CLI talks to a running Cinematch backend.
Log in once, rate the movies you have seen, then ask for recommendations.`,
	SilenceUsage: true,
}

func init() {
	defaultURL := os.Getenv("CINEMATCH_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:5000"
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "API server URL (defaults to CINEMATCH_API_URL)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text or json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(popularCmd)
}

// authedClient builds a client from the saved session
func authedClient() (*client.Client, error) {
	creds, err := client.LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	if !creds.IsValid() {
		return nil, fmt.Errorf("not logged in (or session expired); run `cinematch login` first")
	}

	base := apiURL
	if !rootCmd.PersistentFlags().Changed("api") && creds.APIURL != "" {
		base = creds.APIURL
	}
	return client.New(base, creds.Token, timeout), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cinematch/backend/internal/client"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and save the session locally",
	Long: `Log in with your email and password. The password is read from
CINEMATCH_PASSWORD when set, otherwise from standard input.

Examples:
  cinematch login ann@example.com
  CINEMATCH_PASSWORD=secret cinematch login ann@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		resp, err := client.New(apiURL, "", timeout).Login(args[0], password)
		if err != nil {
			return err
		}
		return saveSession(resp)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <name> <email>",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		resp, err := client.New(apiURL, "", timeout).Register(args[0], args[1], password)
		if err != nil {
			return err
		}
		return saveSession(resp)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.DeleteCredentials(); err != nil {
			return err
		}
		printSuccess("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := authedClient()
		if err != nil {
			return err
		}
		user, err := c.Profile()
		if err != nil {
			return err
		}
		if output == "json" {
			return printJSON(user)
		}
		fmt.Printf("%s <%s>\n", bold.Sprint(user.Name), user.Email)
		fmt.Printf("  id:         %s\n", user.ID)
		fmt.Printf("  onboarded:  %v\n", user.OnboardingCompleted)
		return nil
	},
}

func saveSession(resp *client.AuthResponse) error {
	creds := &client.Credentials{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		UserID:    resp.User.ID,
		Email:     resp.User.Email,
		APIURL:    apiURL,
	}
	if err := client.SaveCredentials(creds); err != nil {
		return fmt.Errorf("logged in but failed to save credentials: %w", err)
	}
	printSuccess("Logged in as %s", resp.User.Email)
	return nil
}

func readPassword() (string, error) {
	if p := os.Getenv("CINEMATCH_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// CredentialsEnv overrides the credentials file location
const CredentialsEnv = "CINEMATCH_CREDENTIALS"

// Credentials is the session saved by `login`
type Credentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	APIURL    string    `json:"api_url"`
}

// CredentialsPath returns ~/.config/cinematch/credentials.json unless overridden
func CredentialsPath() (string, error) {
	if p := os.Getenv(CredentialsEnv); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cinematch", "credentials.json"), nil
}

// LoadCredentials reads the saved session. It returns (nil, nil) when nobody is logged in.
func LoadCredentials() (*Credentials, error) {
	path, err := CredentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveCredentials writes the session with owner-only permissions
func SaveCredentials(creds *Credentials) error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// DeleteCredentials removes the saved session; a missing file is not an error
func DeleteCredentials() error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsValid checks the token is present and unexpired
func (c *Credentials) IsValid() bool {
	return c != nil && c.Token != "" && time.Now().Before(c.ExpiresAt)
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/entrhq/hrsuite/pkg/session"
)

// Account is one username/password pair from the credentials fixture.
type Account struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identity returns the session identity for the account.
func (a Account) Identity() session.Identity {
	return session.Identity{Name: a.Username, Secret: a.Password}
}

// Credentials is the credentials fixture file.
type Credentials struct {
	OrangeHRM Account `json:"orangehrm"`

	// Extra holds additional named accounts
	Extra map[string]Account `json:"accounts,omitempty"`
}

// LoadCredentials reads the credentials fixture at path.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials fixture: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials fixture: %w", err)
	}
	if creds.OrangeHRM.Username == "" {
		return nil, fmt.Errorf("credentials fixture has no orangehrm.username")
	}
	return &creds, nil
}

// Account returns the account for user: the default orangehrm account when
// user is empty or matches its username, otherwise the named extra account.
func (c *Credentials) Account(user string) (Account, error) {
	if user == "" || user == c.OrangeHRM.Username {
		return c.OrangeHRM, nil
	}
	if a, ok := c.Extra[user]; ok {
		return a, nil
	}
	for _, a := range c.Extra {
		if a.Username == user {
			return a, nil
		}
	}
	return Account{}, fmt.Errorf("no account %q in credentials fixture", user)
}

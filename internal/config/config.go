// Package config implements the repository's small TOML-backed key/value
// store: user identity, remote origin and access token.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrUnsupportedField is returned by Set/Get for a key outside the closed
// set of recognised fields.
var ErrUnsupportedField = errors.New("unsupported config field")

// ErrNotSet is returned by Get/GetCredentials when a recognised field has
// no value yet.
var ErrNotSet = errors.New("config field not set")

// ErrConfigParse is returned when the on-disk config file fails to parse
// as TOML.
var ErrConfigParse = errors.New("config parse error")

// Field is one of the closed set of recognised config keys.
type Field string

const (
	UserName    Field = "user_name"
	UserEmail   Field = "user_email"
	Origin      Field = "origin"
	AccessToken Field = "access_token"
)

var recognizedFields = map[Field]bool{
	UserName:    true,
	UserEmail:   true,
	Origin:      true,
	AccessToken: true,
}

func parseField(key string) (Field, bool) {
	f := Field(key)
	return f, recognizedFields[f]
}

// Credentials bundles the identity fields required to build a commit.
type Credentials struct {
	UserName  string
	UserEmail string
}

const defaultContents = `# Configuration file for flux
# Values can be set either by directly modifying the file or by using the set command.
#
# user_name    =
# user_email   =
# origin       =
# access_token =
`

// Config is the in-memory mirror of <flux-dir>/config.
type Config struct {
	path string
	data map[Field]string
}

// Default creates a fresh commented-out config file.
func Default(path string) (*Config, error) {
	if err := os.WriteFile(path, []byte(defaultContents), 0o644); err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}
	return &Config{path: path, data: map[Field]string{}}, nil
}

// Load parses an existing TOML config file, silently dropping any keys it
// does not recognise.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var temp map[string]string
	if err := toml.Unmarshal(raw, &temp); err != nil {
		return nil, fmt.Errorf("load config: %w: %v", ErrConfigParse, err)
	}

	data := map[Field]string{}
	for key, value := range temp {
		if field, ok := parseField(key); ok {
			data[field] = value
		}
	}

	return &Config{path: path, data: data}, nil
}

// Set upserts key and flushes atomically. Unrecognised keys are rejected.
func (c *Config) Set(key, value string) error {
	field, ok := parseField(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedField, key)
	}
	c.data[field] = value
	return c.flush()
}

func (c *Config) flush() error {
	serializable := make(map[string]string, len(c.data))
	for field, value := range c.data {
		serializable[string(field)] = value
	}

	raw, err := toml.Marshal(serializable)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := filepath.Clean(c.path) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// Get returns the value of an already-recognised key.
func (c *Config) Get(key string) (string, error) {
	field, ok := parseField(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedField, key)
	}
	value, ok := c.data[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotSet, key)
	}
	return value, nil
}

// GetCredentials returns user_name/user_email, failing if either is unset.
func (c *Config) GetCredentials() (Credentials, error) {
	name, ok := c.data[UserName]
	if !ok {
		return Credentials{}, fmt.Errorf("%w: %s", ErrNotSet, UserName)
	}
	email, ok := c.data[UserEmail]
	if !ok {
		return Credentials{}, fmt.Errorf("%w: %s", ErrNotSet, UserEmail)
	}
	return Credentials{UserName: name, UserEmail: email}, nil
}

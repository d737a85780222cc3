package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Resolve when no provider in the chain holds a
// non-empty value for the requested key.
var ErrNotFound = errors.New("secret not found")

// Provider looks up a single configuration value by key. A provider reports
// found=false when it has nothing for the key; err is reserved for providers
// that hold a reference to the value but fail to read it.
type Provider interface {
	Name() string
	Lookup(key string) (value string, found bool, err error)
}

// Chain is an ordered list of providers. The first provider returning a
// non-empty value wins.
type Chain []Provider

// DefaultChain returns the documented resolution order:
//
//  1. secret store directory (one file per key, e.g. /run/secrets/openrouter_api_key)
//  2. <KEY>_FILE environment variable pointing to a file
//  3. <KEY> environment variable
//
// An empty secretsDir skips the first provider.
func DefaultChain(secretsDir string) Chain {
	chain := Chain{}
	if strings.TrimSpace(secretsDir) != "" {
		chain = append(chain, DirStore{Dir: secretsDir})
	}
	return append(chain, EnvFile{}, Env{})
}

// Resolve walks the chain and returns the first non-empty, trimmed value
// together with the name of the provider that supplied it.
func (c Chain) Resolve(key string) (string, string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", errors.New("secret key is required")
	}

	for _, p := range c {
		value, found, err := p.Lookup(key)
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", p.Name(), err)
		}
		if !found {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, p.Name(), nil
		}
	}

	return "", "", fmt.Errorf("%s: %w", key, ErrNotFound)
}

// ResolveOr returns the resolved value or fallback when no provider has one.
// Read errors are still reported.
func (c Chain) ResolveOr(key, fallback string) (string, error) {
	value, _, err := c.Resolve(key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// DirStore reads secrets from files in a directory, one file per key. The file
// name is the lowercased key.
type DirStore struct {
	Dir string
}

func (s DirStore) Name() string { return "secret store " + s.Dir }

func (s DirStore) Lookup(key string) (string, bool, error) {
	path := filepath.Join(s.Dir, strings.ToLower(key))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s from %q: %w", key, path, err)
	}
	return string(data), true, nil
}

// EnvFile resolves <KEY>_FILE and reads the referenced file. A set but
// unreadable path is an error rather than a silent fallthrough.
type EnvFile struct{}

func (EnvFile) Name() string { return "env file" }

func (EnvFile) Lookup(key string) (string, bool, error) {
	path := strings.TrimSpace(os.Getenv(key + "_FILE"))
	if path == "" {
		return "", false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("reading %s from file %q: %w", key, path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", false, fmt.Errorf("%s file %q is empty", key, path)
	}
	return string(data), true, nil
}

// Env reads the plain environment variable.
type Env struct{}

func (Env) Name() string { return "env" }

func (Env) Lookup(key string) (string, bool, error) {
	value, ok := os.LookupEnv(key)
	return value, ok, nil
}

// Static is a fixed map of values. Useful for values coming from a config file
// and for tests.
type Static map[string]string

func (Static) Name() string { return "static" }

func (s Static) Lookup(key string) (string, bool, error) {
	value, ok := s[key]
	return value, ok, nil
}

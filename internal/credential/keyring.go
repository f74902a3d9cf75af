package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "mailboard"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailboard/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailboard-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Vault reads and writes secrets in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// Open returns a Vault over the system keyring.
func Open() (*Vault, error) {
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return &Vault{ring: ring}, nil
}

// NewVault wraps an existing keyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Get retrieves a credential value by key.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (v *Vault) Set(key, value string) error {
	err := v.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key.
func (v *Vault) Delete(key string) error {
	if err := v.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Reference prefixes understood by Resolve.
const (
	keyringPrefix = "keyring:"
	envPrefix     = "env:"
)

// ErrNotFound is returned when a referenced secret does not exist.
var ErrNotFound = errors.New("credential not found")

// Resolve turns a secret reference into its value. "keyring:<key>" reads
// the vault, "env:<VAR>" reads the environment and anything else is taken
// literally. A nil vault opens the system keyring on demand.
func Resolve(ref string, v *Vault) (string, error) {
	switch {
	case strings.HasPrefix(ref, keyringPrefix):
		key := strings.TrimPrefix(ref, keyringPrefix)
		if v == nil {
			var err error
			if v, err = Open(); err != nil {
				return "", err
			}
		}
		value, err := v.Get(key)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("%w: keyring key %q", ErrNotFound, key)
		}
		return value, err

	case strings.HasPrefix(ref, envPrefix):
		name := strings.TrimPrefix(ref, envPrefix)
		value, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("%w: environment variable %s", ErrNotFound, name)
		}
		return value, nil
	}

	return ref, nil
}

// KeyFromRef returns the keyring key named by a "keyring:" reference.
func KeyFromRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, keyringPrefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, keyringPrefix), true
}

package secret

import (
	"os/exec"
	"strings"

	"ihaboard/internal/errors"
)

const keychainService = "ihaboard"

// exit status of `security` when the item does not exist
const keychainItemNotFound = 44

// KeychainStore implements SecretStore using the macOS Keychain
// via the `security` CLI tool.
type KeychainStore struct {
	service string
}

// NewKeychainStore creates a new KeychainStore.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{service: keychainService}
}

// Set stores a secret in the macOS Keychain, updating an existing entry.
func (k *KeychainStore) Set(key string, value []byte) error {
	cmd := exec.Command("security", "add-generic-password",
		"-a", key,
		"-s", k.service,
		"-w", string(value),
		"-U",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return keychainError(errors.Wrapf(err, "keychain set: %s", strings.TrimSpace(string(out))))
	}
	return nil
}

// Get retrieves a secret from the macOS Keychain.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	cmd := exec.Command("security", "find-generic-password",
		"-a", key,
		"-s", k.service,
		"-w", // output only the password
	)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == keychainItemNotFound {
			return nil, errors.Wrapf(ErrNotFound, "keychain key %q", key)
		}
		return nil, keychainError(errors.Wrap(err, "keychain get"))
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

// Delete removes a secret from the macOS Keychain.
func (k *KeychainStore) Delete(key string) error {
	cmd := exec.Command("security", "delete-generic-password",
		"-a", key,
		"-s", k.service,
	)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == keychainItemNotFound {
			return nil
		}
		return keychainError(errors.Wrap(err, "keychain delete"))
	}
	return nil
}

func keychainError(err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return errors.WithHint(err, "the keychain store needs macOS; set history.password instead")
	}
	return err
}

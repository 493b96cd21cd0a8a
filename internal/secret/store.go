package secret

import "ihaboard/internal/errors"

// ErrNotFound is returned by Get when no secret is stored under the key.
var ErrNotFound = errors.New("secret not found")

// SecretStore keeps credentials out of the config file, such as the
// history database password.
type SecretStore interface {
	// Set stores a secret value under the given key, replacing any old value.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	// Deleting a missing key is not an error.
	Delete(key string) error
}

// MemoryStore is an in-process SecretStore.
type MemoryStore struct {
	values map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}}
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "key %q", key)
	}
	return v, nil
}

func (m *MemoryStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}

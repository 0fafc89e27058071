package storage

import "encoding/json"

// Well-known keys for persisted client state. Each piece of state lives
// under its own key and is rehydrated wholesale at startup.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyCart         = "cart"
)

// Store defines the interface for persisted client-side state. Writes
// mutate the in-memory map; Save flushes to the backing medium at
// explicit lifecycle points so persistence timing stays deterministic.
type Store interface {
	// Get retrieves the value for a key, reporting whether it was set.
	Get(key string) (string, bool)

	// Set stores a value under a key.
	Set(key, value string)

	// Delete removes a key.
	Delete(key string)

	// Load replaces the in-memory state from the backing medium.
	// A missing or corrupt backing file yields an empty store.
	Load() error

	// Save flushes the current state to the backing medium.
	Save() error
}

// GetJSON unmarshals the JSON value stored under key into out.
// Returns false if the key is absent; an error if the value is corrupt.
func GetJSON(s Store, key string, out any) (bool, error) {
	raw, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return true, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Set(key, string(raw))
	return nil
}

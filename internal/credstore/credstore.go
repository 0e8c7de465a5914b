// Package credstore persists the two credentials that survive restarts:
// the session token and the selected tenant id. Everything else about a
// session is re-derived from the server.
package credstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// The only keys a Store holds.
const (
	KeySessionToken     = "session_token"
	KeySelectedTenantID = "selected_tenant_id"
)

// Store is a durable two-key string map. The session controller is its
// only writer; other components read session state through the
// controller's in-memory snapshot instead.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Clear(key string) error
}

// FileStore keeps credentials in a mode-0600 YAML file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at the given path. The parent
// directory is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns ~/.accesspanel/credentials.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".accesspanel", "credentials.yaml"), nil
}

// load reads the credential file; a missing or unreadable file is an
// empty store.
func (s *FileStore) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]string{}
	}
	vals := map[string]string{}
	if err := yaml.Unmarshal(data, &vals); err != nil {
		return map[string]string{}
	}
	return vals
}

func (s *FileStore) save(vals map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	data, err := yaml.Marshal(vals)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Get returns the stored value for key, or false when absent.
func (s *FileStore) Get(key string) (string, bool) {
	v, ok := s.load()[key]
	return v, ok && v != ""
}

// Set stores value under key.
func (s *FileStore) Set(key, value string) error {
	vals := s.load()
	vals[key] = value
	return s.save(vals)
}

// Clear removes key. Clearing an absent key is a no-op.
func (s *FileStore) Clear(key string) error {
	vals := s.load()
	if _, ok := vals[key]; !ok {
		return nil
	}
	delete(vals, key)
	if len(vals) == 0 {
		err := os.Remove(s.path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove credentials: %w", err)
		}
		return nil
	}
	return s.save(vals)
}

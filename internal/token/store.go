// Package token persists the admin session token between runs, taking the
// place a browser cookie holds for the hosted console.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/freshmart/adminctl/internal/gateway"
)

// record is the on-disk shape of a saved session.
type record struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store reads and writes the session file. The file is owner-only since it
// holds a live credential.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes the session to disk, replacing any previous one. The write
// goes through a temp file so a crash never leaves a half-written token.
func (s *Store) Save(sess gateway.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	data, err := json.Marshal(record{Token: sess.Token, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Load returns the saved session. ok is false when no session exists or the
// saved one has already expired locally; an expired session is useless and
// reported the same as a missing one.
func (s *Store) Load() (sess gateway.Session, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return gateway.Session{}, false, nil
	}
	if err != nil {
		return gateway.Session{}, false, fmt.Errorf("read session file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return gateway.Session{}, false, fmt.Errorf("decode session file: %w", err)
	}

	sess = gateway.Session{Token: rec.Token, ExpiresAt: rec.ExpiresAt}
	if !sess.Valid() {
		return gateway.Session{}, false, nil
	}
	return sess, true, nil
}

// Clear removes the session file. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

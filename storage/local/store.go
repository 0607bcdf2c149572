package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/edusync/portal/core/portal"
)

// File names of the two persisted entries, mirroring the browser-local keys
// of the original portal.
const (
	tokenFile   = "parent_session_id"
	profileFile = "parent_info.json"
)

// Store keeps the session token and the cached parent profile as two files
// under a state directory. It is the only durable client-side state.
type Store struct {
	dir string
	mu  sync.Mutex
}

var _ portal.Store = (*Store)(nil)

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating state dir")
	}
	return &Store{dir: dir}, nil
}

// Token returns the persisted session token, or "" when absent or unreadable.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(token), 0o600)
}

// Profile returns the cached parent profile. A missing or corrupt entry
// reports ok=false; the cache is a convenience, never authoritative.
func (s *Store) Profile() (portal.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(filepath.Join(s.dir, profileFile))
	if err != nil {
		return portal.Profile{}, false
	}
	var p portal.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return portal.Profile{}, false
	}
	return p, true
}

func (s *Store) SetProfile(p portal.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encoding profile")
	}
	return os.WriteFile(filepath.Join(s.dir, profileFile), b, 0o600)
}

// Clear removes both entries; missing files are not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{tokenFile, profileFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", name)
		}
	}
	return nil
}

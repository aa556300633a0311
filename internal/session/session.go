package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Session is the persisted auth-provider session. The application only ever
// reads the token and user id; auth state is mutated by the provider, never
// by docchat.
type Session struct {
	AccessToken string `json:"access_token,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Email       string `json:"email,omitempty"`
	ExpiresAt   int64  `json:"expires_at,omitempty"`
}

// Store reads the session file under the data directory and stashes the
// return URL used by the login redirect flow.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir (usually the configured data dir).
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) sessionPath() string {
	return filepath.Join(s.dir, "session.json")
}

func (s *Store) returnURLPath() string {
	return filepath.Join(s.dir, "return-url")
}

// Load reads the current session. A missing file means no session and
// returns nil without error.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.sessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &sess, nil
}

// Token returns the bearer token of the current session, or an empty string
// when no valid session exists. Expired sessions are treated as absent.
func (s *Store) Token() string {
	sess, err := s.Load()
	if err != nil || sess == nil {
		return ""
	}
	if sess.ExpiresAt > 0 && time.Now().Unix() >= sess.ExpiresAt {
		return ""
	}
	return sess.AccessToken
}

// UserID returns the user id of the current session, or an empty string.
func (s *Store) UserID() string {
	sess, err := s.Load()
	if err != nil || sess == nil {
		return ""
	}
	return sess.UserID
}

// StashReturnURL records the URL to return to after a login redirect.
func (s *Store) StashReturnURL(u string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := os.WriteFile(s.returnURLPath(), []byte(u), 0o600); err != nil {
		return fmt.Errorf("writing return url: %w", err)
	}
	return nil
}

// PopReturnURL returns the stashed return URL and clears it. Returns an
// empty string when nothing is stashed.
func (s *Store) PopReturnURL() string {
	data, err := os.ReadFile(s.returnURLPath())
	if err != nil {
		return ""
	}
	os.Remove(s.returnURLPath())
	return string(data)
}

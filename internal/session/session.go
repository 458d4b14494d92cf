package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/toniiplaycode/DNC-Learning-sub002/internal/domain"
	"github.com/toniiplaycode/DNC-Learning-sub002/pkg/jwt"
)

var ErrNoSession = errors.New("no stored session")

// Session is the durable identity of the chat client: the bearer token
// plus the profile snapshot captured at login. It survives restarts so
// the client can reconnect without a fresh login.
type Session struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

// UserID returns the authenticated user's id.
func (s *Session) UserID() int64 { return s.User.ID }

// Eligible reports whether the session can open a socket connection:
// a user id is present and the token has not expired.
func (s *Session) Eligible(now time.Time) error {
	if s.User.ID == 0 || s.Token == "" {
		return ErrNoSession
	}
	return jwt.CheckExpiry(s.Token, now)
}

// Load reads a session file. A missing file is ErrNoSession.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &s, nil
}

// Save writes the session to disk, creating parent directories. The
// file holds a bearer token, so it is not group or world readable.
func Save(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear removes the stored session. Missing file is not an error.
func Clear(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

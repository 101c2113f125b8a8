// Package session holds the signed-in user's identity, language and
// notification read-state. The identity is stored in a namespace named after
// the session id; language and read-state live in a profile namespace keyed
// by role and email so they survive signing out.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Storage keys.
const (
	KeyEmail             = "email"
	KeyRole              = "role"
	KeyLanguage          = "language"
	KeyReadNotifications = "readNotifications"
)

// DefaultLanguage is used when none was chosen.
const DefaultLanguage = "english"

// ErrNoSession is returned by Load when nothing is stored for the id.
var ErrNoSession = errors.New("session not found")

// Role is the locally stored role flag.
type Role string

const (
	RoleDoctor  Role = "Doctor"
	RoleStudent Role = "Student"
)

// ParseRole accepts either role name in any case.
func ParseRole(s string) (Role, error) {
	switch {
	case strings.EqualFold(s, string(RoleDoctor)):
		return RoleDoctor, nil
	case strings.EqualFold(s, string(RoleStudent)):
		return RoleStudent, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Storage persists string values.
type Storage interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Remove(ctx context.Context, namespace, key string) error
}

// Session is the per-user context threaded through the dashboards.
type Session struct {
	ID    string
	Email string
	Role  Role

	store Storage

	// update serialises read-modify-write of the read set.
	update sync.Mutex

	mu       sync.Mutex
	language string
	read     map[int]bool
}

// ProfileKey is the namespace of the state kept across sign-ins.
func ProfileKey(role Role, email string) string {
	return "profile:" + strings.ToLower(string(role)) + ":" + strings.ToLower(strings.TrimSpace(email))
}

func (s *Session) profile() string { return ProfileKey(s.Role, s.Email) }

// Create starts a session and persists its identity. An empty language
// keeps the one chosen in an earlier sign-in.
func Create(ctx context.Context, store Storage, id, email string, role Role, language string) (*Session, error) {
	email = strings.TrimSpace(email)
	if id == "" || email == "" {
		return nil, errors.New("session id and email required")
	}
	s := &Session{ID: id, Email: email, Role: role, store: store, language: DefaultLanguage, read: map[int]bool{}}
	for _, kv := range [][2]string{{KeyEmail, email}, {KeyRole, string(role)}} {
		if err := store.Set(ctx, id, kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("persist %s: %w", kv[0], err)
		}
	}
	if err := s.loadProfile(ctx); err != nil {
		return nil, err
	}
	if language = strings.TrimSpace(language); language != "" {
		if err := s.SetLanguage(ctx, language); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load restores a session from storage.
func Load(ctx context.Context, store Storage, id string) (*Session, error) {
	email, ok, err := store.Get(ctx, id, KeyEmail)
	if err != nil {
		return nil, fmt.Errorf("load email: %w", err)
	}
	if !ok || email == "" {
		return nil, ErrNoSession
	}
	s := &Session{ID: id, Email: email, store: store, language: DefaultLanguage, read: map[int]bool{}}
	if role, ok, err := store.Get(ctx, id, KeyRole); err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	} else if ok {
		s.Role = Role(role)
	}
	if err := s.loadProfile(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) loadProfile(ctx context.Context) error {
	if lang, ok, err := s.store.Get(ctx, s.profile(), KeyLanguage); err != nil {
		return fmt.Errorf("load language: %w", err)
	} else if ok && lang != "" {
		s.language = lang
	}
	return s.loadRead(ctx)
}

func (s *Session) loadRead(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, s.profile(), KeyReadNotifications)
	if err != nil {
		return fmt.Errorf("load read notifications: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return fmt.Errorf("decode read notifications: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.read[id] = true
	}
	return nil
}

// Language returns the chosen UI language.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage changes and persists the UI language.
func (s *Session) SetLanguage(ctx context.Context, lang string) error {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return errors.New("language required")
	}
	if err := s.store.Set(ctx, s.profile(), KeyLanguage, lang); err != nil {
		return fmt.Errorf("persist language: %w", err)
	}
	s.mu.Lock()
	s.language = lang
	s.mu.Unlock()
	return nil
}

// ReadIDs returns a copy of the locally read notification ids.
func (s *Session) ReadIDs() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]bool, len(s.read))
	for id := range s.read {
		out[id] = true
	}
	return out
}

// SetReadIDs replaces and persists the read set.
func (s *Session) SetReadIDs(ctx context.Context, ids map[int]bool) error {
	s.update.Lock()
	defer s.update.Unlock()
	return s.storeRead(ctx, ids)
}

// UpdateReadIDs applies fn to the current read set and persists the result.
// Concurrent updates of one session are applied in turn.
func (s *Session) UpdateReadIDs(ctx context.Context, fn func(map[int]bool) map[int]bool) error {
	s.update.Lock()
	defer s.update.Unlock()
	return s.storeRead(ctx, fn(s.ReadIDs()))
}

// storeRead persists ids and swaps them in. Caller holds update.
func (s *Session) storeRead(ctx context.Context, ids map[int]bool) error {
	list := make([]int, 0, len(ids))
	for id, ok := range ids {
		if ok {
			list = append(list, id)
		}
	}
	slices.Sort(list)
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.profile(), KeyReadNotifications, string(raw)); err != nil {
		return fmt.Errorf("persist read notifications: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read = make(map[int]bool, len(list))
	for _, id := range list {
		s.read[id] = true
	}
	return nil
}

// End removes the identity keys. Language and the read set stay in the
// profile namespace for the next sign-in.
func (s *Session) End(ctx context.Context) error {
	for _, k := range []string{KeyEmail, KeyRole} {
		if err := s.store.Remove(ctx, s.ID, k); err != nil {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return nil
}

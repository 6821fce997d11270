package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/model"
)

// Persisted keys owned by the session store.
const (
	keyUsers    = "users"
	keyAuthUser = "auth_user"
)

// subscriptionValidity is how long a subscription (including the initial
// free tier) remains valid after it is set.
const subscriptionValidity = 30 * 24 * time.Hour

// resetTokenValidity is how long a password-reset token remains usable.
const resetTokenValidity = time.Hour

// SessionStore owns the registered-user directory and the current session.
// The session is derived from the registry by id, so the two can never
// diverge; the auth_user key persists a snapshot of the signed-in user.
//
// Callers reach the store from Bubble Tea command goroutines, so a mutex
// guards the registry and session.
type SessionStore struct {
	mu        sync.Mutex
	kv        *KV
	users     []model.User
	currentID string
}

// NewSessionStore loads the registered users and any persisted session.
// A persisted session pointing at a user no longer in the registry is
// discarded.
func NewSessionStore(ctx context.Context, kv *KV) (*SessionStore, error) {
	s := &SessionStore{kv: kv}

	users, found, err := getJSON[[]model.User](ctx, kv, keyUsers)
	if err != nil && !errors.Is(err, ErrValidation) {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	if found {
		s.users = users
	}

	current, found, err := getJSON[*model.User](ctx, kv, keyAuthUser)
	if err != nil && !errors.Is(err, ErrValidation) {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if found && current != nil {
		if _, ok := s.userByID(current.ID); ok {
			s.currentID = current.ID
		}
	}

	return s, nil
}

// SignUp registers a new user and signs them in. The email must not match
// any registered user's email (exact string comparison).
func (s *SessionStore) SignUp(ctx context.Context, email, password, name string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return model.User{}, fmt.Errorf("user with email %q: %w", email, ErrConflict)
		}
	}

	user := model.User{
		ID:       uuid.NewString(),
		Email:    email,
		Name:     name,
		Password: password,
		Subscription: &model.Subscription{
			Status:     model.TierFree,
			ValidUntil: time.Now().Add(subscriptionValidity),
		},
	}

	s.users = append(s.users, user)
	s.currentID = user.ID

	if err := s.persistUsers(ctx); err != nil {
		return model.User{}, err
	}
	if err := s.persistSession(ctx); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// SignIn starts a session for the user whose email and password both match
// exactly.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email && u.Password == password {
			s.currentID = u.ID
			if err := s.persistSession(ctx); err != nil {
				return model.User{}, err
			}
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("invalid email or password: %w", ErrAuth)
}

// SignOut clears the current session. The user stays registered.
func (s *SessionStore) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentID = ""
	return s.kv.Delete(ctx, keyAuthUser)
}

// CurrentUser returns the signed-in user, derived from the registry.
func (s *SessionStore) CurrentUser() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentID == "" {
		return model.User{}, false
	}
	return s.userByID(s.currentID)
}

// RequestPasswordReset attaches a fresh reset token with a one-hour expiry
// to the user with the given email and returns the token. Dispatching the
// notification is the caller's concern.
func (s *SessionStore) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.users, func(u model.User) bool { return u.Email == email })
	if idx < 0 {
		return "", fmt.Errorf("no user with email %q: %w", email, ErrNotFound)
	}

	token := uuid.NewString()
	expiry := time.Now().Add(resetTokenValidity)
	s.users[idx].ResetToken = token
	s.users[idx].ResetExpiry = &expiry

	if err := s.persistUsers(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword overwrites the password of the user holding a matching,
// unexpired reset token and clears the token. It does not sign the user in.
func (s *SessionStore) ResetPassword(ctx context.Context, token, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	idx := slices.IndexFunc(s.users, func(u model.User) bool {
		return u.ResetTokenValid(token, now)
	})
	if idx < 0 {
		return fmt.Errorf("invalid or expired reset token: %w", ErrAuth)
	}

	s.users[idx].Password = newPassword
	s.users[idx].ResetToken = ""
	s.users[idx].ResetExpiry = nil

	return s.persistUsers(ctx)
}

// UpdateSubscription sets the user's subscription to the given tier with a
// fresh 30-day validity. Unknown user ids are a silent no-op. When the
// affected user is the current session, the persisted snapshot is refreshed.
func (s *SessionStore) UpdateSubscription(ctx context.Context, userID, tier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.users, func(u model.User) bool { return u.ID == userID })
	if idx < 0 {
		return nil
	}

	s.users[idx].Subscription = &model.Subscription{
		Status:     tier,
		ValidUntil: time.Now().Add(subscriptionValidity),
	}

	if err := s.persistUsers(ctx); err != nil {
		return err
	}
	if s.currentID == userID {
		return s.persistSession(ctx)
	}
	return nil
}

// Users returns a copy of the registered-user directory.
func (s *SessionStore) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.users)
}

func (s *SessionStore) userByID(id string) (model.User, bool) {
	idx := slices.IndexFunc(s.users, func(u model.User) bool { return u.ID == id })
	if idx < 0 {
		return model.User{}, false
	}
	return s.users[idx], true
}

func (s *SessionStore) persistUsers(ctx context.Context) error {
	return putJSON(ctx, s.kv, keyUsers, s.users)
}

// persistSession snapshots the signed-in user. Callers hold s.mu.
func (s *SessionStore) persistSession(ctx context.Context) error {
	if s.currentID == "" {
		return s.kv.Delete(ctx, keyAuthUser)
	}
	user, ok := s.userByID(s.currentID)
	if !ok {
		return s.kv.Delete(ctx, keyAuthUser)
	}
	return putJSON(ctx, s.kv, keyAuthUser, &user)
}

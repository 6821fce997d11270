package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"taskdeck/internal/model"
	"taskdeck/internal/store"
	"taskdeck/tests/testutil"
)

func newSessionStore(t *testing.T, kv *store.KV) *store.SessionStore {
	t.Helper()
	s, err := store.NewSessionStore(context.Background(), kv)
	if err != nil {
		t.Fatalf("creating session store: %v", err)
	}
	return s
}

// seedUsers writes a registered-user document directly, bypassing the store.
func seedUsers(t *testing.T, kv *store.KV, users []model.User) {
	t.Helper()
	doc := struct {
		Version int          `json:"version"`
		Data    []model.User `json:"data"`
	}{Version: 1, Data: users}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshaling users doc: %v", err)
	}
	if err := kv.Put(context.Background(), "users", string(raw)); err != nil {
		t.Fatalf("seeding users: %v", err)
	}
}

func TestSignUpCreatesFreeSubscriptionAndSignsIn(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newSessionStore(t, kv)

	user, err := s.SignUp(context.Background(), "a@x.com", "pw", "Ann")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated user id")
	}
	if user.Subscription == nil || user.Subscription.Status != model.TierFree {
		t.Fatalf("expected free subscription, got %+v", user.Subscription)
	}
	if !user.Subscription.ValidUntil.After(time.Now()) {
		t.Fatalf("subscription validity should be in the future")
	}

	current, ok := s.CurrentUser()
	if !ok || current.ID != user.ID {
		t.Fatalf("sign up did not start a session")
	}
}

func TestSignUpDuplicateEmailConflict(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newSessionStore(t, kv)
	ctx := context.Background()

	if _, err := s.SignUp(ctx, "a@x.com", "pw", "Ann"); err != nil {
		t.Fatalf("first sign up: %v", err)
	}

	_, err := s.SignUp(ctx, "a@x.com", "other", "Ann2")
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	users := s.Users()
	if len(users) != 1 {
		t.Fatalf("expected 1 registered user, got %d", len(users))
	}
	if users[0].Email != "a@x.com" || users[0].Name != "Ann" {
		t.Fatalf("registry changed by failed sign up: %+v", users[0])
	}
	current, ok := s.CurrentUser()
	if !ok || current.Name != "Ann" {
		t.Fatalf("session changed by failed sign up")
	}
}

func TestSignInRequiresExactMatch(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newSessionStore(t, kv)
	ctx := context.Background()

	if _, err := s.SignUp(ctx, "a@x.com", "pw", "Ann"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	if _, err := s.SignIn(ctx, "a@x.com", "wrong"); !errors.Is(err, store.ErrAuth) {
		t.Fatalf("expected ErrAuth for wrong password, got %v", err)
	}
	if _, err := s.SignIn(ctx, "A@X.COM", "pw"); !errors.Is(err, store.ErrAuth) {
		t.Fatalf("expected ErrAuth for case-mismatched email, got %v", err)
	}

	user, err := s.SignIn(ctx, "a@x.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if user.Name != "Ann" {
		t.Fatalf("signed in as wrong user: %+v", user)
	}
}

func TestSignOutKeepsRegistry(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newSessionStore(t, kv)
	ctx := context.Background()

	if _, err := s.SignUp(ctx, "a@x.com", "pw", "Ann"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	if _, ok := s.CurrentUser(); ok {
		t.Fatalf("session should be cleared")
	}
	if len(s.Users()) != 1 {
		t.Fatalf("sign out removed the user from the registry")
	}
}

func TestSessionRestoredAcrossReload(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newSessionStore(t, kv)

	if _, err := s.SignUp(context.Background(), "a@x.com", "pw", "Ann"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	reloaded := newSessionStore(t, kv)
	current, ok := reloaded.CurrentUser()
	if !ok || current.Email != "a@x.com" {
		t.Fatalf("session not restored after reload")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newSessionStore(t, kv)
	ctx := context.Background()

	if _, err := s.SignUp(ctx, "a@x.com", "pw", "Ann"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	if _, err := s.RequestPasswordReset(ctx, "nobody@x.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}

	token, err := s.RequestPasswordReset(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a reset token")
	}

	if err := s.ResetPassword(ctx, "bogus", "newpw"); !errors.Is(err, store.ErrAuth) {
		t.Fatalf("expected ErrAuth for bogus token, got %v", err)
	}
	if err := s.ResetPassword(ctx, token, "newpw"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	// Reset does not implicitly sign in.
	if _, ok := s.CurrentUser(); ok {
		t.Fatalf("reset password started a session")
	}

	// The token is single-use.
	if err := s.ResetPassword(ctx, token, "again"); !errors.Is(err, store.ErrAuth) {
		t.Fatalf("expected ErrAuth for reused token, got %v", err)
	}

	if _, err := s.SignIn(ctx, "a@x.com", "pw"); !errors.Is(err, store.ErrAuth) {
		t.Fatalf("old password still accepted")
	}
	if _, err := s.SignIn(ctx, "a@x.com", "newpw"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	kv := testutil.NewTestKV(t)
	expired := time.Now().Add(-time.Minute)
	seedUsers(t, kv, []model.User{{
		ID:          "u1",
		Email:       "a@x.com",
		Name:        "Ann",
		Password:    "pw",
		ResetToken:  "stale-token",
		ResetExpiry: &expired,
	}})

	s := newSessionStore(t, kv)
	err := s.ResetPassword(context.Background(), "stale-token", "newpw")
	if !errors.Is(err, store.ErrAuth) {
		t.Fatalf("expected ErrAuth for expired token, got %v", err)
	}

	if _, err := s.SignIn(context.Background(), "a@x.com", "pw"); err != nil {
		t.Fatalf("stored password was altered by failed reset: %v", err)
	}
}

func TestUpdateSubscriptionRefreshesSession(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newSessionStore(t, kv)
	ctx := context.Background()

	user, err := s.SignUp(ctx, "a@x.com", "pw", "Ann")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if err := s.UpdateSubscription(ctx, "unknown", model.TierPro); err != nil {
		t.Fatalf("expected silent no-op for unknown user, got %v", err)
	}
	if err := s.UpdateSubscription(ctx, user.ID, model.TierPro); err != nil {
		t.Fatalf("update subscription: %v", err)
	}

	current, ok := s.CurrentUser()
	if !ok || current.Subscription == nil || current.Subscription.Status != model.TierPro {
		t.Fatalf("session view not updated: %+v", current.Subscription)
	}

	// The persisted session snapshot must agree with the registry.
	reloaded := newSessionStore(t, kv)
	restored, ok := reloaded.CurrentUser()
	if !ok || restored.Subscription == nil || restored.Subscription.Status != model.TierPro {
		t.Fatalf("persisted session snapshot diverged: %+v", restored.Subscription)
	}
}

func TestConcurrentSubscriptionAndCurrentUser(t *testing.T) {
	kv := testutil.NewTestKV(t)
	s := newSessionStore(t, kv)
	ctx := context.Background()

	user, err := s.SignUp(ctx, "a@x.com", "pw", "Ann")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if err := s.UpdateSubscription(ctx, user.ID, model.TierPro); err != nil {
				t.Errorf("update subscription: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.CurrentUser()
			s.Users()
		}
	}()
	wg.Wait()

	current, ok := s.CurrentUser()
	if !ok || current.Subscription == nil || current.Subscription.Status != model.TierPro {
		t.Fatalf("subscription lost after concurrent access: %+v", current.Subscription)
	}
}

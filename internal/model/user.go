package model

import "time"

// Subscription tier constants.
const (
	TierFree    = "free"
	TierPro     = "pro"
	TierPremium = "premium"
)

// Subscription holds a user's tier and its validity window.
type Subscription struct {
	Status     string    `json:"status"`
	ValidUntil time.Time `json:"validUntil"`
}

// User is a registered account. The email is the sign-in key and is
// compared as an exact string (case-sensitive).
//
// Password is stored and compared in plain text. This mirrors the observed
// behavior of the system this app replaces and is a documented insecurity;
// see DESIGN.md before reusing any of this for real credentials.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`

	// ResetToken and ResetExpiry are set while a password reset is
	// pending and cleared once the reset completes.
	ResetToken  string     `json:"resetToken,omitempty"`
	ResetExpiry *time.Time `json:"resetTokenExpiry,omitempty"`

	Subscription *Subscription `json:"subscription,omitempty"`
}

// ResetTokenValid reports whether the user has a pending reset token that
// matches and has not expired as of now.
func (u User) ResetTokenValid(token string, now time.Time) bool {
	if u.ResetToken == "" || token == "" || u.ResetToken != token {
		return false
	}
	return u.ResetExpiry != nil && u.ResetExpiry.After(now)
}

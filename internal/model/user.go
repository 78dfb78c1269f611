package model

import "time"

// User represents a registered account.
//
// Accounts come from two places: email/password registration and GitHub
// OAuth. Registered users have Username, Email and PasswordHash; GitHub users
// have GitHubID, Login and AvatarURL. Both kinds own journal entries by ID.
//
// WHY GitHubID *int64?
// Password users have no GitHub account. A nil pointer stores as NULL, which
// the UNIQUE constraint on github_id ignores, so any number of password users
// can coexist.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	GitHubID     *int64    `json:"githubId,omitempty"`
	Login        string    `json:"login,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DisplayName prefers the chosen username, then the GitHub login.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Login
}

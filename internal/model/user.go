// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt output (salt and cost are embedded in it).
// The `json:"-"` tag keeps it out of every API response, so a User can be
// encoded directly without a separate "public" struct.
//
// Email is stored lower-cased; uniqueness is enforced by the store.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public view of a User returned by the profile endpoint.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile strips timestamps and credentials from the user.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Session is the body returned by register and login: the user's public
// fields plus a bearer token.
type Session struct {
	Profile
	Token string `json:"token"`
}

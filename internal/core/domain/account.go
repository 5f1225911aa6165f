package domain

import "time"

// Account is a password-backed login held by the built-in identity provider.
type Account struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	PasswordHash  string    `json:"-"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Identity projects the account onto the principal handed to sessions.
func (a *Account) Identity() Identity {
	return Identity{
		UID:           a.ID,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoURL,
		EmailVerified: a.EmailVerified,
	}
}

package session

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("User already registered")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrInvalidToken       = errors.New("invalid or expired session")
)

// Metadata is the user-supplied part of an identity, copied into the
// profile on sign-in.
type Metadata struct {
	FullName  string `json:"full_name,omitempty"`
	Company   string `json:"company,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Identity is an authenticated principal as carried by a session token.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Metadata  Metadata  `json:"user_metadata"`
	TokenID   string    `json:"-"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Session struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
	Identity  *Identity `json:"user"`
}

type SignUpFields struct {
	FirstName string
	LastName  string
	Company   string
}

// ProfileUpdate holds the self-editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FullName  *string
	AvatarURL *string
}

type EventType string

const (
	EventSignedUp       EventType = "signed_up"
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventProfileUpdated EventType = "profile_updated"
)

type Event struct {
	Type   EventType
	UserID string
	At     time.Time
}

func maskEmail(email string) string {
	runes := []rune(email)
	atIdx := -1
	for i, r := range runes {
		if r == '@' {
			atIdx = i
			break
		}
	}
	if atIdx <= 0 {
		return "***"
	}
	prefix := string(runes[:atIdx])
	domain := string(runes[atIdx:])
	if len(prefix) <= 2 {
		return prefix + "***" + domain
	}
	return string(runes[0:2]) + "***" + domain
}

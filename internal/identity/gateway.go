// Package identity wraps the hosted user pool that owns accounts, passwords
// and group membership.
package identity

import (
	"context"
	"time"
)

// Attribute names sent on signup.
const (
	AttrEmail = "email"
	AttrRole  = "custom:role"
)

// Tokens are the credentials issued for an authenticated session.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	IDToken      string    `json:"id_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Empty reports whether no session credentials are held.
func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Session is an authenticated user as seen by the identity provider.
type Session struct {
	Username   string
	Attributes map[string]string
	Groups     []string
	Tokens     Tokens
}

// Email returns the email attribute, falling back to the username.
func (s *Session) Email() string {
	if s == nil {
		return ""
	}
	if email := s.Attributes[AttrEmail]; email != "" {
		return email
	}
	return s.Username
}

// SignUpResult reports what the provider did with a new account.
type SignUpResult struct {
	UserSub       string
	UserConfirmed bool
	Destination   string
}

// Gateway is the capability set required from the identity collaborator.
type Gateway interface {
	SignUp(ctx context.Context, username, password string, attributes map[string]string) (*SignUpResult, error)
	ConfirmSignUp(ctx context.Context, username, code string) error
	SignIn(ctx context.Context, username, password string) (*Session, error)
	SignOut(ctx context.Context, session *Session) error
	CurrentAuthenticatedUser(ctx context.Context, tokens Tokens) (*Session, error)
}

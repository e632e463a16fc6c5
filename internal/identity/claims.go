package identity

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// DefaultGroupsClaim is where the user pool places group membership.
const DefaultGroupsClaim = "cognito:groups"

// AccessClaims is the subset of the access token payload the app relies on.
type AccessClaims struct {
	Username  string
	Groups    []string
	ExpiresAt time.Time
}

// ClaimsReader extracts claims from provider-issued access tokens.
//
// Signatures are not checked here: every token read by the app was either
// just issued by the provider or is validated by a GetUser round-trip.
type ClaimsReader struct {
	groupsClaim string
	parser      *jwt.Parser
}

// NewClaimsReader builds a reader for the given groups claim name.
func NewClaimsReader(groupsClaim string) *ClaimsReader {
	if groupsClaim == "" {
		groupsClaim = DefaultGroupsClaim
	}
	return &ClaimsReader{groupsClaim: groupsClaim, parser: jwt.NewParser()}
}

// Read decodes the access token payload.
func (r *ClaimsReader) Read(accessToken string) (*AccessClaims, error) {
	if accessToken == "" {
		return nil, errors.New("empty access token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := r.parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	out := &AccessClaims{Groups: stringSlice(claims[r.groupsClaim])}
	if username, ok := claims["username"].(string); ok {
		out.Username = username
	} else if username, ok := claims["cognito:username"].(string); ok {
		out.Username = username
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vals
	case string:
		if vals == "" {
			return nil
		}
		return []string{vals}
	}
	return nil
}

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/upstream"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

const (
	cognitoContentType  = "application/x-amz-json-1.1"
	cognitoTargetPrefix = "AWSCognitoIdentityProviderService."

	// refreshLeeway renews tokens slightly before they expire.
	refreshLeeway = 30 * time.Second
)

// ErrNoSession is returned when there are no credentials to resume.
var ErrNoSession = apperrors.NewUnauthorized("no current user")

// CognitoConfig configures the user pool client.
type CognitoConfig struct {
	Endpoint    string
	ClientID    string
	GroupsClaim string
}

// CognitoGateway speaks the user pool JSON protocol.
type CognitoGateway struct {
	cfg    CognitoConfig
	client *upstream.Client
	claims *ClaimsReader
	logger *zap.Logger
	now    func() time.Time
}

// NewCognitoGateway builds the identity gateway.
func NewCognitoGateway(cfg CognitoConfig, client *upstream.Client, logger *zap.Logger) *CognitoGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CognitoGateway{
		cfg:    cfg,
		client: client,
		claims: NewClaimsReader(cfg.GroupsClaim),
		logger: logger,
		now:    time.Now,
	}
}

type attributeType struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type authenticationResult struct {
	AccessToken  string `json:"AccessToken"`
	IdToken      string `json:"IdToken"`
	RefreshToken string `json:"RefreshToken"`
	ExpiresIn    int    `json:"ExpiresIn"`
}

type signUpRequest struct {
	ClientID       string          `json:"ClientId"`
	Username       string          `json:"Username"`
	Password       string          `json:"Password"`
	UserAttributes []attributeType `json:"UserAttributes,omitempty"`
}

type signUpResponse struct {
	UserConfirmed       bool   `json:"UserConfirmed"`
	UserSub             string `json:"UserSub"`
	CodeDeliveryDetails struct {
		Destination string `json:"Destination"`
	} `json:"CodeDeliveryDetails"`
}

type confirmSignUpRequest struct {
	ClientID         string `json:"ClientId"`
	Username         string `json:"Username"`
	ConfirmationCode string `json:"ConfirmationCode"`
}

type initiateAuthRequest struct {
	AuthFlow       string            `json:"AuthFlow"`
	ClientID       string            `json:"ClientId"`
	AuthParameters map[string]string `json:"AuthParameters"`
}

type initiateAuthResponse struct {
	AuthenticationResult *authenticationResult `json:"AuthenticationResult"`
	ChallengeName        string                `json:"ChallengeName"`
}

type accessTokenRequest struct {
	AccessToken string `json:"AccessToken"`
}

type getUserResponse struct {
	Username       string          `json:"Username"`
	UserAttributes []attributeType `json:"UserAttributes"`
}

type cognitoError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// SignUp registers a new, unconfirmed account.
func (g *CognitoGateway) SignUp(ctx context.Context, username, password string, attributes map[string]string) (*SignUpResult, error) {
	req := signUpRequest{
		ClientID:       g.cfg.ClientID,
		Username:       username,
		Password:       password,
		UserAttributes: toAttributeTypes(attributes),
	}
	var resp signUpResponse
	if err := g.call(ctx, "SignUp", req, &resp); err != nil {
		return nil, err
	}
	return &SignUpResult{
		UserSub:       resp.UserSub,
		UserConfirmed: resp.UserConfirmed,
		Destination:   resp.CodeDeliveryDetails.Destination,
	}, nil
}

// ConfirmSignUp finalizes an account with the emailed verification code.
func (g *CognitoGateway) ConfirmSignUp(ctx context.Context, username, code string) error {
	req := confirmSignUpRequest{ClientID: g.cfg.ClientID, Username: username, ConfirmationCode: code}
	return g.call(ctx, "ConfirmSignUp", req, nil)
}

// SignIn authenticates with username and password.
func (g *CognitoGateway) SignIn(ctx context.Context, username, password string) (*Session, error) {
	req := initiateAuthRequest{
		AuthFlow: "USER_PASSWORD_AUTH",
		ClientID: g.cfg.ClientID,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	}
	tokens, err := g.initiateAuth(ctx, req, "")
	if err != nil {
		return nil, err
	}
	return g.sessionFor(ctx, tokens)
}

// SignOut revokes every token issued for the session.
func (g *CognitoGateway) SignOut(ctx context.Context, session *Session) error {
	if session == nil || session.Tokens.AccessToken == "" {
		return nil
	}
	return g.call(ctx, "GlobalSignOut", accessTokenRequest{AccessToken: session.Tokens.AccessToken}, nil)
}

// CurrentAuthenticatedUser resumes a session from stored tokens, refreshing
// them first when the access token is about to expire.
func (g *CognitoGateway) CurrentAuthenticatedUser(ctx context.Context, tokens Tokens) (*Session, error) {
	if tokens.Empty() {
		return nil, ErrNoSession
	}
	if tokens.AccessToken == "" || g.expiring(tokens) {
		if tokens.RefreshToken == "" {
			return nil, ErrNoSession
		}
		refreshed, err := g.refresh(ctx, tokens.RefreshToken)
		if err != nil {
			return nil, err
		}
		tokens = refreshed
	}
	return g.sessionFor(ctx, tokens)
}

func (g *CognitoGateway) expiring(tokens Tokens) bool {
	if tokens.ExpiresAt.IsZero() {
		return false
	}
	return g.now().Add(refreshLeeway).After(tokens.ExpiresAt)
}

func (g *CognitoGateway) refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	req := initiateAuthRequest{
		AuthFlow:       "REFRESH_TOKEN_AUTH",
		ClientID:       g.cfg.ClientID,
		AuthParameters: map[string]string{"REFRESH_TOKEN": refreshToken},
	}
	g.logger.Debug("refreshing identity tokens")
	return g.initiateAuth(ctx, req, refreshToken)
}

func (g *CognitoGateway) initiateAuth(ctx context.Context, req initiateAuthRequest, refreshToken string) (Tokens, error) {
	var resp initiateAuthResponse
	if err := g.call(ctx, "InitiateAuth", req, &resp); err != nil {
		return Tokens{}, err
	}
	if resp.AuthenticationResult == nil {
		if resp.ChallengeName != "" {
			return Tokens{}, apperrors.NewUnauthorized(fmt.Sprintf("additional challenge required: %s", resp.ChallengeName))
		}
		return Tokens{}, apperrors.NewUnauthorized("authentication failed")
	}
	result := resp.AuthenticationResult
	tokens := Tokens{
		AccessToken:  result.AccessToken,
		IDToken:      result.IdToken,
		RefreshToken: result.RefreshToken,
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	if result.ExpiresIn > 0 {
		tokens.ExpiresAt = g.now().Add(time.Duration(result.ExpiresIn) * time.Second)
	}
	return tokens, nil
}

// sessionFor confirms the access token with the provider and combines the
// returned attributes with the token's group claims.
func (g *CognitoGateway) sessionFor(ctx context.Context, tokens Tokens) (*Session, error) {
	var user getUserResponse
	if err := g.call(ctx, "GetUser", accessTokenRequest{AccessToken: tokens.AccessToken}, &user); err != nil {
		return nil, err
	}
	claims, err := g.claims.Read(tokens.AccessToken)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid access token")
	}
	if tokens.ExpiresAt.IsZero() {
		tokens.ExpiresAt = claims.ExpiresAt
	}

	attrs := make(map[string]string, len(user.UserAttributes))
	for _, a := range user.UserAttributes {
		attrs[a.Name] = a.Value
	}
	username := user.Username
	if username == "" {
		username = claims.Username
	}
	return &Session{
		Username:   username,
		Attributes: attrs,
		Groups:     claims.Groups,
		Tokens:     tokens,
	}, nil
}

func (g *CognitoGateway) call(ctx context.Context, op string, in, out any) error {
	resp, err := g.client.Post(ctx, upstream.Request{
		URL:         g.cfg.Endpoint,
		ContentType: cognitoContentType,
		Headers:     map[string]string{"X-Amz-Target": cognitoTargetPrefix + op},
		Body:        in,
	})
	if err != nil {
		g.logger.Warn("identity call failed", zap.String("op", op), zap.Error(err))
		return apperrors.NewUpstreamError("identity service unavailable", err)
	}
	if !resp.OK() {
		return mapCognitoError(resp.Status, resp.Body)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return apperrors.NewUpstreamError("unexpected identity service response", err)
	}
	return nil
}

func mapCognitoError(status int, body []byte) error {
	var ce cognitoError
	if err := json.Unmarshal(body, &ce); err != nil || ce.Type == "" {
		return apperrors.NewUpstreamError(
			fmt.Sprintf("identity service returned %d", status),
			errors.New(strings.TrimSpace(string(body))),
		)
	}
	kind := ce.Type
	if i := strings.LastIndex(kind, "#"); i >= 0 {
		kind = kind[i+1:]
	}
	msg := ce.Message
	if msg == "" {
		msg = kind
	}

	switch kind {
	case "NotAuthorizedException", "UserNotFoundException":
		return apperrors.NewDomainError(apperrors.CodeUnauthorized, msg, http.StatusUnauthorized, map[string]any{"type": kind})
	case "UserNotConfirmedException":
		return apperrors.NewDomainError(apperrors.CodeForbidden, msg, http.StatusForbidden, map[string]any{"type": kind})
	case "UsernameExistsException", "AliasExistsException":
		return apperrors.NewConflict(msg, map[string]any{"type": kind})
	case "CodeMismatchException", "ExpiredCodeException", "InvalidPasswordException",
		"InvalidParameterException", "CodeDeliveryFailureException":
		return apperrors.NewValidationError(msg, map[string]any{"type": kind})
	case "TooManyRequestsException", "LimitExceededException", "TooManyFailedAttemptsException":
		return apperrors.NewDomainError("RATE_LIMITED", msg, http.StatusTooManyRequests, map[string]any{"type": kind})
	}
	return apperrors.NewUpstreamError(msg, errors.New(kind))
}

func toAttributeTypes(attrs map[string]string) []attributeType {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]attributeType, 0, len(keys))
	for _, k := range keys {
		out = append(out, attributeType{Name: k, Value: attrs[k]})
	}
	return out
}

package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/config"
	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/session"
	"github.com/spec-kit/eventflow/internal/shell"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal is the browser session behind a request.
type Principal struct {
	SessionID string
	Shell     *shell.Shell

	renew bool
}

// RenewSession asks the middleware to move the session to a fresh id once
// the handler returns. Call it whenever the signed-in user changes.
func (p *Principal) RenewSession() {
	if p != nil {
		p.renew = true
	}
}

// User returns the signed-in user of the session, or nil.
func (p *Principal) User() *domain.User {
	if p == nil || p.Shell == nil {
		return nil
	}
	return p.Shell.Snapshot().CurrentUser
}

// SessionMiddleware binds every request to the shell of its session cookie,
// issuing a cookie on first contact and persisting the session afterwards.
type SessionMiddleware struct {
	shells *shell.Registry
	cfg    config.SessionConfig
	logger *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(shells *shell.Registry, cfg config.SessionConfig, logger *zap.Logger) *SessionMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionMiddleware{shells: shells, cfg: cfg, logger: logger}
}

// Handle loads the principal for the request.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	id := c.Cookies(m.cfg.CookieName)
	if !session.ValidID(id) {
		id = session.NewID()
	}

	sh, err := m.shells.Get(c.UserContext(), id)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	m.setCookie(c, id)
	principal := &Principal{SessionID: id, Shell: sh}
	c.Locals(principalKey, principal)

	err = c.Next()

	if principal.renew {
		newID, rotateErr := m.shells.Rotate(c.UserContext(), id, sh)
		if rotateErr != nil {
			m.logger.Warn("old session not removed", zap.String("session", id), zap.Error(rotateErr))
		}
		id = newID
		principal.SessionID = id
		m.setCookie(c, id)
	}

	if saveErr := m.shells.Save(c.UserContext(), id, sh); saveErr != nil {
		m.logger.Warn("session not persisted", zap.String("session", id), zap.Error(saveErr))
	}
	return err
}

func (m *SessionMiddleware) setCookie(c *fiber.Ctx, id string) {
	c.Cookie(&fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(m.cfg.TTL()),
		HTTPOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// PrincipalFromContext retrieves the session principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eventflow/internal/config"
	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/identity"
	"github.com/spec-kit/eventflow/internal/session"
	"github.com/spec-kit/eventflow/internal/shell"
	"github.com/spec-kit/eventflow/internal/shell/shelltest"
)

type fixture struct {
	app      *fiber.App
	registry *shell.Registry
	redis    *shelltest.Redis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	idp := shelltest.NewIdentity()
	idp.AddUser("org@x.com", "pw", identity.GroupOrganizers)

	redis := shelltest.NewRedis()
	store := session.NewStore(redis, "s:", time.Hour)
	registry := shell.NewRegistry(store, shell.Dependencies{Identity: idp, Data: &shelltest.Data{}}, time.Hour)
	mw := NewSessionMiddleware(registry, config.SessionConfig{CookieName: "sid", TTLMinutes: 60}, nil)

	app := fiber.New()
	app.Use(mw.Handle)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		require.True(t, ok)
		if u := p.User(); u != nil {
			return c.SendString(u.Username)
		}
		return c.SendString("anonymous")
	})
	app.Post("/login", func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		if err := p.Shell.Login(c.UserContext(), "org@x.com", "pw"); err != nil {
			return err
		}
		p.RenewSession()
		return nil
	})
	app.Get("/organizers", RequireRole(domain.RoleOrganizer, domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/admins", RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/members", RequireUser(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return &fixture{app: app, registry: registry, redis: redis}
}

func (f *fixture) do(t *testing.T, method, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			return c.Value
		}
	}
	return ""
}

func TestSessionMiddlewareIssuesCookie(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/whoami", "")
	sid := sessionCookie(resp)
	require.True(t, session.ValidID(sid))
	assert.Equal(t, 1, f.registry.Len())
	assert.Contains(t, f.redis.Data, "s:"+sid, "session is persisted after the request")

	resp = f.do(t, http.MethodGet, "/whoami", sid)
	assert.Equal(t, sid, sessionCookie(resp))
	assert.Equal(t, 1, f.registry.Len())
}

func TestSessionMiddlewareReplacesForgedCookie(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/whoami", "../../admin")
	sid := sessionCookie(resp)
	assert.NotEqual(t, "../../admin", sid)
	assert.True(t, session.ValidID(sid))
}

func TestRoleGuards(t *testing.T) {
	f := newFixture(t)
	sid := sessionCookie(f.do(t, http.MethodGet, "/whoami", ""))

	assert.Equal(t, fiber.StatusUnauthorized, f.do(t, http.MethodGet, "/members", sid).StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, f.do(t, http.MethodGet, "/organizers", sid).StatusCode)

	resp := f.do(t, http.MethodPost, "/login", sid)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	sid = sessionCookie(resp)

	assert.Equal(t, fiber.StatusOK, f.do(t, http.MethodGet, "/members", sid).StatusCode)
	assert.Equal(t, fiber.StatusOK, f.do(t, http.MethodGet, "/organizers", sid).StatusCode)
	assert.Equal(t, fiber.StatusForbidden, f.do(t, http.MethodGet, "/admins", sid).StatusCode)
}

func TestSessionSurvivesRegistryRestart(t *testing.T) {
	f := newFixture(t)
	sid := sessionCookie(f.do(t, http.MethodGet, "/whoami", ""))
	sid = sessionCookie(f.do(t, http.MethodPost, "/login", sid))

	// Drop every live shell; the next request re-boots from redis.
	assert.Equal(t, 1, f.registry.Sweep(time.Now().Add(2*time.Hour)))

	resp := f.do(t, http.MethodGet, "/whoami", sid)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "org@x.com", string(body))
}

func TestSessionMiddlewareRenewsIDOnLogin(t *testing.T) {
	f := newFixture(t)
	planted := sessionCookie(f.do(t, http.MethodGet, "/whoami", ""))
	require.Contains(t, f.redis.Data, "s:"+planted)

	sid := sessionCookie(f.do(t, http.MethodPost, "/login", planted))
	require.True(t, session.ValidID(sid))
	assert.NotEqual(t, planted, sid)
	assert.NotContains(t, f.redis.Data, "s:"+planted)
	assert.Contains(t, f.redis.Data, "s:"+sid)
	assert.Equal(t, 1, f.registry.Len())

	body, err := io.ReadAll(f.do(t, http.MethodGet, "/whoami", sid).Body)
	require.NoError(t, err)
	assert.Equal(t, "org@x.com", string(body))

	body, err = io.ReadAll(f.do(t, http.MethodGet, "/whoami", planted).Body)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", string(body), "the old id no longer reaches the signed-in shell")
}

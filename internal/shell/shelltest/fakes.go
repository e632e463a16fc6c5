// Package shelltest provides in-memory identity, data and redis doubles for
// tests of the shell and its transports.
package shelltest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/eventflow/internal/data"
	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/identity"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

type account struct {
	password string
	groups   []string
}

// Identity is an in-memory user pool.
type Identity struct {
	mu         sync.Mutex
	accounts   map[string]account
	SignUps    []map[string]string
	Confirmed  []string
	SignOuts   int
	SignOutErr error
	ResumeErr  error
	Resumes    int
}

// NewIdentity returns an empty pool.
func NewIdentity() *Identity {
	return &Identity{accounts: map[string]account{}}
}

// AddUser registers a confirmed account.
func (f *Identity) AddUser(username, password string, groups ...string) {
	f.accounts[username] = account{password: password, groups: groups}
}

func (f *Identity) SignUp(_ context.Context, username, password string, attrs map[string]string) (*identity.SignUpResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[username]; ok {
		return nil, apperrors.NewConflict("User already exists", nil)
	}
	f.accounts[username] = account{password: password}
	f.SignUps = append(f.SignUps, attrs)
	return &identity.SignUpResult{UserSub: "sub-" + username}, nil
}

func (f *Identity) ConfirmSignUp(_ context.Context, username, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code != "123456" {
		return apperrors.NewValidationError("Invalid verification code provided, please try again.", nil)
	}
	f.Confirmed = append(f.Confirmed, username)
	return nil
}

func (f *Identity) SignIn(_ context.Context, username, password string) (*identity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[username]
	if !ok || acct.password != password {
		return nil, apperrors.NewUnauthorized("Incorrect username or password.")
	}
	return f.sessionFor(username, acct), nil
}

func (f *Identity) SignOut(context.Context, *identity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignOuts++
	return f.SignOutErr
}

func (f *Identity) CurrentAuthenticatedUser(_ context.Context, tokens identity.Tokens) (*identity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Resumes++
	if f.ResumeErr != nil {
		return nil, f.ResumeErr
	}
	username := tokens.AccessToken
	acct, ok := f.accounts[username]
	if !ok {
		return nil, apperrors.NewUnauthorized("Access Token has been revoked")
	}
	return f.sessionFor(username, acct), nil
}

func (f *Identity) sessionFor(username string, acct account) *identity.Session {
	return &identity.Session{
		Username:   username,
		Attributes: map[string]string{identity.AttrEmail: username},
		Groups:     acct.groups,
		Tokens: identity.Tokens{
			AccessToken:  username,
			RefreshToken: "refresh-" + username,
			ExpiresAt:    time.Now().Add(time.Hour),
		},
	}
}

// Data is an in-memory data store that records the access token of every call.
type Data struct {
	mu            sync.Mutex
	seq           int
	Events        []domain.Event
	Registrations []domain.Registration
	Tickets       []domain.Ticket
	Tokens        []string

	FailCreate error
	FailList   error
	FailLink   error
}

func (f *Data) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *Data) seen(ctx context.Context) {
	token, _ := data.AccessTokenFrom(ctx)
	f.Tokens = append(f.Tokens, token)
}

func (f *Data) ListEvents(ctx context.Context) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen(ctx)
	if f.FailList != nil {
		return nil, f.FailList
	}
	return append([]domain.Event(nil), f.Events...), nil
}

func (f *Data) ListRegistrations(ctx context.Context) ([]domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen(ctx)
	if f.FailList != nil {
		return nil, f.FailList
	}
	return append([]domain.Registration(nil), f.Registrations...), nil
}

func (f *Data) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen(ctx)
	if f.FailList != nil {
		return nil, f.FailList
	}
	return append([]domain.Ticket(nil), f.Tickets...), nil
}

func (f *Data) CreateEvent(ctx context.Context, in data.EventInput) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen(ctx)
	if f.FailCreate != nil {
		return nil, f.FailCreate
	}
	price := in.Price
	e := domain.Event{
		ID: f.nextID("e"), Name: in.Name, Date: in.Date, Location: in.Location,
		Description: in.Description, Price: &price, OrganizerID: in.OrganizerID,
	}
	f.Events = append(f.Events, e)
	return &e, nil
}

func (f *Data) CreateRegistration(ctx context.Context, in data.RegistrationInput) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen(ctx)
	if f.FailCreate != nil {
		return nil, f.FailCreate
	}
	r := domain.Registration{
		ID: f.nextID("r"), EventID: in.EventID, UserID: in.UserID,
		RegistrationDate: in.RegistrationDate, TicketID: in.TicketID,
	}
	f.Registrations = append(f.Registrations, r)
	return &r, nil
}

func (f *Data) CreateTicket(ctx context.Context, in data.TicketInput) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen(ctx)
	if f.FailCreate != nil {
		return nil, f.FailCreate
	}
	t := domain.Ticket{ID: f.nextID("t"), QRCodeID: in.QRCodeID, Status: in.Status, RegistrationID: in.RegistrationID}
	f.Tickets = append(f.Tickets, t)
	return &t, nil
}

func (f *Data) UpdateTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen(ctx)
	for i := range f.Tickets {
		if f.Tickets[i].ID == ticketID {
			f.Tickets[i].Status = status
			t := f.Tickets[i]
			return &t, nil
		}
	}
	return nil, apperrors.NewUpstreamError("ticket "+ticketID+" not found", nil)
}

func (f *Data) LinkRegistrationTicket(ctx context.Context, registrationID, ticketID string) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen(ctx)
	if f.FailLink != nil {
		return nil, f.FailLink
	}
	for i := range f.Registrations {
		if f.Registrations[i].ID == registrationID {
			id := ticketID
			f.Registrations[i].TicketID = &id
			r := f.Registrations[i]
			return &r, nil
		}
	}
	return nil, apperrors.NewNotFound("registration", nil)
}

// Redis implements session.Client over a map.
type Redis struct {
	mu   sync.Mutex
	Data map[string]string
}

// NewRedis returns an empty store.
func NewRedis() *Redis {
	return &Redis{Data: map[string]string{}}
}

func (m *Redis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (m *Redis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (m *Redis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.Data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

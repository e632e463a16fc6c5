// Package shell holds the per-session application state and orchestrates the
// identity and data gateways on behalf of the views.
package shell

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/data"
	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/events"
	"github.com/spec-kit/eventflow/internal/identity"
	"github.com/spec-kit/eventflow/internal/session"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

// registrationDateLayout matches the millisecond ISO timestamps already stored
// by the hosted data API.
const registrationDateLayout = "2006-01-02T15:04:05.000Z07:00"

// tokenRefreshLeeway renews tokens before data calls when they are about to expire.
const tokenRefreshLeeway = 30 * time.Second

// NoticeKind classifies a pending notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-shot message shown on the next render.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// State is the snapshot the views render from.
type State struct {
	CurrentUser         *domain.User
	CurrentPage         domain.Page
	Events              []domain.Event
	Registrations       []domain.Registration
	Tickets             []domain.Ticket
	Notice              *Notice
	PendingConfirmation string
}

// EventDraft is the raw Add Event form.
type EventDraft struct {
	Name        string
	Date        string
	Location    string
	Description string
	Price       string
	OrganizerID string
}

// Dependencies bundles the collaborators of a shell.
type Dependencies struct {
	Identity   identity.Gateway
	Data       data.Gateway
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
	NewQRCode  func() string
}

// Shell is the application state of one browser session. Operations are
// serialized.
type Shell struct {
	mu sync.Mutex

	identity   identity.Gateway
	data       data.Gateway
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
	newQRCode  func() string

	session *identity.Session
	state   State
}

// New builds an unbooted shell on the home page.
func New(deps Dependencies) *Shell {
	s := &Shell{
		identity:   deps.Identity,
		data:       deps.Data,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Now,
		newQRCode:  deps.NewQRCode,
		state:      State{CurrentPage: domain.PageHome},
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newQRCode == nil {
		s.newQRCode = uuid.NewString
	}
	return s
}

// Boot resumes an existing session from tokens and loads the collections.
// A missing or rejected session leaves the shell anonymous on the home page.
func (s *Shell) Boot(ctx context.Context, tokens identity.Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	s.state.CurrentUser = nil
	s.state.CurrentPage = domain.PageHome

	if !tokens.Empty() {
		sess, err := s.identity.CurrentAuthenticatedUser(ctx, tokens)
		if err != nil {
			s.logger.Debug("no authenticated user", zap.Error(err))
		} else {
			s.establish(sess)
		}
	}

	s.refreshEvents(ctx)
	if s.state.CurrentUser != nil {
		s.refreshRegistrations(ctx)
		s.refreshTickets(ctx)
	}
	return nil
}

// Resume applies the page and pending confirmation saved for the session.
func (s *Shell) Resume(rec session.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.PendingConfirmation = rec.PendingConfirmation
	if rec.Page != "" {
		s.state.CurrentPage = rec.Page
	}
}

// Login authenticates and moves to the dashboard for the user's role. On
// failure nothing changes and the error is returned.
func (s *Shell) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.establish(sess)
	s.refreshRegistrations(ctx)
	s.refreshTickets(ctx)
	s.notify(NoticeSuccess, "Login successful!")
	return nil
}

// Signup creates an unconfirmed account. The email doubles as username.
func (s *Shell) Signup(ctx context.Context, email, password string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role == "" {
		role = domain.RoleAttendee
	}
	if !role.Valid() {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	_, err := s.identity.SignUp(ctx, email, password, map[string]string{
		identity.AttrEmail: email,
		identity.AttrRole:  string(role),
	})
	if err != nil {
		return err
	}
	s.state.PendingConfirmation = email
	s.notify(NoticeSuccess, "Verification code sent to your email. Please verify your account.")
	return nil
}

// Confirm verifies a signup code and sends the user to the login page.
func (s *Shell) Confirm(ctx context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if email == "" {
		email = s.state.PendingConfirmation
	}
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}
	if err := s.identity.ConfirmSignUp(ctx, email, code); err != nil {
		return err
	}
	s.state.PendingConfirmation = ""
	s.state.CurrentPage = domain.PageLogin
	s.notify(NoticeSuccess, "Account confirmed successfully! You can now log in.")
	return nil
}

// SignOut ends the session. Local state is cleared even when the provider
// call fails; the failure is reported as a notice and returned.
func (s *Shell) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.identity.SignOut(ctx, s.session)

	s.session = nil
	s.state.CurrentUser = nil
	s.state.CurrentPage = domain.PageHome
	s.state.Registrations = nil
	s.state.Tickets = nil

	if err != nil {
		s.notify(NoticeError, "Logout failed: "+apperrors.UserMessage(err))
		return err
	}
	s.notify(NoticeSuccess, "You have been logged out.")
	return nil
}

// Navigate switches the current page.
func (s *Shell) Navigate(page domain.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentPage = page
}

// AddEvent creates an event and reloads the event list.
func (s *Shell) AddEvent(ctx context.Context, draft EventDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const failure = "Failed to add event: "

	user := s.state.CurrentUser
	if user == nil || !user.Role.CanManageEvents() {
		return s.fail(failure, apperrors.NewForbidden("only organizers and admins can add events"))
	}
	price, err := ParsePrice(draft.Price)
	if err != nil {
		return s.fail(failure, err)
	}
	organizer := strings.TrimSpace(draft.OrganizerID)
	if organizer == "" {
		organizer = user.Username
	}

	ctx = s.dataContext(ctx)
	event, err := s.data.CreateEvent(ctx, data.EventInput{
		Name:        strings.TrimSpace(draft.Name),
		Date:        strings.TrimSpace(draft.Date),
		Location:    strings.TrimSpace(draft.Location),
		Description: draft.Description,
		Price:       price,
		OrganizerID: organizer,
	})
	if err != nil {
		return s.fail(failure, err)
	}
	s.refreshEvents(ctx)
	s.publish(ctx, events.EventEventCreated, event.ID, events.EventCreatedPayload{
		Name:  event.Name,
		Date:  event.Date,
		Price: event.PriceOrZero(),
	})
	s.notify(NoticeSuccess, "Event added successfully!")
	return nil
}

// RegisterForEvent records a registration without a ticket and reloads
// registrations. Repeat registrations are allowed.
func (s *Shell) RegisterForEvent(ctx context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const failure = "Failed to register: "

	if s.state.CurrentUser == nil {
		return s.fail(failure, apperrors.NewUnauthorized("log in to register for events"))
	}
	if eventID == "" {
		return s.fail(failure, apperrors.NewValidationError("event id is required", nil))
	}
	if userID == "" {
		userID = s.state.CurrentUser.Username
	}

	ctx = s.dataContext(ctx)
	reg, err := s.data.CreateRegistration(ctx, data.RegistrationInput{
		EventID:          eventID,
		UserID:           userID,
		RegistrationDate: s.now().UTC().Format(registrationDateLayout),
		TicketID:         nil,
	})
	if err != nil {
		return s.fail(failure, err)
	}
	s.refreshRegistrations(ctx)
	s.publish(ctx, events.EventRegistrationCreated, reg.ID, events.RegistrationCreatedPayload{
		EventID: eventID,
		UserID:  userID,
	})
	s.notify(NoticeSuccess, "Successfully registered for the event!")
	return nil
}

// IssueTicket creates an ISSUED ticket for a registration and links it back
// to the registration. An empty qrCodeID is generated.
func (s *Shell) IssueTicket(ctx context.Context, registrationID, qrCodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const failure = "Failed to generate ticket: "

	if !s.isAdmin() {
		return s.fail(failure, apperrors.NewForbidden("only admins can issue tickets"))
	}
	if registrationID == "" {
		return s.fail(failure, apperrors.NewValidationError("registration id is required", nil))
	}
	if strings.TrimSpace(qrCodeID) == "" {
		qrCodeID = s.newQRCode()
	}

	ctx = s.dataContext(ctx)
	ticket, err := s.data.CreateTicket(ctx, data.TicketInput{
		QRCodeID:       qrCodeID,
		Status:         domain.TicketStatusIssued,
		RegistrationID: registrationID,
	})
	if err != nil {
		return s.fail(failure, err)
	}

	_, linkErr := s.data.LinkRegistrationTicket(ctx, registrationID, ticket.ID)
	s.refreshTickets(ctx)
	s.refreshRegistrations(ctx)
	s.publish(ctx, events.EventTicketIssued, ticket.ID, events.TicketIssuedPayload{
		RegistrationID: registrationID,
		QRCodeID:       ticket.QRCodeID,
		Linked:         linkErr == nil,
	})
	if linkErr != nil {
		s.logger.Warn("ticket not linked to registration",
			zap.String("ticket_id", ticket.ID),
			zap.String("registration_id", registrationID),
			zap.Error(linkErr))
		return s.fail("Ticket generated, but linking it to the registration failed: ", linkErr)
	}
	s.notify(NoticeSuccess, "Ticket generated!")
	return nil
}

// MarkTicketScanned sets a ticket to SCANNED and reloads tickets. Scanning an
// already scanned ticket succeeds.
func (s *Shell) MarkTicketScanned(ctx context.Context, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const failure = "Failed to mark ticket scanned: "

	if !s.isAdmin() {
		return s.fail(failure, apperrors.NewForbidden("only admins can scan tickets"))
	}
	if ticketID == "" {
		return s.fail(failure, apperrors.NewValidationError("ticket id is required", nil))
	}

	ctx = s.dataContext(ctx)
	if _, err := s.data.UpdateTicketStatus(ctx, ticketID, domain.TicketStatusScanned); err != nil {
		return s.fail(failure, err)
	}
	s.refreshTickets(ctx)
	s.publish(ctx, events.EventTicketScanned, ticketID, events.TicketScannedPayload{Status: domain.TicketStatusScanned})
	s.notify(NoticeSuccess, "Ticket marked as scanned!")
	return nil
}

// Notify sets the pending notice.
func (s *Shell) Notify(kind NoticeKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify(kind, message)
}

// Snapshot returns a deep copy of the state.
func (s *Shell) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// TakeNotice returns and clears the pending notice.
func (s *Shell) TakeNotice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.state.Notice
	s.state.Notice = nil
	return n
}

// Tokens returns the credentials of the current session, if any.
func (s *Shell) Tokens() identity.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return identity.Tokens{}
	}
	return s.session.Tokens
}

// Record returns what must be persisted to rebuild the shell.
func (s *Shell) Record() session.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := session.Record{
		Page:                s.state.CurrentPage,
		PendingConfirmation: s.state.PendingConfirmation,
	}
	if s.session != nil {
		rec.Tokens = s.session.Tokens
	}
	return rec
}

// ParsePrice reads a form price. Blank, unparseable and non-finite values are
// free; negative prices are rejected.
func ParsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, nil
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, nil
	}
	if price < 0 {
		return 0, apperrors.NewValidationError("price cannot be negative", map[string]any{"price": raw})
	}
	return price, nil
}

func (s *Shell) establish(sess *identity.Session) {
	s.session = sess
	user := identity.UserFromSession(sess)
	s.state.CurrentUser = user
	s.state.CurrentPage = domain.DashboardFor(user.Role)
}

func (s *Shell) isAdmin() bool {
	return s.state.CurrentUser != nil && s.state.CurrentUser.Role == domain.RoleAdmin
}

// dataContext attaches the session access token, renewing it first when it
// is about to expire. A renewal re-reads the role from the fresh group
// claims; the current page is kept and the view router guards it.
func (s *Shell) dataContext(ctx context.Context) context.Context {
	if s.session == nil {
		return ctx
	}
	tokens := s.session.Tokens
	if !tokens.ExpiresAt.IsZero() && s.now().Add(tokenRefreshLeeway).After(tokens.ExpiresAt) {
		refreshed, err := s.identity.CurrentAuthenticatedUser(ctx, tokens)
		if err != nil {
			s.logger.Warn("token refresh failed", zap.Error(err))
		} else {
			s.session = refreshed
			s.state.CurrentUser = identity.UserFromSession(refreshed)
			tokens = refreshed.Tokens
		}
	}
	return data.WithAccessToken(ctx, tokens.AccessToken)
}

func (s *Shell) refreshEvents(ctx context.Context) {
	list, err := s.data.ListEvents(s.dataContext(ctx))
	if err != nil {
		s.logger.Warn("fetch events failed", zap.Error(err))
		return
	}
	s.state.Events = list
}

func (s *Shell) refreshRegistrations(ctx context.Context) {
	list, err := s.data.ListRegistrations(s.dataContext(ctx))
	if err != nil {
		s.logger.Warn("fetch registrations failed", zap.Error(err))
		return
	}
	s.state.Registrations = list
}

func (s *Shell) refreshTickets(ctx context.Context) {
	list, err := s.data.ListTickets(s.dataContext(ctx))
	if err != nil {
		s.logger.Warn("fetch tickets failed", zap.Error(err))
		return
	}
	s.state.Tickets = list
}

func (s *Shell) publish(ctx context.Context, eventType events.EventType, subjectID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	var actor events.Actor
	if u := s.state.CurrentUser; u != nil {
		actor = events.Actor{Username: u.Username, Role: u.Role}
	}
	if err := s.dispatcher.Publish(ctx, events.New(eventType, subjectID, actor, payload)); err != nil {
		s.logger.Warn("activity handler failed", zap.String("type", string(eventType)), zap.Error(err))
	}
}

func (s *Shell) notify(kind NoticeKind, message string) {
	s.state.Notice = &Notice{Kind: kind, Message: message}
}

// fail records an error notice and returns err.
func (s *Shell) fail(prefix string, err error) error {
	s.notify(NoticeError, prefix+apperrors.UserMessage(err))
	return err
}

func (st State) clone() State {
	out := st
	if st.CurrentUser != nil {
		u := *st.CurrentUser
		out.CurrentUser = &u
	}
	if st.Notice != nil {
		n := *st.Notice
		out.Notice = &n
	}
	if st.Events != nil {
		out.Events = make([]domain.Event, len(st.Events))
		for i, e := range st.Events {
			if e.Price != nil {
				p := *e.Price
				e.Price = &p
			}
			out.Events[i] = e
		}
	}
	if st.Registrations != nil {
		out.Registrations = make([]domain.Registration, len(st.Registrations))
		for i, r := range st.Registrations {
			if r.TicketID != nil {
				id := *r.TicketID
				r.TicketID = &id
			}
			out.Registrations[i] = r
		}
	}
	if st.Tickets != nil {
		out.Tickets = append([]domain.Ticket(nil), st.Tickets...)
	}
	return out
}

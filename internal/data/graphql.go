package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/upstream"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

const (
	eventFields        = "id name date location description organizerId price"
	registrationFields = "id eventId userId registrationDate ticketId"
	ticketFields       = "id qrCodeId status registrationId"
)

var (
	listEventsQuery = `query ListEvents($nextToken: String) {
  listEvents(nextToken: $nextToken) { items { ` + eventFields + ` } nextToken }
}`
	listRegistrationsQuery = `query ListRegistrations($nextToken: String) {
  listRegistrations(nextToken: $nextToken) { items { ` + registrationFields + ` } nextToken }
}`
	listTicketsQuery = `query ListTickets($nextToken: String) {
  listTickets(nextToken: $nextToken) { items { ` + ticketFields + ` } nextToken }
}`
	createEventMutation = `mutation CreateEvent($input: CreateEventInput!) {
  createEvent(input: $input) { ` + eventFields + ` }
}`
	createRegistrationMutation = `mutation CreateRegistration($input: CreateRegistrationInput!) {
  createRegistration(input: $input) { ` + registrationFields + ` }
}`
	createTicketMutation = `mutation CreateTicket($input: CreateTicketInput!) {
  createTicket(input: $input) { ` + ticketFields + ` }
}`
	updateTicketMutation = `mutation UpdateTicket($input: UpdateTicketInput!) {
  updateTicket(input: $input) { ` + ticketFields + ` }
}`
	updateRegistrationMutation = `mutation UpdateRegistration($input: UpdateRegistrationInput!) {
  updateRegistration(input: $input) { ` + registrationFields + ` }
}`
)

// maxPages bounds nextToken following for a single list call.
const maxPages = 50

// GraphQLConfig configures the hosted graph API.
type GraphQLConfig struct {
	Endpoint string
	APIKey   string
}

// GraphQLGateway executes queries and mutations against a hosted GraphQL API.
type GraphQLGateway struct {
	cfg    GraphQLConfig
	client *upstream.Client
	logger *zap.Logger
}

// NewGraphQLGateway builds the gateway.
func NewGraphQLGateway(cfg GraphQLConfig, client *upstream.Client, logger *zap.Logger) *GraphQLGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphQLGateway{cfg: cfg, client: client, logger: logger}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []graphQLError             `json:"errors"`
}

type page[T any] struct {
	Items     []T     `json:"items"`
	NextToken *string `json:"nextToken"`
}

func (g *GraphQLGateway) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return listAll[domain.Event](ctx, g, "listEvents", listEventsQuery)
}

func (g *GraphQLGateway) ListRegistrations(ctx context.Context) ([]domain.Registration, error) {
	return listAll[domain.Registration](ctx, g, "listRegistrations", listRegistrationsQuery)
}

func (g *GraphQLGateway) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	return listAll[domain.Ticket](ctx, g, "listTickets", listTicketsQuery)
}

func (g *GraphQLGateway) CreateEvent(ctx context.Context, in EventInput) (*domain.Event, error) {
	var out domain.Event
	if err := g.mutate(ctx, "createEvent", createEventMutation, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *GraphQLGateway) CreateRegistration(ctx context.Context, in RegistrationInput) (*domain.Registration, error) {
	var out domain.Registration
	if err := g.mutate(ctx, "createRegistration", createRegistrationMutation, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *GraphQLGateway) CreateTicket(ctx context.Context, in TicketInput) (*domain.Ticket, error) {
	var out domain.Ticket
	if err := g.mutate(ctx, "createTicket", createTicketMutation, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *GraphQLGateway) UpdateTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	input := map[string]any{"id": ticketID, "status": status}
	var out domain.Ticket
	if err := g.mutate(ctx, "updateTicket", updateTicketMutation, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *GraphQLGateway) LinkRegistrationTicket(ctx context.Context, registrationID, ticketID string) (*domain.Registration, error) {
	input := map[string]any{"id": registrationID, "ticketId": ticketID}
	var out domain.Registration
	if err := g.mutate(ctx, "updateRegistration", updateRegistrationMutation, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func listAll[T any](ctx context.Context, g *GraphQLGateway, field, query string) ([]T, error) {
	items := make([]T, 0)
	var next *string
	for i := 0; i < maxPages; i++ {
		vars := map[string]any{}
		if next != nil {
			vars["nextToken"] = *next
		}
		var p page[T]
		if err := g.execute(ctx, field, query, vars, &p); err != nil {
			return nil, err
		}
		items = append(items, p.Items...)
		if p.NextToken == nil || *p.NextToken == "" {
			return items, nil
		}
		next = p.NextToken
	}
	g.logger.Warn("list truncated", zap.String("field", field), zap.Int("pages", maxPages))
	return items, nil
}

func (g *GraphQLGateway) mutate(ctx context.Context, field, mutation string, input, out any) error {
	return g.execute(ctx, field, mutation, map[string]any{"input": input}, out)
}

func (g *GraphQLGateway) execute(ctx context.Context, field, query string, vars map[string]any, out any) error {
	resp, err := g.client.Post(ctx, upstream.Request{
		URL:     g.cfg.Endpoint,
		Headers: g.authHeaders(ctx),
		Body:    graphQLRequest{Query: query, Variables: vars},
	})
	if err != nil {
		g.logger.Warn("graphql call failed", zap.String("field", field), zap.Error(err))
		return apperrors.NewUpstreamError("data service unavailable", err)
	}

	var body graphQLResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		if !resp.OK() {
			return apperrors.NewUpstreamError(fmt.Sprintf("data service returned %d", resp.Status), err)
		}
		return apperrors.NewUpstreamError("unexpected data service response", err)
	}
	if len(body.Errors) > 0 {
		return graphQLErrors(field, body.Errors)
	}
	if !resp.OK() {
		return apperrors.NewUpstreamError(fmt.Sprintf("data service returned %d", resp.Status), nil)
	}

	raw, ok := body.Data[field]
	if !ok || string(raw) == "null" {
		return apperrors.NewUpstreamError(fmt.Sprintf("data service returned no %s", field), nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewUpstreamError("unexpected data service response", err)
	}
	return nil
}

func (g *GraphQLGateway) authHeaders(ctx context.Context) map[string]string {
	headers := map[string]string{}
	if token, ok := AccessTokenFrom(ctx); ok {
		headers["Authorization"] = token
	} else if g.cfg.APIKey != "" {
		headers["x-api-key"] = g.cfg.APIKey
	}
	return headers
}

func graphQLErrors(field string, errs []graphQLError) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	msg := strings.Join(msgs, "; ")
	cause := fmt.Errorf("%s: %s", field, errs[0].ErrorType)
	if errs[0].ErrorType == "Unauthorized" {
		return &apperrors.DomainError{Code: apperrors.CodeForbidden, Message: msg, HTTPStatus: http.StatusForbidden, Err: cause}
	}
	return apperrors.NewUpstreamError(msg, cause)
}

package data

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/upstream"
	apperrors "github.com/spec-kit/eventflow/pkg/util/errorutil"
)

type capturedRequest struct {
	Headers http.Header
	Query   string
	Vars    map[string]any
}

type fakeGraph struct {
	mu       sync.Mutex
	requests []capturedRequest
	reply    func(req capturedRequest) (int, string)
}

func (f *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	_ = json.Unmarshal(raw, &body)
	req := capturedRequest{Headers: r.Header.Clone(), Query: body.Query, Vars: body.Variables}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	status, resp := f.reply(req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp))
}

func newGraphGateway(t *testing.T, f *fakeGraph, apiKey string) *GraphQLGateway {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewGraphQLGateway(GraphQLConfig{Endpoint: srv.URL, APIKey: apiKey}, upstream.NewClient(2*time.Second), nil)
}

func TestGraphQLListEvents(t *testing.T) {
	f := &fakeGraph{reply: func(capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"listEvents":{"items":[
			{"id":"e1","name":"Fest","date":"2025-01-01","location":"Hall","description":"d","organizerId":"u1","price":25},
			{"id":"e2","name":"Meetup","date":"2025-02-01","location":"Cafe","description":"","organizerId":"u2","price":null}
		],"nextToken":null}}}`
	}}
	gw := newGraphGateway(t, f, "key-1")

	events, err := gw.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Fest", events[0].Name)
	assert.Equal(t, 25.0, events[0].PriceOrZero())
	assert.Nil(t, events[1].Price)
	assert.True(t, events[1].IsFree())

	req := f.requests[0]
	assert.Contains(t, req.Query, "listEvents")
	assert.Equal(t, "key-1", req.Headers.Get("x-api-key"))
	assert.Empty(t, req.Headers.Get("Authorization"))
}

func TestGraphQLListFollowsNextToken(t *testing.T) {
	f := &fakeGraph{reply: func(req capturedRequest) (int, string) {
		if req.Vars["nextToken"] == "page-2" {
			return http.StatusOK, `{"data":{"listTickets":{"items":[{"id":"t2","qrCodeId":"q2","status":"SCANNED","registrationId":"r2"}],"nextToken":null}}}`
		}
		return http.StatusOK, `{"data":{"listTickets":{"items":[{"id":"t1","qrCodeId":"q1","status":"ISSUED","registrationId":"r1"}],"nextToken":"page-2"}}}`
	}}
	gw := newGraphGateway(t, f, "")

	tickets, err := gw.ListTickets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Ticket{
		{ID: "t1", QRCodeID: "q1", Status: domain.TicketStatusIssued, RegistrationID: "r1"},
		{ID: "t2", QRCodeID: "q2", Status: domain.TicketStatusScanned, RegistrationID: "r2"},
	}, tickets)
	assert.Len(t, f.requests, 2)
}

func TestGraphQLCreateRegistrationSendsNullTicket(t *testing.T) {
	f := &fakeGraph{reply: func(capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"createRegistration":{"id":"r1","eventId":"e1","userId":"a@b.com","registrationDate":"2025-01-01T00:00:00Z","ticketId":null}}}`
	}}
	gw := newGraphGateway(t, f, "")

	ctx := WithAccessToken(context.Background(), "jwt-token")
	reg, err := gw.CreateRegistration(ctx, RegistrationInput{
		EventID:          "e1",
		UserID:           "a@b.com",
		RegistrationDate: "2025-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", reg.ID)
	assert.False(t, reg.HasTicket())

	req := f.requests[0]
	assert.True(t, strings.HasPrefix(req.Query, "mutation CreateRegistration"))
	assert.Equal(t, "jwt-token", req.Headers.Get("Authorization"))
	input := req.Vars["input"].(map[string]any)
	assert.Contains(t, input, "ticketId")
	assert.Nil(t, input["ticketId"])
	assert.Equal(t, "e1", input["eventId"])
}

func TestGraphQLUpdateTicketStatus(t *testing.T) {
	f := &fakeGraph{reply: func(capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"updateTicket":{"id":"t1","qrCodeId":"q1","status":"SCANNED","registrationId":"r1"}}}`
	}}
	gw := newGraphGateway(t, f, "")

	ticket, err := gw.UpdateTicketStatus(context.Background(), "t1", domain.TicketStatusScanned)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusScanned, ticket.Status)

	input := f.requests[0].Vars["input"].(map[string]any)
	assert.Equal(t, map[string]any{"id": "t1", "status": "SCANNED"}, input)
}

func TestGraphQLLinkRegistrationTicket(t *testing.T) {
	f := &fakeGraph{reply: func(capturedRequest) (int, string) {
		return http.StatusOK, `{"data":{"updateRegistration":{"id":"r1","eventId":"e1","userId":"u","registrationDate":"x","ticketId":"t1"}}}`
	}}
	gw := newGraphGateway(t, f, "")

	reg, err := gw.LinkRegistrationTicket(context.Background(), "r1", "t1")
	require.NoError(t, err)
	require.True(t, reg.HasTicket())
	assert.Equal(t, "t1", *reg.TicketID)
	assert.Contains(t, f.requests[0].Query, "updateRegistration")
}

func TestGraphQLErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{
			name:    "graphql errors",
			status:  http.StatusOK,
			body:    `{"data":{"createEvent":null},"errors":[{"message":"Validation error","errorType":"DynamoDB:ConditionalCheckFailedException"}]}`,
			code:    apperrors.CodeUpstream,
			message: "Validation error",
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"errors":[{"errorType":"Unauthorized","message":"Not Authorized to access createEvent on type Mutation"}]}`,
			code:    apperrors.CodeForbidden,
			message: "Not Authorized to access createEvent on type Mutation",
		},
		{
			name:    "non json failure",
			status:  http.StatusBadGateway,
			body:    `bad gateway`,
			code:    apperrors.CodeUpstream,
			message: "data service returned 502",
		},
		{
			name:    "missing field",
			status:  http.StatusOK,
			body:    `{"data":{}}`,
			code:    apperrors.CodeUpstream,
			message: "data service returned no createEvent",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeGraph{reply: func(capturedRequest) (int, string) { return tc.status, tc.body }}
			gw := newGraphGateway(t, f, "")

			_, err := gw.CreateEvent(context.Background(), EventInput{Name: "Fest"})
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tc.code), "got %v", err)
			assert.Equal(t, tc.message, apperrors.UserMessage(err))
		})
	}
}

func TestGraphQLUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := NewGraphQLGateway(GraphQLConfig{Endpoint: url}, upstream.NewClient(time.Second), nil)
	_, err := gw.ListRegistrations(context.Background())
	require.Error(t, err)
	assert.Equal(t, "data service unavailable", apperrors.UserMessage(err))
}

func TestAccessTokenContext(t *testing.T) {
	_, ok := AccessTokenFrom(context.Background())
	assert.False(t, ok)

	assert.Equal(t, context.Background(), WithAccessToken(context.Background(), ""))

	token, ok := AccessTokenFrom(WithAccessToken(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

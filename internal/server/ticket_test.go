package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ticketdomain "github.com/valnet/valdesk-central/internal/ticket/domain"
)

type fakeTicketService struct {
	created []ticketdomain.CreateTicketRequest
	err     error
}

func (f *fakeTicketService) Create(ctx context.Context, req ticketdomain.CreateTicketRequest) (ticketdomain.Ticket, error) {
	if f.err != nil {
		return ticketdomain.Ticket{}, f.err
	}
	f.created = append(f.created, req)
	return ticketdomain.Ticket{Subject: req.Subject}, nil
}

func newTicketTestServer(svc ticketdomain.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	s := &Server{engine: engine, ticketSvc: svc}
	engine.POST("/api/v1/tickets", s.CreateTicket)
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
	return engine
}

func TestCreateTicketReturnsOK(t *testing.T) {
	fake := &fakeTicketService{}
	engine := newTicketTestServer(fake)

	body, err := json.Marshal(map[string]any{
		"subject":        "No internet since yesterday",
		"description":    "Router lights are red",
		"reporter_name":  "Pedro Fernandez",
		"reporter_email": "pedro@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Len(t, fake.created, 1)
	assert.Equal(t, "No internet since yesterday", fake.created[0].Subject)
}

func TestCreateTicketStoreFailureReturns500(t *testing.T) {
	fake := &fakeTicketService{err: errors.New("db down")}
	engine := newTicketTestServer(fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets", bytes.NewBufferString(`{"subject":"help"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "db down", payload["error"])
}

func TestCreateTicketRejectsEmptySubject(t *testing.T) {
	fake := &fakeTicketService{err: ticketdomain.ErrInvalidSubject}
	engine := newTicketTestServer(fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets", bytes.NewBufferString(`{"subject":""}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTicketMethodNotAllowed(t *testing.T) {
	engine := newTicketTestServer(&fakeTicketService{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/v1/tickets", nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "method %s", method)
	}
}

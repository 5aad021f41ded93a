package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubDrawService struct {
	winners []*models.Winner
}

func (s *stubDrawService) DrawWinners(ctx context.Context, eventID, adminID primitive.ObjectID, numberOfWinners int, prizes []string) ([]*models.Winner, error) {
	return s.winners, nil
}

func (s *stubDrawService) GetWinners(ctx context.Context, eventID primitive.ObjectID) ([]*models.Winner, error) {
	// Fresh copies per call, the way a storage read would behave.
	out := make([]*models.Winner, 0, len(s.winners))
	for _, w := range s.winners {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

type stubEventService struct {
	ticket *models.Ticket
}

func (s *stubEventService) CreateEvent(ctx context.Context, adminID primitive.ObjectID, req *services.CreateEventRequest) (*models.Event, error) {
	return nil, nil
}

func (s *stubEventService) GetEvent(ctx context.Context, eventID primitive.ObjectID) (*models.Event, error) {
	return nil, services.ErrNotFound
}

func (s *stubEventService) ListEventsByAdmin(ctx context.Context, adminID primitive.ObjectID) ([]*models.Event, error) {
	return nil, nil
}

func (s *stubEventService) ListTickets(ctx context.Context, eventID primitive.ObjectID, status models.TicketStatus) ([]*models.Ticket, error) {
	return nil, nil
}

func (s *stubEventService) GetTicket(ctx context.Context, eventID primitive.ObjectID, number int) (*models.Ticket, error) {
	cp := *s.ticket
	return &cp, nil
}

func (s *stubEventService) CloseEvent(ctx context.Context, eventID, adminID primitive.ObjectID) error {
	return nil
}

func (s *stubEventService) DeleteEvent(ctx context.Context, eventID, adminID primitive.ObjectID) error {
	return nil
}

func serveJSON(t *testing.T, handler gin.HandlerFunc, route, path string) map[string]interface{} {
	t.Helper()
	router := gin.New()
	router.GET(route, handler)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPublicWinnersMaskPhones(t *testing.T) {
	eventID := primitive.NewObjectID()
	stub := &stubDrawService{winners: []*models.Winner{{
		EventID:      eventID,
		TicketNumber: 7,
		Position:     1,
		Prize:        "TV",
		BuyerName:    "Abebe",
		BuyerPhone:   "+251911223344",
	}}}
	h := NewDrawHandler(stub)

	body := serveJSON(t, h.GetWinners, "/events/:eventId/winners", "/events/"+eventID.Hex()+"/winners")
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	winner := data[0].(map[string]interface{})
	assert.Equal(t, "****3344", winner["buyerPhone"])

	// The admin listing keeps the full number.
	body = serveJSON(t, h.ListWinners, "/events/:eventId/winners", "/events/"+eventID.Hex()+"/winners")
	data = body["data"].([]interface{})
	require.Len(t, data, 1)
	winner = data[0].(map[string]interface{})
	assert.Equal(t, "+251911223344", winner["buyerPhone"])
}

func TestPublicTicketLookupMasksPhone(t *testing.T) {
	eventID := primitive.NewObjectID()
	stub := &stubEventService{ticket: &models.Ticket{
		EventID:      eventID,
		TicketNumber: 5,
		Status:       models.TicketStatusSold,
		BuyerName:    "Abebe",
		BuyerPhone:   "+251911223344",
	}}
	h := NewEventHandler(stub)

	body := serveJSON(t, h.GetTicket, "/events/:eventId/tickets/:number", "/events/"+eventID.Hex()+"/tickets/5")
	ticket := body["data"].(map[string]interface{})
	assert.Equal(t, "****3344", ticket["buyerPhone"])
	assert.Equal(t, "sold", ticket["status"])
}

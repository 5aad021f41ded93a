package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zlucky/raffle-backend/internal/config"
	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/repositories"
	"github.com/zlucky/raffle-backend/pkg/chapa"
)

// fakeTxRunner executes the function directly. The in-memory stores
// apply conditional updates the same way the real collections do, so
// the services' status re-checks are still exercised.
type fakeTxRunner struct {
	calls int
}

func (r *fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[primitive.ObjectID]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[primitive.ObjectID]*models.Event)}
}

func (r *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r *fakeEventRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *event
	return &cp, nil
}

func (r *fakeEventRepo) FindByAdmin(ctx context.Context, adminID primitive.ObjectID) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Event
	for _, event := range r.events {
		if event.AdminID == adminID {
			cp := *event
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) AdjustCounters(ctx context.Context, id primitive.ObjectID, available, reserved, sold int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	event.AvailableTickets += available
	event.ReservedTickets += reserved
	event.SoldTickets += sold
	return nil
}

func (r *fakeEventRepo) Close(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok || event.Status != models.EventStatusActive {
		return false, nil
	}
	event.Status = models.EventStatusClosed
	event.ClosedAt = &at
	return true, nil
}

func (r *fakeEventRepo) MarkWinnersGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok || event.IsWinnerGenerated {
		return false, nil
	}
	event.IsWinnerGenerated = true
	event.Status = models.EventStatusCompleted
	event.WinnersGeneratedAt = &at
	return true, nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, id)
	return nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[primitive.ObjectID]*models.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[primitive.ObjectID]*models.Ticket)}
}

func (r *fakeTicketRepo) CreateMany(ctx context.Context, tickets []*models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tickets {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		cp := *t
		r.tickets[t.ID] = &cp
	}
	return nil
}

func (r *fakeTicketRepo) FindByEventAndNumber(ctx context.Context, eventID primitive.ObjectID, number int) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.EventID == eventID && t.TicketNumber == number {
			cp := *t
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeTicketRepo) FindByEvent(ctx context.Context, eventID primitive.ObjectID, status models.TicketStatus) ([]*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Ticket
	for _, t := range r.tickets {
		if t.EventID != eventID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].TicketNumber < out[i].TicketNumber {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) FindExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Ticket
	for _, t := range r.tickets {
		if t.ReservationExpiresAt != nil && t.ReservationExpiresAt.Before(now) {
			cp := *t
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) Reserve(ctx context.Context, id primitive.ObjectID, buyer repositories.BuyerInfo, expiresAt time.Time, paymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.Status != models.TicketStatusAvailable {
		return false, nil
	}
	now := time.Now()
	t.Status = models.TicketStatusReserved
	t.BuyerName = buyer.Name
	t.BuyerPhone = buyer.Phone
	t.BuyerEmail = buyer.Email
	t.ReservedAt = &now
	t.ReservationExpiresAt = &expiresAt
	t.PaymentID = paymentID
	return true, nil
}

func (r *fakeTicketRepo) Release(ctx context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.Status != models.TicketStatusReserved {
		return false, nil
	}
	r.release(t)
	return true, nil
}

func (r *fakeTicketRepo) ReleaseByPaymentID(ctx context.Context, paymentID string) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.PaymentID == paymentID && t.Status == models.TicketStatusReserved {
			r.release(t)
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) release(t *models.Ticket) {
	t.Status = models.TicketStatusAvailable
	t.BuyerName = ""
	t.BuyerPhone = ""
	t.BuyerEmail = ""
	t.ReservedAt = nil
	t.ReservationExpiresAt = nil
	t.PaymentID = ""
}

func (r *fakeTicketRepo) MarkSold(ctx context.Context, eventID primitive.ObjectID, number int, at time.Time) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.EventID == eventID && t.TicketNumber == number && t.Status == models.TicketStatusReserved {
			t.Status = models.TicketStatusSold
			t.ReservationExpiresAt = nil
			t.SoldAt = &at
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) MarkWinner(ctx context.Context, id primitive.ObjectID, position int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	t.IsWinner = true
	t.WinPosition = position
	return nil
}

func (r *fakeTicketRepo) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tickets {
		if t.EventID == eventID {
			delete(r.tickets, id)
		}
	}
	return nil
}

func (r *fakeTicketRepo) get(id primitive.ObjectID) *models.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*models.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.payments[payment.TxRef]; exists {
		return fmt.Errorf("duplicate key: %s", payment.TxRef)
	}
	cp := *payment
	r.payments[payment.TxRef] = &cp
	return nil
}

func (r *fakePaymentRepo) FindByTxRef(ctx context.Context, txRef string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txRef]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) SetCheckoutURL(ctx context.Context, txRef, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txRef]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.CheckoutURL = url
	return nil
}

func (r *fakePaymentRepo) MarkSuccess(ctx context.Context, txRef, gatewayTxID string, details bson.M, viaWebhook bool, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txRef]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = models.PaymentStatusSuccess
	p.GatewayTransactionID = gatewayTxID
	p.GatewayDetails = details
	p.WebhookReceived = viaWebhook
	p.CompletedAt = &at
	return true, nil
}

func (r *fakePaymentRepo) MarkFailed(ctx context.Context, txRef, reason string, details bson.M) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txRef]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = models.PaymentStatusFailed
	p.FailureReason = reason
	p.GatewayDetails = details
	return true, nil
}

func (r *fakePaymentRepo) MarkExpired(ctx context.Context, txRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txRef]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = models.PaymentStatusExpired
	return true, nil
}

func (r *fakePaymentRepo) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, p := range r.payments {
		if p.Status == models.PaymentStatusPending && p.ExpiresAt.Before(now) {
			cp := *p
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeWinnerRepo struct {
	mu      sync.Mutex
	winners []*models.Winner
}

func (r *fakeWinnerRepo) CreateMany(ctx context.Context, winners []*models.Winner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range winners {
		if w.ID.IsZero() {
			w.ID = primitive.NewObjectID()
		}
		cp := *w
		r.winners = append(r.winners, &cp)
	}
	return nil
}

func (r *fakeWinnerRepo) FindByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*models.Winner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Winner
	for _, w := range r.winners {
		if w.EventID == eventID {
			cp := *w
			out = append(out, &cp)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Position < out[i].Position {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

type fakeGateway struct {
	mu          sync.Mutex
	initErr     error
	initResp    *chapa.InitializeResponse
	verifyErr   error
	verify      *chapa.VerifyResult
	initCalls   int
	verifyCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		initResp: &chapa.InitializeResponse{CheckoutURL: "https://checkout.example/pay"},
	}
}

func (g *fakeGateway) Initialize(ctx context.Context, req *chapa.InitializeRequest) (*chapa.InitializeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	return g.initResp, nil
}

func (g *fakeGateway) Verify(ctx context.Context, txRef string) (*chapa.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verify, nil
}

func (g *fakeGateway) verifyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verifyCalls
}

// fakeNotifier records notifications; the services fire them from
// goroutines, so access is guarded.
type fakeNotifier struct {
	mu            sync.Mutex
	confirmations []string
	winners       []string
}

func (n *fakeNotifier) SendTicketConfirmation(phone, buyerName, eventName string, ticketNumber int, txRef string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, txRef)
}

func (n *fakeNotifier) SendWinnerNotification(phone, buyerName, eventName, prize string, ticketNumber int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.winners = append(n.winners, phone)
}

type fakeQRGenerator struct {
	err error
}

func (g *fakeQRGenerator) Generate(ctx context.Context, eventID, publicURL string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "https://qr.example/" + eventID + ".png", nil
}

// fixture wires one of every fake plus the services under test
type fixture struct {
	txRunner    *fakeTxRunner
	eventRepo   *fakeEventRepo
	ticketRepo  *fakeTicketRepo
	paymentRepo *fakePaymentRepo
	winnerRepo  *fakeWinnerRepo
	gateway     *fakeGateway
	notifier    *fakeNotifier
	cfg         *config.Config

	events       EventService
	reservations ReservationService
	payments     PaymentService
	sweeper      SweeperService
	draws        DrawService
}

func newFixture() *fixture {
	f := &fixture{
		txRunner:    &fakeTxRunner{},
		eventRepo:   newFakeEventRepo(),
		ticketRepo:  newFakeTicketRepo(),
		paymentRepo: newFakePaymentRepo(),
		winnerRepo:  &fakeWinnerRepo{},
		gateway:     newFakeGateway(),
		notifier:    &fakeNotifier{},
		cfg: &config.Config{
			AppURL: "https://raffle.example",
			Chapa:  config.ChapaConfig{Currency: "ETB"},
		},
	}
	f.events = NewEventService(f.txRunner, f.eventRepo, f.ticketRepo, &fakeQRGenerator{}, f.cfg)
	f.reservations = NewReservationService(f.txRunner, f.eventRepo, f.ticketRepo, f.paymentRepo, f.gateway, f.cfg)
	f.payments = NewPaymentService(f.txRunner, f.eventRepo, f.ticketRepo, f.paymentRepo, f.gateway, f.notifier)
	f.sweeper = NewSweeperService(f.txRunner, f.eventRepo, f.ticketRepo, f.paymentRepo)
	f.draws = NewDrawService(f.txRunner, f.eventRepo, f.ticketRepo, f.winnerRepo, f.notifier)
	return f
}

// seedEvent creates an active event with its full ticket inventory
func (f *fixture) seedEvent(adminID primitive.ObjectID, total int) *models.Event {
	event := &models.Event{
		ID:               primitive.NewObjectID(),
		AdminID:          adminID,
		Name:             "Summer Raffle",
		TicketPrice:      5000,
		TotalTickets:     total,
		Status:           models.EventStatusActive,
		AvailableTickets: total,
	}
	_ = f.eventRepo.Create(context.Background(), event)
	tickets := make([]*models.Ticket, 0, total)
	for n := 1; n <= total; n++ {
		tickets = append(tickets, &models.Ticket{
			EventID:      event.ID,
			TicketNumber: n,
			Status:       models.TicketStatusAvailable,
		})
	}
	_ = f.ticketRepo.CreateMany(context.Background(), tickets)
	return event
}

// counters re-reads the event and returns its counter triple
func (f *fixture) counters(eventID primitive.ObjectID) (available, reserved, sold int) {
	event, err := f.eventRepo.FindByID(context.Background(), eventID)
	if err != nil {
		return -1, -1, -1
	}
	return event.AvailableTickets, event.ReservedTickets, event.SoldTickets
}

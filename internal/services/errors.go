package services

import "errors"

// Sentinel errors surfaced by the engines. Handlers map these to HTTP
// status codes; anything unrecognized is treated as internal.
var (
	// ErrInvalidInput marks malformed caller input (bad phone, email,
	// missing field, out-of-range ticket count).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated marks a missing or unusable caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden marks an ownership mismatch.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks an absent event, ticket or payment.
	ErrNotFound = errors.New("not found")
	// ErrEventNotActive marks a reservation against a closed or
	// completed event.
	ErrEventNotActive = errors.New("event is not accepting reservations")
	// ErrTicketNotAvailable marks a ticket that is not in the state the
	// requested transition expects.
	ErrTicketNotAvailable = errors.New("ticket is already reserved or sold")
	// ErrAlreadyDrawn marks a repeated winner draw.
	ErrAlreadyDrawn = errors.New("winners have already been generated for this event")
	// ErrNoSales marks a draw attempt with zero sold tickets.
	ErrNoSales = errors.New("no tickets have been sold yet")
	// ErrInsufficientTickets marks a draw requesting more winners than
	// sold tickets.
	ErrInsufficientTickets = errors.New("not enough sold tickets for the requested number of winners")
	// ErrAmountMismatch marks a gateway-reported amount that disagrees
	// with the stored payment. Always fails closed.
	ErrAmountMismatch = errors.New("payment amount mismatch")
	// ErrGatewayFailure marks an upstream payment provider error or
	// timeout.
	ErrGatewayFailure = errors.New("payment gateway failure")
	// ErrInvalidCredentials marks a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken marks a registration with an existing email.
	ErrEmailTaken = errors.New("an account with this email already exists")
)

package ledger

import "errors"

// Every failure mode gets its own sentinel so callers (and the HTTP layer)
// can react deterministically instead of parsing a generic failure.
var (
	// Parameter validation
	ErrInvalidParams   = errors.New("invalid event parameters")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 10")
	ErrBatchMismatch   = errors.New("ticket id list does not match quantity")

	// Existence
	ErrEventNotFound  = errors.New("event does not exist")
	ErrTicketNotFound = errors.New("ticket does not exist")

	// Authorization
	ErrNotOrganizer = errors.New("caller is not the event organizer")
	ErrNotAdmin     = errors.New("caller is not the ledger admin")
	ErrBlacklisted  = errors.New("address is blacklisted")
	ErrNotApproved  = errors.New("caller is not owner or approved operator")
	ErrNotOwner     = errors.New("ticket is not held by the stated owner")

	// State
	ErrEventInactive       = errors.New("event is not active")
	ErrEventAlreadyStarted = errors.New("event already started or has sales")
	ErrMaxSupplyExceeded   = errors.New("max supply exceeded")
	ErrTicketUsed          = errors.New("ticket already used")
	ErrTicketInvalid       = errors.New("ticket has been invalidated")
	ErrNotTransferable     = errors.New("event tickets are not transferable")
	ErrReentrantCall       = errors.New("reentrant call rejected")

	// Payment
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrPaymentFailed       = errors.New("payment transfer failed")
	ErrRoyaltyFailed       = errors.New("royalty payment failed")
	ErrRefundFailed        = errors.New("refund transfer failed")
)

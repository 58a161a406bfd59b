package domain

import "errors"

var (
	ErrInvalidAmount   = errors.New("bid amount must be a positive number")
	ErrAuctionNotFound = errors.New("auction not found")
	ErrAuctionClosed   = errors.New("auction is closed for bidding")
	ErrSelfBid         = errors.New("sellers cannot bid on their own auction")
	ErrBidTooLow       = errors.New("bid amount must exceed the current price")
	ErrNoWinningBid    = errors.New("no winning bid found")
	ErrInvalidID       = errors.New("invalid identifier")
	// ErrUnknownUser reports a bidder or owner without a users row.
	ErrUnknownUser = errors.New("user is not registered")

	// ErrConflict reports write contention on an auction; the operation may be retried.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrTransient reports a storage or network fault or timeout; the operation may be retried.
	ErrTransient = errors.New("temporary infrastructure failure")

	ErrLockHeld = errors.New("lock already held")
)

// IsRetryable reports whether err is worth retrying unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrTransient)
}

// Reason codes carried by rejected requests.
const (
	ReasonInvalidAmount  = "invalid_amount"
	ReasonInvalidRequest = "invalid_request"
	ReasonBidTooLow      = "bid_too_low"
	ReasonClosed         = "auction_closed"
	ReasonSelfBid        = "self_bid"
	ReasonUnknownUser    = "unknown_user"
	ReasonNotFound       = "not_found"
	ReasonConflict       = "conflict"
	ReasonUnavailable    = "unavailable"
	ReasonInternal       = "internal"
)

// Reason maps an error to its machine readable reason code.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return ReasonInvalidAmount
	case errors.Is(err, ErrInvalidID):
		return ReasonInvalidRequest
	case errors.Is(err, ErrBidTooLow):
		return ReasonBidTooLow
	case errors.Is(err, ErrAuctionClosed):
		return ReasonClosed
	case errors.Is(err, ErrSelfBid):
		return ReasonSelfBid
	case errors.Is(err, ErrUnknownUser):
		return ReasonUnknownUser
	case errors.Is(err, ErrAuctionNotFound), errors.Is(err, ErrNoWinningBid):
		return ReasonNotFound
	case errors.Is(err, ErrConflict):
		return ReasonConflict
	case errors.Is(err, ErrTransient):
		return ReasonUnavailable
	default:
		return ReasonInternal
	}
}

// PublicMessage is the client facing text for err. Unknown errors are
// reported generically so storage detail never leaks.
func PublicMessage(err error) string {
	for _, known := range []error{
		ErrInvalidAmount, ErrInvalidID, ErrBidTooLow, ErrAuctionClosed, ErrSelfBid, ErrUnknownUser,
		ErrAuctionNotFound, ErrNoWinningBid, ErrConflict, ErrTransient,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/mock_domain.go -package=mocks github.com/cristianortiz/auctionEase/internal/auction/domain NotificationGateway,EventPublisher,OutcomeArchiver,SweepLocker

// AuctionRepository owns auction rows.
type AuctionRepository interface {
	// Create stores a new listing. Listings are authored elsewhere; this is the
	// hand-off point used by seeding and tests.
	Create(ctx context.Context, a *Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	// LockByID loads the auction and holds its row lock until the enclosing
	// unit of work ends. It is the mutual exclusion point for bids and claims.
	LockByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	UpdateCurrentPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error
	// ClaimSettlement flips settled from false to true and reports whether this
	// caller performed the flip.
	ClaimSettlement(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListExpiredUnsettled(ctx context.Context, now time.Time, limit int) ([]*Auction, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Auction, error)
	ListSoldBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Auction, error)
}

// BidLedger owns bid records.
type BidLedger interface {
	Insert(ctx context.Context, bid *Bid) error
	// FindWinning returns ErrNoWinningBid when the auction has no winning record.
	FindWinning(ctx context.Context, auctionID uuid.UUID) (*Bid, error)
	// ClearWinning sets is_winning to false on the auction's current winning record, if any.
	ClearWinning(ctx context.Context, auctionID uuid.UUID) error
	// FindByAuction returns the auction's bids newest first.
	FindByAuction(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)
	ListAuctionIDsByBidder(ctx context.Context, bidderID uuid.UUID, winningOnly bool) ([]uuid.UUID, error)
}

// Repositories groups the repositories bound to one unit of work (or to no
// transaction at all when obtained from the Store directly).
type Repositories interface {
	Auctions() AuctionRepository
	Bids() BidLedger
}

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, repos Repositories) error

// Store is a storage engine. Within runs fn as one all-or-nothing unit of work:
// fn returning nil commits, anything else rolls back and is returned. Engines
// report write contention as ErrConflict and infrastructure faults as ErrTransient.
type Store interface {
	Repositories
	Within(ctx context.Context, fn TxFunc) error
}

// NotificationGateway delivers settlement messages to buyers and sellers.
type NotificationGateway interface {
	Send(ctx context.Context, msg Message) error
}

// EventPublisher fans auction events out to live listeners.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// OutcomeArchiver keeps a durable copy of each settlement outcome for
// out-of-band remediation of failed deliveries.
type OutcomeArchiver interface {
	Archive(ctx context.Context, outcome *SettlementOutcome) error
}

// SweepLocker grants one scheduler instance at a time the right to scan.
// Acquire returns ErrLockHeld when another holder owns key.
type SweepLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

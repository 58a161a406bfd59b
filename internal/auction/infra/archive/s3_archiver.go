// Package archive keeps a durable JSON record of every settlement outcome so
// failed deliveries can be remediated out of band.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BlobWriter is the subset of the blob store the archiver needs.
type BlobWriter interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
}

// Record is the archived form of a settlement outcome.
type Record struct {
	AuctionID     uuid.UUID        `json:"auction_id"`
	Name          string           `json:"name"`
	SellerID      uuid.UUID        `json:"seller_id"`
	SellerEmail   string           `json:"seller_email,omitempty"`
	Sold          bool             `json:"sold"`
	BidID         *uuid.UUID       `json:"bid_id,omitempty"`
	BuyerID       *uuid.UUID       `json:"buyer_id,omitempty"`
	BuyerEmail    string           `json:"buyer_email,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	BidTime       *time.Time       `json:"bid_time,omitempty"`
	EndTime       time.Time        `json:"end_time"`
	ClaimedAt     time.Time        `json:"claimed_at"`
	Delivered     int              `json:"delivered"`
	DeliveryError string           `json:"delivery_error,omitempty"`
}

// NewRecord flattens outcome into a Record.
func NewRecord(outcome *domain.SettlementOutcome) Record {
	a := outcome.Auction
	rec := Record{
		AuctionID:     a.ID,
		Name:          a.Name,
		SellerID:      a.OwnerID,
		Sold:          outcome.Sold(),
		EndTime:       a.EndTime,
		ClaimedAt:     outcome.ClaimedAt,
		Delivered:     outcome.Delivered,
		DeliveryError: outcome.DeliveryErr,
	}
	if outcome.Seller != nil {
		rec.SellerEmail = outcome.Seller.Email
	}
	if bid := outcome.WinningBid; bid != nil {
		bidID, buyerID, amount, at := bid.ID, bid.BidderID, bid.Amount, bid.Timestamp
		rec.BidID, rec.BuyerID, rec.Amount, rec.BidTime = &bidID, &buyerID, &amount, &at
	}
	if outcome.Buyer != nil {
		rec.BuyerEmail = outcome.Buyer.Email
	}
	return rec
}

// S3Archiver implements domain.OutcomeArchiver by writing one JSON object per
// settled auction, keyed by claim date.
type S3Archiver struct {
	blobs  BlobWriter
	prefix string
}

var _ domain.OutcomeArchiver = (*S3Archiver)(nil)

func NewS3Archiver(blobs BlobWriter, prefix string) *S3Archiver {
	return &S3Archiver{blobs: blobs, prefix: prefix}
}

// Key is the object key of an outcome: <prefix>/YYYY/MM/DD/<auction id>.json.
func (a *S3Archiver) Key(outcome *domain.SettlementOutcome) string {
	return path.Join(a.prefix, outcome.ClaimedAt.UTC().Format("2006/01/02"), outcome.Auction.ID.String()+".json")
}

func (a *S3Archiver) Archive(ctx context.Context, outcome *domain.SettlementOutcome) error {
	data, err := json.Marshal(NewRecord(outcome))
	if err != nil {
		return fmt.Errorf("archive: marshal outcome of %s: %w", outcome.Auction.ID, err)
	}
	return a.blobs.Put(ctx, a.Key(outcome), bytes.NewReader(data), "application/json")
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// BidRepository implements domain.BidLedger interface
type BidRepository struct {
	db querier
}

const bidColumns = `id, auction_id, bidder_id, amount::text, is_winning, placed_at`

func scanBid(row pgx.Row) (*domain.Bid, error) {
	bid := &domain.Bid{}
	var amount string
	err := row.Scan(
		&bid.ID,
		&bid.AuctionID,
		&bid.BidderID,
		&amount,
		&bid.IsWinning,
		&bid.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if bid.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse bid amount: %w", err)
	}
	return bid, nil
}

// Insert only writes the bid; superseding the previous winner and moving the
// price belong to the same unit of work in the application layer.
func (r *BidRepository) Insert(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, auction_id, bidder_id, amount, is_winning, placed_at)
        VALUES ($1, $2, $3, $4::numeric, $5, $6)
    `
	_, err := r.db.Exec(ctx, query,
		bid.ID,
		bid.AuctionID,
		bid.BidderID,
		bid.Amount.String(),
		bid.IsWinning,
		bid.Timestamp,
	)
	if err != nil {
		return classify(fmt.Errorf("insert bid %s: %w", bid.ID, err))
	}
	return nil
}

func (r *BidRepository) FindWinning(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = $1 AND is_winning`
	bid, err := scanBid(r.db.QueryRow(ctx, query, auctionID))
	if err != nil {
		//if there is no bid for this auction
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoWinningBid
		}
		return nil, classify(fmt.Errorf("find winning bid of %s: %w", auctionID, err))
	}
	return bid, nil
}

func (r *BidRepository) ClearWinning(ctx context.Context, auctionID uuid.UUID) error {
	query := `UPDATE bids SET is_winning = FALSE WHERE auction_id = $1 AND is_winning`
	if _, err := r.db.Exec(ctx, query, auctionID); err != nil {
		return classify(fmt.Errorf("clear winning bid of %s: %w", auctionID, err))
	}
	return nil
}

func (r *BidRepository) FindByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + `
        FROM bids
        WHERE auction_id = $1
        ORDER BY placed_at DESC
    `
	rows, err := r.db.Query(ctx, query, auctionID)
	if err != nil {
		return nil, classify(fmt.Errorf("list bids of %s: %w", auctionID, err))
	}
	defer rows.Close()

	bids := []*domain.Bid{}
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return bids, nil
}

// ListAuctionIDsByBidder returns the auctions the bidder took part in, most
// recently bid on first.
func (r *BidRepository) ListAuctionIDsByBidder(ctx context.Context, bidderID uuid.UUID, winningOnly bool) ([]uuid.UUID, error) {
	query := `
        SELECT auction_id
        FROM bids
        WHERE bidder_id = $1 AND (is_winning OR NOT $2)
        GROUP BY auction_id
        ORDER BY MAX(placed_at) DESC
    `
	rows, err := r.db.Query(ctx, query, bidderID, winningOnly)
	if err != nil {
		return nil, classify(fmt.Errorf("list auctions of bidder %s: %w", bidderID, err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

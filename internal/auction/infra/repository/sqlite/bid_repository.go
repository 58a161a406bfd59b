package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidRepository implements domain.BidLedger interface
type BidRepository struct {
	db querier
}

const bidColumns = `id, auction_id, bidder_id, amount, is_winning, placed_at`

func scanBid(row scanner) (*domain.Bid, error) {
	bid := &domain.Bid{}
	var (
		amount   string
		placedAt int64
	)
	if err := row.Scan(&bid.ID, &bid.AuctionID, &bid.BidderID, &amount, &bid.IsWinning, &placedAt); err != nil {
		return nil, err
	}
	var err error
	if bid.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse bid amount: %w", err)
	}
	bid.Timestamp = fromNanos(placedAt)
	return bid, nil
}

func (r *BidRepository) Insert(ctx context.Context, bid *domain.Bid) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bids (`+bidColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		bid.ID.String(),
		bid.AuctionID.String(),
		bid.BidderID.String(),
		bid.Amount.String(),
		bid.IsWinning,
		toNanos(bid.Timestamp),
	)
	if err != nil {
		return classify(fmt.Errorf("insert bid %s: %w", bid.ID, err))
	}
	return nil
}

func (r *BidRepository) FindWinning(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	bid, err := scanBid(r.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE auction_id = ? AND is_winning = 1`, auctionID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoWinningBid
		}
		return nil, classify(fmt.Errorf("find winning bid of %s: %w", auctionID, err))
	}
	return bid, nil
}

func (r *BidRepository) ClearWinning(ctx context.Context, auctionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bids SET is_winning = 0 WHERE auction_id = ? AND is_winning = 1`, auctionID.String())
	if err != nil {
		return classify(fmt.Errorf("clear winning bid of %s: %w", auctionID, err))
	}
	return nil
}

func (r *BidRepository) FindByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE auction_id = ? ORDER BY placed_at DESC`, auctionID.String())
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

func (r *BidRepository) ListAuctionIDsByBidder(ctx context.Context, bidderID uuid.UUID, winningOnly bool) ([]uuid.UUID, error) {
	query := `
		SELECT auction_id
		FROM bids
		WHERE bidder_id = ? AND (is_winning = 1 OR ? = 0)
		GROUP BY auction_id
		ORDER BY MAX(placed_at) DESC
	`
	rows, err := r.db.QueryContext(ctx, query, bidderID.String(), winningOnly)
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

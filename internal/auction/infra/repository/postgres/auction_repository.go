package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AuctionRepository implements domain.AuctionRepository interface
type AuctionRepository struct {
	db querier
}

// numeric columns are read as text and parsed into decimals
const auctionColumns = `
	id, owner_id, name, category, description, image_ref,
	starting_price::text, current_price::text, end_time, settled, settled_at, created_at, updated_at`

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	a := &domain.Auction{}
	var starting, current string
	err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.Name,
		&a.Category,
		&a.Description,
		&a.ImageRef,
		&starting,
		&current,
		&a.EndTime,
		&a.Settled,
		&a.SettledAt, // pointer handles NULL
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if a.StartingPrice, err = decimal.NewFromString(starting); err != nil {
		return nil, fmt.Errorf("parse starting_price: %w", err)
	}
	if a.CurrentPrice, err = decimal.NewFromString(current); err != nil {
		return nil, fmt.Errorf("parse current_price: %w", err)
	}
	return a, nil
}

func collectAuctions(rows pgx.Rows) ([]*domain.Auction, error) {
	defer rows.Close()
	var auctions []*domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return auctions, nil
}

// Create inserts a listing; created_at and updated_at fall back to the column defaults.
func (r *AuctionRepository) Create(ctx context.Context, a *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, owner_id, name, category, description, image_ref,
                              starting_price, current_price, end_time, settled)
        VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10)
    `
	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.OwnerID,
		a.Name,
		a.Category,
		a.Description,
		a.ImageRef,
		a.StartingPrice.String(),
		a.CurrentPrice.String(),
		a.EndTime,
		a.Settled,
	)
	if err != nil {
		return classify(fmt.Errorf("insert auction %s: %w", a.ID, err))
	}
	return nil
}

// GetByID retrieves an auction by its ID.
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT` + auctionColumns + ` FROM auctions WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// LockByID takes the row lock with SELECT ... FOR UPDATE; it only holds past
// the statement when called inside Within.
func (r *AuctionRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT` + auctionColumns + ` FROM auctions WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *AuctionRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Auction, error) {
	a, err := scanAuction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, classify(fmt.Errorf("get auction %s: %w", id, err))
	}
	return a, nil
}

func (r *AuctionRepository) UpdateCurrentPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	query := `UPDATE auctions SET current_price = $2::numeric, updated_at = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, price.String(), at)
	if err != nil {
		return classify(fmt.Errorf("update current price of %s: %w", id, err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}

// ClaimSettlement is a compare-and-set on the settled flag.
func (r *AuctionRepository) ClaimSettlement(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
        UPDATE auctions
        SET settled = TRUE, settled_at = $2, updated_at = $2
        WHERE id = $1 AND settled = FALSE
    `
	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return false, classify(fmt.Errorf("claim settlement of %s: %w", id, err))
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AuctionRepository) ListExpiredUnsettled(ctx context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	query := `SELECT` + auctionColumns + `
        FROM auctions
        WHERE settled = FALSE AND end_time < $1
        ORDER BY end_time
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, classify(fmt.Errorf("list expired auctions: %w", err))
	}
	return collectAuctions(rows)
}

func (r *AuctionRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Auction, error) {
	query := `SELECT` + auctionColumns + ` FROM auctions WHERE id = ANY($1::uuid[])`
	rows, err := r.db.Query(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, classify(fmt.Errorf("list auctions by id: %w", err))
	}
	return collectAuctions(rows)
}

func (r *AuctionRepository) ListSoldBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Auction, error) {
	query := `SELECT` + auctionColumns + `
        FROM auctions a
        WHERE a.owner_id = $1 AND a.settled = TRUE
          AND EXISTS (SELECT 1 FROM bids b WHERE b.auction_id = a.id AND b.is_winning)
        ORDER BY a.end_time DESC
    `
	rows, err := r.db.Query(ctx, query, sellerID)
	if err != nil {
		return nil, classify(fmt.Errorf("list sold auctions: %w", err))
	}
	return collectAuctions(rows)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionRepository implements domain.AuctionRepository interface
type AuctionRepository struct {
	db querier
}

const auctionColumns = `
	id, owner_id, name, category, description, image_ref,
	starting_price, current_price, end_time, settled, settled_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAuction(row scanner) (*domain.Auction, error) {
	a := &domain.Auction{}
	var (
		starting, current            string
		endTime, createdAt, updatedAt int64
		settledAt                    sql.NullInt64
	)
	err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.Name,
		&a.Category,
		&a.Description,
		&a.ImageRef,
		&starting,
		&current,
		&endTime,
		&a.Settled,
		&settledAt,
		&createdAt,
		&updatedAt,
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
	a.EndTime = fromNanos(endTime)
	a.CreatedAt = fromNanos(createdAt)
	a.UpdatedAt = fromNanos(updatedAt)
	if settledAt.Valid {
		t := fromNanos(settledAt.Int64)
		a.SettledAt = &t
	}
	return a, nil
}

func collectAuctions(rows *sql.Rows) ([]*domain.Auction, error) {
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

func (r *AuctionRepository) Create(ctx context.Context, a *domain.Auction) error {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := a.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	var settledAt sql.NullInt64
	if a.SettledAt != nil {
		settledAt = sql.NullInt64{Int64: toNanos(*a.SettledAt), Valid: true}
	}

	query := `
		INSERT INTO auctions (id, owner_id, name, category, description, image_ref,
		                      starting_price, current_price, end_time, settled, settled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID.String(),
		a.OwnerID.String(),
		a.Name,
		a.Category,
		a.Description,
		a.ImageRef,
		a.StartingPrice.String(),
		a.CurrentPrice.String(),
		toNanos(a.EndTime),
		a.Settled,
		settledAt,
		toNanos(created),
		toNanos(updated),
	)
	if err != nil {
		return classify(fmt.Errorf("insert auction %s: %w", a.ID, err))
	}
	return nil
}

func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	a, err := scanAuction(r.db.QueryRowContext(ctx, `SELECT`+auctionColumns+` FROM auctions WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, classify(fmt.Errorf("get auction %s: %w", id, err))
	}
	return a, nil
}

// LockByID is a plain read: the IMMEDIATE transaction already holds the
// database write lock.
func (r *AuctionRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return r.GetByID(ctx, id)
}

func (r *AuctionRepository) UpdateCurrentPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auctions SET current_price = ?, updated_at = ? WHERE id = ?`,
		price.String(), toNanos(at), id.String())
	if err != nil {
		return classify(fmt.Errorf("update current price of %s: %w", id, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}

func (r *AuctionRepository) ClaimSettlement(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auctions SET settled = 1, settled_at = ?, updated_at = ? WHERE id = ? AND settled = 0`,
		toNanos(at), toNanos(at), id.String())
	if err != nil {
		return false, classify(fmt.Errorf("claim settlement of %s: %w", id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n == 1, nil
}

func (r *AuctionRepository) ListExpiredUnsettled(ctx context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+auctionColumns+` FROM auctions WHERE settled = 0 AND end_time < ? ORDER BY end_time LIMIT ?`,
		toNanos(now), limit)
	if err != nil {
		return nil, classify(fmt.Errorf("list expired auctions: %w", err))
	}
	return collectAuctions(rows)
}

func (r *AuctionRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Auction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+auctionColumns+` FROM auctions WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("list auctions by id: %w", err))
	}
	return collectAuctions(rows)
}

func (r *AuctionRepository) ListSoldBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Auction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT`+auctionColumns+`
		FROM auctions a
		WHERE a.owner_id = ? AND a.settled = 1
		  AND EXISTS (SELECT 1 FROM bids b WHERE b.auction_id = a.id AND b.is_winning = 1)
		ORDER BY a.end_time DESC`, sellerID.String())
	if err != nil {
		return nil, classify(fmt.Errorf("list sold auctions: %w", err))
	}
	return collectAuctions(rows)
}

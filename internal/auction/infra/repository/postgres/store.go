package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

var _ domain.Store = (*Store)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories run
// unchanged inside or outside a unit of work.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements domain.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new instance of Store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Auctions() domain.AuctionRepository { return &AuctionRepository{db: s.pool} }
func (s *Store) Bids() domain.BidLedger             { return &BidRepository{db: s.pool} }

type txRepos struct {
	tx pgx.Tx
}

func (r txRepos) Auctions() domain.AuctionRepository { return &AuctionRepository{db: r.tx} }
func (r txRepos) Bids() domain.BidLedger             { return &BidRepository{db: r.tx} }

// Within runs fn in a READ COMMITTED transaction. Rows read with LockByID stay
// locked until commit or rollback.
func (s *Store) Within(ctx context.Context, fn domain.TxFunc) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		log.Error("postgres: failed to begin transaction", zap.Error(err))
		return classify(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(r)
		}
		if err != nil {
			// the caller's context may already be done; rollback must still reach the server
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Warn("postgres: rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(ctx, txRepos{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		log.Error("postgres: failed to commit transaction", zap.Error(err))
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// SQLSTATE codes meaning another writer got in the way.
var conflictCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"23505": true, // unique_violation, a second winning bid on the same auction
}

// classify maps driver errors onto the domain error categories. Domain errors
// pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case conflictCodes[pgErr.Code]:
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		case pgErr.Code == "23503": // foreign_key_violation, bidder or owner not in users
			return fmt.Errorf("%w: %w", domain.ErrUnknownUser, err)
		case pgErr.Code == "57014", // query_canceled
			pgErr.Code == "57P01", // admin_shutdown
			pgErr.Code == "53300", // too_many_connections
			len(pgErr.Code) == 5 && pgErr.Code[:2] == "08": // connection exceptions
			return fmt.Errorf("%w: %w", domain.ErrTransient, err)
		}
		return err
	}

	var netErr net.Error
	var connErr *pgconn.ConnectError
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr),
		errors.As(err, &connErr),
		pgconn.SafeToRetry(err):
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	return err
}

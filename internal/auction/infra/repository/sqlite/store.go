// Package sqlite is a single file storage engine for development and small
// deployments, built on the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var log = logger.GetLogger()

var _ domain.Store = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements domain.Store on a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory of path if needed, opens the database and
// applies the schema. Transactions begin IMMEDIATE so the write lock is taken
// up front, and a single connection serializes units of work.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Info("sqlite: database ready", zap.String("path", path))
	return &Store{db: db}, nil
}

// DB exposes the handle so sibling repositories (users) share the connection.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Auctions() domain.AuctionRepository { return &AuctionRepository{db: s.db} }
func (s *Store) Bids() domain.BidLedger             { return &BidRepository{db: s.db} }

type txRepos struct {
	tx *sql.Tx
}

func (r txRepos) Auctions() domain.AuctionRepository { return &AuctionRepository{db: r.tx} }
func (r txRepos) Bids() domain.BidLedger             { return &BidRepository{db: r.tx} }

// Within runs fn in one transaction. database/sql rolls the transaction back
// on its own if ctx ends first.
func (s *Store) Within(ctx context.Context, fn domain.TxFunc) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Warn("sqlite: rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(ctx, txRepos{tx: tx}); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return classify(err)
	}
	if err = tx.Commit(); err != nil {
		log.Error("sqlite: failed to commit transaction", zap.Error(err))
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// classify maps driver errors onto the domain error categories.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var sqlErr *msqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", domain.ErrUnknownUser, err)
		}
		switch sqlErr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			if strings.Contains(sqlErr.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: %w", domain.ErrConflict, err)
			}
			if strings.Contains(sqlErr.Error(), "FOREIGN KEY constraint failed") {
				return fmt.Errorf("%w: %w", domain.ErrUnknownUser, err)
			}
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		case sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL, sqlite3.SQLITE_CANTOPEN:
			return fmt.Errorf("%w: %w", domain.ErrTransient, err)
		}
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, sql.ErrTxDone):
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	return err
}

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

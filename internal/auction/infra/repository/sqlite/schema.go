package sqlite

import (
	"context"
	"database/sql"
)

// schema mirrors the postgres migrations. Amounts are stored as decimal text
// and instants as unix nanoseconds so ordering stays exact.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS auctions (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    image_ref TEXT NOT NULL DEFAULT '',
    starting_price TEXT NOT NULL,
    current_price TEXT NOT NULL,
    end_time INTEGER NOT NULL,
    settled INTEGER NOT NULL DEFAULT 0,
    settled_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (owner_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS bids (
    id TEXT PRIMARY KEY,
    auction_id TEXT NOT NULL,
    bidder_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    is_winning INTEGER NOT NULL DEFAULT 0,
    placed_at INTEGER NOT NULL,
    FOREIGN KEY (auction_id) REFERENCES auctions(id) ON DELETE CASCADE,
    FOREIGN KEY (bidder_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_auctions_unsettled_end_time ON auctions(end_time) WHERE settled = 0;
CREATE INDEX IF NOT EXISTS idx_auctions_owner_id ON auctions(owner_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_bids_one_winner ON bids(auction_id) WHERE is_winning = 1;
CREATE INDEX IF NOT EXISTS idx_bids_auction_placed_at ON bids(auction_id, placed_at);
CREATE INDEX IF NOT EXISTS idx_bids_bidder_id ON bids(bidder_id);
`

func applySchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

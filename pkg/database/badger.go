package database

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"myGreenMarketPersonalization/pkg/config"
)

func OpenBadger(cfg config.BadgerConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	// badger logs through its own logger; keep it to warnings
	opts = opts.WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", cfg.Dir, err)
	}

	return db, nil
}

// CloseBadger closes the Badger database
func CloseBadger(db *badger.DB) error {
	if db != nil {
		return db.Close()
	}

	return nil
}

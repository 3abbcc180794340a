package db

import (
	"time"

	"mevscan/types"
)

type Database interface {
	Close() error
	EnsureDatabaseExists() error
	CreateTables() error
	DropTables() error

	Exec(query string, args ...any) error

	InsertTradeEvents(trades types.TradeEvents) error
	InsertAttacks(attacks []*types.ClassifiedAttack) error
	InsertPoolStatuses(statuses types.PoolScanStatuses) error

	QueryTradeEvents(from, to time.Time) (types.TradeEvents, error)
	QueryLastTradeTime() (time.Time, error)
}

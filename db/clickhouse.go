package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mevscan/logger"
	"mevscan/types"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/spf13/viper"
)

const databaseName = "mevscan"

type ClickhouseDB struct {
	conn driver.Conn
}

func NewClickhouse() Database {
	opts := &clickhouse.Options{
		Addr: []string{viper.GetString("CLICKHOUSE_ADDR")},
		Auth: clickhouse.Auth{
			Database: viper.GetString("CLICKHOUSE_DATABASE"),
			Username: viper.GetString("CLICKHOUSE_USERNAME"),
			Password: viper.GetString("CLICKHOUSE_PASSWORD"),
		},
		DialTimeout:  5 * time.Second,
		Compression:  &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		MaxOpenConns: 10,
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		slog.Error("Failed to connect to ClickHouse", "error", err)
	}

	return &ClickhouseDB{conn: conn}
}

// Database interface implementation
func (d *ClickhouseDB) Close() error {
	return d.conn.Close()
}

func (d *ClickhouseDB) EnsureDatabaseExists() error {
	query := `CREATE DATABASE IF NOT EXISTS ` + databaseName
	if err := d.conn.Exec(context.Background(), query); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}
	logger.GlobalLogger.Info("Database ensured to exist", "database", databaseName)
	return nil
}

func (d *ClickhouseDB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS mevscan.trade_events
		(
			signer String,
			timestamp DateTime64(3),
			pool String,
			tokenIn String,
			tokenOut String,
			amountIn Float64,
			amountOut Float64,
			slot UInt64
		)
		ENGINE = MergeTree
		ORDER BY (pool, timestamp)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS mevscan.attacks
		(
			attackId String,
			attackType String,
			attackerSigner String,
			slot UInt64,
			timestamp DateTime64(3),
			windowSeconds Float64,

			confidence Float64,
			fatSandwichScore Float64,
			multiHopScore Float64,

			victimCount UInt16,
			uniqueTokenPairs UInt16,
			uniquePools UInt16,
			actualTimeSpanMs Int64,
			tradeCount UInt16
		)
		ENGINE = MergeTree
		ORDER BY (timestamp, attackId)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS mevscan.attack_trades
		(
			attackId String,
			role String,

			signer String,
			timestamp DateTime64(3),
			pool String,
			tokenIn String,
			tokenOut String,
			amountIn Float64,
			amountOut Float64,
			slot UInt64
		)
		ENGINE = MergeTree
		ORDER BY (attackId, timestamp)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS mevscan.pool_status
		(
			pool String,
			tradesFetched Bool,
			tradeCount UInt64,
			lastTradeTime DateTime64(3),
			scanned Bool,
			clusterCount UInt64,
			attackCount UInt64,
			ambiguousCount UInt64
		)
		ENGINE = ReplacingMergeTree
		PRIMARY KEY pool
		ORDER BY pool
		SETTINGS index_granularity = 8192`,
	}

	for _, q := range queries {
		if err := d.conn.Exec(context.Background(), q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (d *ClickhouseDB) DropTables() error {
	tables := []string{"trade_events", "attacks", "attack_trades", "pool_status"}
	for _, t := range tables {
		if err := d.conn.Exec(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", databaseName, t)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", t, err)
		}
	}
	return nil
}

func (d *ClickhouseDB) Exec(query string, args ...any) error {
	return d.conn.Exec(context.Background(), query, args...)
}

func (d *ClickhouseDB) InsertTradeEvents(trades types.TradeEvents) error {
	if len(trades) == 0 {
		return nil
	}
	batch, err := d.conn.PrepareBatch(context.Background(), "INSERT INTO mevscan.trade_events")
	if err != nil {
		return fmt.Errorf("failed to prepare trade_events batch: %w", err)
	}
	for _, t := range trades {
		if err := batch.Append(
			t.Signer, t.Timestamp, t.Pool,
			t.TokenIn, t.TokenOut, t.AmountIn, t.AmountOut, t.Slot,
		); err != nil {
			return fmt.Errorf("failed to append trade event: %w", err)
		}
	}
	return batch.Send()
}

func (d *ClickhouseDB) InsertAttacks(attacks []*types.ClassifiedAttack) error {
	if len(attacks) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(context.Background(), "INSERT INTO mevscan.attacks")
	if err != nil {
		return fmt.Errorf("failed to prepare attacks batch: %w", err)
	}
	for _, a := range attacks {
		r := a.Row()
		if err := batch.Append(
			r.AttackID, r.AttackType, r.AttackerSigner, r.Slot, r.Timestamp, r.WindowSeconds,
			r.Confidence, r.FatSandwichScore, r.MultiHopScore,
			r.VictimCount, r.UniqueTokenPairs, r.UniquePools, r.ActualTimeSpanMs, r.TradeCount,
		); err != nil {
			return fmt.Errorf("failed to append attack: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return err
	}

	tradeBatch, err := d.conn.PrepareBatch(context.Background(), "INSERT INTO mevscan.attack_trades")
	if err != nil {
		return fmt.Errorf("failed to prepare attack_trades batch: %w", err)
	}
	for _, a := range attacks {
		for _, tr := range a.TradeRows() {
			if err := tradeBatch.Append(
				tr.AttackID, tr.Role,
				tr.Signer, tr.Timestamp, tr.Pool,
				tr.TokenIn, tr.TokenOut, tr.AmountIn, tr.AmountOut, tr.Slot,
			); err != nil {
				return fmt.Errorf("failed to append attack trade: %w", err)
			}
		}
	}
	return tradeBatch.Send()
}

func (d *ClickhouseDB) InsertPoolStatuses(statuses types.PoolScanStatuses) error {
	if len(statuses) == 0 {
		return nil
	}
	batch, err := d.conn.PrepareBatch(context.Background(), "INSERT INTO mevscan.pool_status")
	if err != nil {
		return fmt.Errorf("failed to prepare pool_status batch: %w", err)
	}
	for _, s := range statuses {
		if err := batch.Append(
			s.Pool, s.TradesFetched, s.TradeCount, s.LastTradeTime,
			s.Scanned, s.ClusterCount, s.AttackCount, s.AmbiguousCount,
		); err != nil {
			return fmt.Errorf("failed to append pool status: %w", err)
		}
	}
	return batch.Send()
}

// QueryTradeEvents returns the trades in [from, to) in timestamp order, so
// both the combined sequence and every per-pool subsequence arrive sorted.
func (d *ClickhouseDB) QueryTradeEvents(from, to time.Time) (types.TradeEvents, error) {
	rows, err := d.conn.Query(context.Background(),
		`SELECT signer, timestamp, pool, tokenIn, tokenOut, amountIn, amountOut, slot
		 FROM mevscan.trade_events
		 WHERE timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp, pool`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade events: %w", err)
	}
	defer rows.Close()

	trades := make(types.TradeEvents, 0)
	for rows.Next() {
		t := &types.TradeEvent{}
		if err := rows.Scan(&t.Signer, &t.Timestamp, &t.Pool, &t.TokenIn, &t.TokenOut, &t.AmountIn, &t.AmountOut, &t.Slot); err != nil {
			return nil, fmt.Errorf("failed to scan trade event: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (d *ClickhouseDB) QueryLastTradeTime() (time.Time, error) {
	row := d.conn.QueryRow(context.Background(),
		`SELECT max(timestamp) FROM mevscan.trade_events`)
	var last time.Time
	if err := row.Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("failed to query last trade time: %w", err)
	}
	return last, nil
}

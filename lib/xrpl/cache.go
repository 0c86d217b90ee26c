// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package xrpl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/nftgate-foundation/nftgate/lib/clock"
	"github.com/nftgate-foundation/nftgate/lib/codec"
	"github.com/nftgate-foundation/nftgate/lib/gate"
	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/sqlitepool"
)

// zstdEncoder and zstdDecoder are reused across calls; both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("xrpl: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("xrpl: zstd decoder initialization failed: " + err.Error())
	}
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS holdings_cache (
	account    TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL,
	payload    BLOB NOT NULL
) WITHOUT ROWID;
`

// CacheConfig holds the parameters for a holdings cache.
type CacheConfig struct {
	// Path is the SQLite database file. The parent directory must
	// exist. Required.
	Path string

	// TTL is how long a cached holdings snapshot stays fresh. If
	// zero, defaults to 5 minutes. Longer TTLs reduce Bithomp load
	// at the cost of admitting members whose wallets emptied within
	// the window.
	TTL time.Duration

	// PoolSize is the SQLite connection pool size. Defaults per
	// sqlitepool.
	PoolSize int

	// Clock provides the current time for expiry decisions. If nil,
	// the real clock is used.
	Clock clock.Clock

	// Logger receives cache diagnostics. If nil, logs are discarded.
	Logger *slog.Logger
}

// CachedProvider wraps a HoldingsProvider with a SQLite-backed TTL
// cache. Fresh entries are served without touching the source; expired
// or missing entries trigger a source fetch whose result replaces the
// cached snapshot. Source failures propagate unchanged, so a Bithomp
// outage still denies access instead of serving stale holdings.
type CachedProvider struct {
	source HoldingsProvider
	pool   *sqlitepool.Pool
	ttl    time.Duration
	clock  clock.Clock
	logger *slog.Logger
}

// NewCachedProvider opens the cache database and wraps the source
// provider. The caller must Close the provider when done.
func NewCachedProvider(source HoldingsProvider, cfg CacheConfig) (*CachedProvider, error) {
	if source == nil {
		return nil, fmt.Errorf("xrpl: cache source is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	timeSource := cfg.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, cacheSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("xrpl: opening holdings cache: %w", err)
	}

	return &CachedProvider{
		source: source,
		pool:   pool,
		ttl:    ttl,
		clock:  timeSource,
		logger: logger,
	}, nil
}

// Close closes the cache database.
func (p *CachedProvider) Close() error {
	return p.pool.Close()
}

// Holdings implements HoldingsProvider. A fresh cache entry is decoded
// and returned; otherwise the source is consulted and its result
// cached. A corrupt cache entry is treated as a miss, not an error.
func (p *CachedProvider) Holdings(ctx context.Context, account ref.XRPLAccount) (gate.Holdings, error) {
	if cached, ok := p.lookup(ctx, account); ok {
		return cached, nil
	}

	holdings, err := p.source.Holdings(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := p.store(ctx, account, holdings); err != nil {
		// A write failure only costs a future cache hit.
		p.logger.Warn("holdings cache write failed",
			"account", account,
			"error", err,
		)
	}
	return holdings, nil
}

// Invalidate drops the cached snapshot for an account so the next
// Holdings call refetches. Used by the CLI after a holder reports a
// wallet change.
func (p *CachedProvider) Invalidate(ctx context.Context, account ref.XRPLAccount) error {
	conn, err := p.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer p.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM holdings_cache WHERE account = ?",
		&sqlitex.ExecOptions{Args: []any{account.String()}})
	if err != nil {
		return fmt.Errorf("xrpl: invalidating cache for %s: %w", account, err)
	}
	return nil
}

func (p *CachedProvider) lookup(ctx context.Context, account ref.XRPLAccount) (gate.Holdings, bool) {
	conn, err := p.pool.Take(ctx)
	if err != nil {
		p.logger.Warn("holdings cache read failed", "account", account, "error", err)
		return nil, false
	}
	defer p.pool.Put(conn)

	var payload []byte
	var fetchedAt int64
	found := false
	err = sqlitex.Execute(conn,
		"SELECT fetched_at, payload FROM holdings_cache WHERE account = ?",
		&sqlitex.ExecOptions{
			Args: []any{account.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				fetchedAt = stmt.ColumnInt64(0)
				payload = make([]byte, stmt.ColumnLen(1))
				stmt.ColumnBytes(1, payload)
				found = true
				return nil
			},
		})
	if err != nil || !found {
		return nil, false
	}

	age := p.clock.Now().Sub(time.UnixMilli(fetchedAt))
	if age > p.ttl {
		return nil, false
	}

	holdings, err := decodeHoldings(payload)
	if err != nil {
		p.logger.Warn("holdings cache entry corrupt",
			"account", account,
			"error", err,
		)
		return nil, false
	}
	p.logger.Debug("holdings cache hit", "account", account, "age", age)
	return holdings, true
}

func (p *CachedProvider) store(ctx context.Context, account ref.XRPLAccount, holdings gate.Holdings) error {
	payload, err := encodeHoldings(holdings)
	if err != nil {
		return err
	}

	conn, err := p.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer p.pool.Put(conn)

	return sqlitex.Execute(conn,
		`INSERT INTO holdings_cache (account, fetched_at, payload) VALUES (?, ?, ?)
		 ON CONFLICT(account) DO UPDATE SET fetched_at = excluded.fetched_at, payload = excluded.payload`,
		&sqlitex.ExecOptions{
			Args: []any{account.String(), p.clock.Now().UnixMilli(), payload},
		})
}

func encodeHoldings(holdings gate.Holdings) ([]byte, error) {
	encoded, err := codec.Marshal(holdings)
	if err != nil {
		return nil, fmt.Errorf("encoding holdings: %w", err)
	}
	return zstdEncoder.EncodeAll(encoded, nil), nil
}

func decodeHoldings(payload []byte) (gate.Holdings, error) {
	decompressed, err := zstdDecoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing holdings: %w", err)
	}
	var holdings gate.Holdings
	if err := codec.Unmarshal(decompressed, &holdings); err != nil {
		return nil, fmt.Errorf("decoding holdings: %w", err)
	}
	return holdings, nil
}

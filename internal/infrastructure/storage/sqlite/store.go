package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/GriffinCanCode/coderegistry/internal/domain/ledger"
	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

var (
	_ registry.Store   = (*Store)(nil)
	_ ledger.Committer = (*Store)(nil)
)

// Store persists one row per account. The row body is the registry as JSON,
// zstd-compressed.
type Store struct {
	db     *sql.DB
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	logger *logging.Logger
}

// Open opens a SQLite registry store and applies embedded migrations
func Open(ctx context.Context, path string, logger *logging.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, enc: enc, dec: dec, logger: logger.OrNop().Component("sqlite")}
	s.logger.Info("registry store opened", zap.String("path", path))
	return s, nil
}

// Close closes the database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.dec.Close()
	_ = s.enc.Close()
	return s.db.Close()
}

// Load returns the registry at addr
func (s *Store) Load(ctx context.Context, addr types.Address) (*types.Registry, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM registries WHERE address = ?`, addr.Long()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load registry %s: %w", addr, err)
	}

	reg, err := s.decode(body)
	if err != nil {
		return nil, false, fmt.Errorf("decode registry %s: %w", addr, err)
	}
	return reg, true, nil
}

// Save writes one registry
func (s *Store) Save(ctx context.Context, reg *types.Registry) error {
	return s.Commit(ctx, []*types.Registry{reg})
}

// Commit writes every registry in one SQL transaction
func (s *Store) Commit(ctx context.Context, regs []*types.Registry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}

	now := time.Now().UTC().UnixMilli()
	for _, reg := range regs {
		body, err := s.encode(reg)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode registry %s: %w", reg.Address, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO registries (address, body, packages, modules, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(address) DO UPDATE SET
			   body = excluded.body,
			   packages = excluded.packages,
			   modules = excluded.modules,
			   updated_at = excluded.updated_at`,
			reg.Address.Long(), body, len(reg.Packages), reg.ModuleCount(), now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save registry %s: %w", reg.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Addresses lists stored accounts in address order
func (s *Store) Addresses(ctx context.Context) ([]types.Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT address FROM registries ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var out []types.Address
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		addr, err := types.ParseAddress(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}

func (s *Store) encode(reg *types.Registry) ([]byte, error) {
	raw, err := sonic.Marshal(reg)
	if err != nil {
		return nil, err
	}
	return s.enc.EncodeAll(raw, nil), nil
}

func (s *Store) decode(body []byte) (*types.Registry, error) {
	raw, err := s.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, err
	}
	var reg types.Registry
	if err := sonic.Unmarshal(raw, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

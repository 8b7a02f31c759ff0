package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"fxcache/internal/adapters"
	"fxcache/internal/domain"
	"fxcache/internal/platform/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
)

const undefinedTable = "42P01"

// querier is implemented by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type RateStore struct {
	pool  *pgxpool.Pool
	sqlDB *sql.DB
	q     querier
	inTx  bool
}

func (s *RateStore) EnsureSchema(ctx context.Context) error {
	if err := db.Migrate(ctx, s.sqlDB); err != nil {
		return fmt.Errorf("failed to ensure currency_rates schema: %w", err)
	}
	return nil
}

// Recreate discards every row of the table at once. Inside RunInTx the discard
// is only visible to readers after commit.
func (s *RateStore) Recreate(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, `truncate table currency_rates`); err != nil {
		return fmt.Errorf("failed to truncate currency_rates: %w", err)
	}
	return nil
}

func (s *RateStore) InsertBase(ctx context.Context, code domain.CurrencyCode, description string) error {
	const q = `insert into currency_rates (code, description, exchange_rate) values ($1, $2, $3)`

	if _, err := s.q.Exec(ctx, q, code.String(), description, domain.BaseRate); err != nil {
		return fmt.Errorf("failed to insert base currency %q: %w", code, err)
	}
	return nil
}

func (s *RateStore) InsertRates(ctx context.Context, rows []domain.RateRecord) error {
	if len(rows) == 0 {
		return nil
	}

	const q = `insert into currency_rates (code, description, exchange_rate) values ($1, $2, $3)`

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(q, row.Code.String(), row.Description, row.Rate)
	}

	br := s.q.SendBatch(ctx, batch)
	for _, row := range rows {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert rate for currency %q: %w", row.Code, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close insert batch: %w", err)
	}
	return nil
}

func (s *RateStore) UpdateRate(ctx context.Context, code domain.CurrencyCode, rate decimal.Decimal) (bool, error) {
	const q = `update currency_rates set exchange_rate = $2 where code = $1`

	tag, err := s.q.Exec(ctx, q, code.String(), rate)
	if err != nil {
		return false, fmt.Errorf("failed to update rate for currency %q: %w", code, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *RateStore) CurrentBase(ctx context.Context) (domain.CurrencyCode, bool, error) {
	// two rows are enough to tell a unique base from a corrupted table
	const q = `select code from currency_rates where exchange_rate = 1 order by code limit 2`

	rows, err := s.q.Query(ctx, q)
	if err != nil {
		if isUndefinedTable(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to query base currency: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0, 2)
	for rows.Next() {
		var c string
		if err = rows.Scan(&c); err != nil {
			return "", false, fmt.Errorf("failed to scan base currency: %w", err)
		}
		codes = append(codes, c)
	}
	if err = rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error iterating base currencies: %w", err)
	}

	if len(codes) != 1 {
		return "", false, nil
	}
	return domain.CurrencyCode(codes[0]), true, nil
}

func (s *RateStore) AllOrderedByCode(ctx context.Context) ([]domain.RateRecord, error) {
	const q = `select code, description, exchange_rate from currency_rates order by code`

	rows, err := s.q.Query(ctx, q)
	if err != nil {
		if isUndefinedTable(err) {
			return []domain.RateRecord{}, nil
		}
		return nil, fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()

	records := make([]domain.RateRecord, 0, 16)
	for rows.Next() {
		var (
			code string
			rec  domain.RateRecord
		)
		if err = rows.Scan(&code, &rec.Description, &rec.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		rec.Code = domain.CurrencyCode(code)
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return []domain.RateRecord{}, nil
		}
		return nil, fmt.Errorf("error iterating rates: %w", err)
	}
	return records, nil
}

func (s *RateStore) RunInTx(ctx context.Context, fn func(tx adapters.RateStore) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err = fn(&RateStore{pool: s.pool, sqlDB: s.sqlDB, q: tx, inTx: true}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}

func NewRateStore(pool *pgxpool.Pool) *RateStore {
	return &RateStore{pool: pool, sqlDB: stdlib.OpenDBFromPool(pool), q: pool}
}

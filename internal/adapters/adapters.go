package adapters

import (
	"context"
	"fxcache/internal/domain"

	"github.com/shopspring/decimal"
)

// RateProvider never fails: any fetch problem yields an empty snapshot.
type RateProvider interface {
	FetchRates(ctx context.Context, base domain.CurrencyCode) domain.Snapshot
}

type RateStore interface {
	EnsureSchema(ctx context.Context) error
	Recreate(ctx context.Context) error
	InsertBase(ctx context.Context, code domain.CurrencyCode, description string) error
	InsertRates(ctx context.Context, rows []domain.RateRecord) error
	UpdateRate(ctx context.Context, code domain.CurrencyCode, rate decimal.Decimal) (bool, error)
	// CurrentBase returns the code of the single record at the base rate.
	// ok is false when the table is missing, empty, or holds zero or several base rows.
	CurrentBase(ctx context.Context) (code domain.CurrencyCode, ok bool, err error)
	AllOrderedByCode(ctx context.Context) ([]domain.RateRecord, error)
	// RunInTx runs fn against a store bound to a single transaction.
	RunInTx(ctx context.Context, fn func(tx RateStore) error) error
}

type RateListCache interface {
	Get(base domain.CurrencyCode) ([]domain.RateRecord, bool)
	Set(base domain.CurrencyCode, records []domain.RateRecord)
	Invalidate()
}

type SyncNotifier interface {
	Publish(ctx context.Context, event domain.SyncEvent) error
}

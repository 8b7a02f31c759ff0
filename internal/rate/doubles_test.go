package rate

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"fxcache/internal/adapters"
	"fxcache/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Testify mocks ---

type MockRateProvider struct{ mock.Mock }

func (m *MockRateProvider) FetchRates(ctx context.Context, base domain.CurrencyCode) domain.Snapshot {
	args := m.Called(ctx, base)
	s, _ := args.Get(0).(domain.Snapshot)
	return s
}

type MockSyncNotifier struct{ mock.Mock }

func (m *MockSyncNotifier) Publish(ctx context.Context, event domain.SyncEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// --- in-memory store ---

var errStoreDown = errors.New("store down")

// memStore mimics the persisted table: rows keyed by code, schema presence,
// and RunInTx applying all writes or none.
type memStore struct {
	mu        sync.Mutex
	hasSchema bool
	rows      map[domain.CurrencyCode]domain.RateRecord

	failCurrentBase  bool
	failEnsureSchema bool
	failInsertRates  bool
	failUpdate       bool

	recreated int
}

func newMemStore() *memStore {
	return &memStore{rows: map[domain.CurrencyCode]domain.RateRecord{}}
}

func (s *memStore) seed(base domain.CurrencyCode, records ...domain.RateRecord) *memStore {
	s.hasSchema = true
	s.rows[base] = domain.RateRecord{Code: base, Description: "Base", Rate: domain.BaseRate}
	for _, r := range records {
		s.rows[r.Code] = r
	}
	return s
}

func (s *memStore) EnsureSchema(context.Context) error {
	if s.failEnsureSchema {
		return errStoreDown
	}
	s.hasSchema = true
	return nil
}

func (s *memStore) Recreate(context.Context) error {
	s.rows = map[domain.CurrencyCode]domain.RateRecord{}
	s.recreated++
	return nil
}

func (s *memStore) InsertBase(_ context.Context, code domain.CurrencyCode, description string) error {
	return s.insert(domain.RateRecord{Code: code, Description: description, Rate: domain.BaseRate})
}

func (s *memStore) InsertRates(_ context.Context, rows []domain.RateRecord) error {
	if s.failInsertRates {
		return errStoreDown
	}
	for _, r := range rows {
		if err := s.insert(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) insert(r domain.RateRecord) error {
	if !s.hasSchema {
		return errors.New("no table")
	}
	if _, exists := s.rows[r.Code]; exists {
		return errors.New("duplicate key " + r.Code.String())
	}
	s.rows[r.Code] = r
	return nil
}

func (s *memStore) UpdateRate(_ context.Context, code domain.CurrencyCode, rate decimal.Decimal) (bool, error) {
	if s.failUpdate {
		return false, errStoreDown
	}
	r, ok := s.rows[code]
	if !ok {
		return false, nil
	}
	r.Rate = rate
	s.rows[code] = r
	return true, nil
}

func (s *memStore) CurrentBase(context.Context) (domain.CurrencyCode, bool, error) {
	if s.failCurrentBase {
		return "", false, errStoreDown
	}
	var found []domain.CurrencyCode
	for _, r := range s.rows {
		if r.IsBase() {
			found = append(found, r.Code)
		}
	}
	if len(found) != 1 {
		return "", false, nil
	}
	return found[0], true, nil
}

func (s *memStore) AllOrderedByCode(context.Context) ([]domain.RateRecord, error) {
	codes := slices.Sorted(maps.Keys(s.rows))
	out := make([]domain.RateRecord, 0, len(codes))
	for _, c := range codes {
		out = append(out, s.rows[c])
	}
	return out, nil
}

func (s *memStore) RunInTx(ctx context.Context, fn func(tx adapters.RateStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memStore{
		hasSchema:        s.hasSchema,
		rows:             maps.Clone(s.rows),
		failInsertRates:  s.failInsertRates,
		failUpdate:       s.failUpdate,
		failEnsureSchema: s.failEnsureSchema,
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.rows = tx.rows
	s.hasSchema = tx.hasSchema
	s.recreated += tx.recreated
	return nil
}

func (s *memStore) codes() []domain.CurrencyCode {
	return slices.Sorted(maps.Keys(s.rows))
}

func (s *memStore) rate(code domain.CurrencyCode) decimal.Decimal {
	return s.rows[code].Rate
}

// --- list cache ---

type mapCache struct {
	lists       map[domain.CurrencyCode][]domain.RateRecord
	invalidated int
}

func newMapCache() *mapCache {
	return &mapCache{lists: map[domain.CurrencyCode][]domain.RateRecord{}}
}

func (c *mapCache) Get(base domain.CurrencyCode) ([]domain.RateRecord, bool) {
	l, ok := c.lists[base]
	return l, ok
}

func (c *mapCache) Set(base domain.CurrencyCode, records []domain.RateRecord) {
	c.lists[base] = records
}

func (c *mapCache) Invalidate() {
	c.lists = map[domain.CurrencyCode][]domain.RateRecord{}
	c.invalidated++
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func snapshot(base domain.CurrencyCode, rates map[domain.CurrencyCode]string) domain.Snapshot {
	m := make(map[domain.CurrencyCode]decimal.Decimal, len(rates))
	for code, r := range rates {
		m[code] = dec(r)
	}
	return domain.NewSnapshot(base, "2017-05-12", m)
}

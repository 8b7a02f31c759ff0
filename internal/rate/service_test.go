package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	ratecache "fxcache/internal/adapters/cache"
	"fxcache/internal/domain"
	"fxcache/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// failingListStore fails reads while leaving writes to the embedded store.
type failingListStore struct {
	*memStore
}

func (failingListStore) AllOrderedByCode(context.Context) ([]domain.RateRecord, error) {
	return nil, errStoreDown
}

// interleavingStore runs hooks around the first scan, letting a test start
// another synchronization while a read is in progress.
type interleavingStore struct {
	*memStore
	once       sync.Once
	beforeScan func()
	afterScan  func()
}

func (s *interleavingStore) AllOrderedByCode(ctx context.Context) ([]domain.RateRecord, error) {
	first := false
	s.once.Do(func() { first = true })
	if first && s.beforeScan != nil {
		s.beforeScan()
	}
	records, err := s.memStore.AllOrderedByCode(ctx)
	if first && s.afterScan != nil {
		s.afterScan()
	}
	return records, err
}

func lineRates(view View) map[domain.CurrencyCode]string {
	out := make(map[domain.CurrencyCode]string, len(view.Lines))
	for _, l := range view.Lines {
		out[l.Code] = l.Rate.String()
	}
	return out
}

func TestService_Rates_BootstrapView(t *testing.T) {
	f := newSyncFixture(newMemStore())
	svc := NewService(f.sync, testLookup)
	f.provider.On("FetchRates", mock.Anything, domain.CurrencyCode("AUD")).
		Return(snapshot("AUD", map[domain.CurrencyCode]string{"USD": "0.7384", "EUR": "0.6712", "FOO": "1"})).Once()

	view, err := svc.Rates(context.Background(), "AUD")
	require.NoError(t, err)
	require.Equal(t, domain.CurrencyCode("AUD"), view.Base)
	require.Equal(t, "Australian Dollar", view.Description)
	require.Equal(t, domain.ModeBootstrap, view.Mode)

	require.Len(t, view.Lines, 2)
	require.Equal(t, domain.CurrencyCode("EUR"), view.Lines[0].Code)
	require.Equal(t, domain.CurrencyCode("USD"), view.Lines[1].Code)
	require.Equal(t, "1 AUD is = 0.7384 US Dollar(USD)", view.Lines[1].String())
}

func TestService_Rates_BaseChangeThenRefresh(t *testing.T) {
	store := newMemStore().seed("AUD", domain.RateRecord{Code: "USD", Description: "US Dollar", Rate: dec("0.74")})
	f := newSyncFixture(store)
	svc := NewService(f.sync, testLookup)
	f.provider.On("FetchRates", mock.Anything, domain.CurrencyCode("USD")).
		Return(snapshot("USD", map[domain.CurrencyCode]string{"EUR": "0.92"})).Once()
	f.provider.On("FetchRates", mock.Anything, domain.CurrencyCode("USD")).
		Return(snapshot("USD", map[domain.CurrencyCode]string{"EUR": "0.93"})).Once()

	view, err := svc.Rates(context.Background(), "USD")
	require.NoError(t, err)
	require.Equal(t, domain.ModeRebuild, view.Mode)
	require.Len(t, view.Lines, 1)
	require.True(t, view.Lines[0].Rate.Equal(dec("0.92")))

	view, err = svc.Rates(context.Background(), "USD")
	require.NoError(t, err)
	require.Equal(t, domain.ModeRefresh, view.Mode)
	require.True(t, view.Lines[0].Rate.Equal(dec("0.93")))
	f.provider.AssertExpectations(t)
}

func TestService_Rates_UnsupportedBase(t *testing.T) {
	f := newSyncFixture(newMemStore())
	svc := NewService(f.sync, testLookup)

	_, err := svc.Rates(context.Background(), "ZZZ")
	require.ErrorIs(t, err, domain.ErrBaseUnsupported)
}

func TestService_Rates_SyncStorageError(t *testing.T) {
	store := newMemStore()
	store.failEnsureSchema = true
	f := newSyncFixture(store)
	svc := NewService(f.sync, testLookup)
	f.provider.On("FetchRates", mock.Anything, domain.CurrencyCode("AUD")).Return(domain.EmptySnapshot("AUD")).Once()

	_, err := svc.Rates(context.Background(), "AUD")
	require.ErrorIs(t, err, domain.ErrStorage)
}

func TestService_Rates_ListStorageError(t *testing.T) {
	store := failingListStore{newMemStore()}
	provider := new(MockRateProvider)
	s := NewSynchronizer(store, provider, testLookup, newMapCache(), nil, metrics.NewMetrics(prometheus.NewRegistry()))
	provider.On("FetchRates", mock.Anything, domain.CurrencyCode("AUD")).Return(domain.EmptySnapshot("AUD")).Once()

	_, err := NewService(s, testLookup).Rates(context.Background(), "AUD")
	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, errStoreDown)
}

func TestService_Rates_ConcurrentBaseSwitchWaitsForRead(t *testing.T) {
	ctx := context.Background()
	store := &interleavingStore{memStore: newMemStore()}
	provider := new(MockRateProvider)
	s := NewSynchronizer(store, provider, testLookup, newMapCache(), nil, metrics.NewMetrics(prometheus.NewRegistry()))
	svc := NewService(s, testLookup)

	provider.On("FetchRates", mock.Anything, domain.CurrencyCode("AUD")).
		Return(snapshot("AUD", map[domain.CurrencyCode]string{"USD": "0.75", "EUR": "0.6"})).Once()
	provider.On("FetchRates", mock.Anything, domain.CurrencyCode("USD")).
		Return(snapshot("USD", map[domain.CurrencyCode]string{"EUR": "0.9", "AUD": "1.33"})).Once()

	done := make(chan error, 1)
	store.beforeScan = func() {
		go func() {
			_, err := s.Synchronize(ctx, "USD")
			done <- err
		}()
		time.Sleep(100 * time.Millisecond)
	}

	view, err := svc.Rates(ctx, "AUD")
	require.NoError(t, err)
	require.NoError(t, <-done)

	require.Equal(t, map[domain.CurrencyCode]string{"EUR": "0.6", "USD": "0.75"}, lineRates(view))

	current, ok, err := svc.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.CurrencyCode("USD"), current.Base)
	require.Equal(t, map[domain.CurrencyCode]string{"AUD": "1.33", "EUR": "0.9"}, lineRates(current))
}

func TestService_Current_RefreshDuringReadIsNotHiddenByCache(t *testing.T) {
	ctx := context.Background()
	store := &interleavingStore{
		memStore: newMemStore().seed("AUD", domain.RateRecord{Code: "USD", Description: "US Dollar", Rate: dec("0.7")}),
	}
	listCache, err := ratecache.NewRateListCache(16)
	require.NoError(t, err)
	defer listCache.Close()

	provider := new(MockRateProvider)
	s := NewSynchronizer(store, provider, testLookup, listCache, nil, metrics.NewMetrics(prometheus.NewRegistry()))
	svc := NewService(s, testLookup)
	provider.On("FetchRates", mock.Anything, domain.CurrencyCode("AUD")).
		Return(snapshot("AUD", map[domain.CurrencyCode]string{"USD": "0.8"})).Once()

	done := make(chan error, 1)
	store.afterScan = func() {
		go func() {
			_, _, refreshErr := s.RefreshCurrent(ctx)
			done <- refreshErr
		}()
		time.Sleep(100 * time.Millisecond)
	}

	view, ok, err := svc.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "0.7", lineRates(view)["USD"])
	require.NoError(t, <-done)

	require.True(t, store.rate("USD").Equal(dec("0.8")))
	view, ok, err = svc.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "0.8", lineRates(view)["USD"])
}

func TestService_Current_UsesCache(t *testing.T) {
	store := newMemStore().seed("AUD", domain.RateRecord{Code: "USD", Description: "US Dollar", Rate: dec("0.74")})
	f := newSyncFixture(store)
	svc := NewService(f.sync, testLookup)

	view, ok, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, view.Lines, 1)

	cached, hit := f.cache.Get("AUD")
	require.True(t, hit)
	require.Len(t, cached, 2)

	// table changes are invisible until the synchronizer invalidates the cache
	store.rows["USD"] = domain.RateRecord{Code: "USD", Description: "US Dollar", Rate: dec("0.80")}
	view, _, err = svc.Current(context.Background())
	require.NoError(t, err)
	require.True(t, view.Lines[0].Rate.Equal(dec("0.74")))
}

func TestService_Current_NoBase(t *testing.T) {
	f := newSyncFixture(newMemStore())
	svc := NewService(f.sync, testLookup)

	_, ok, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestService_Current_StorageError(t *testing.T) {
	store := newMemStore().seed("AUD")
	store.failCurrentBase = true
	f := newSyncFixture(store)

	_, _, err := NewService(f.sync, testLookup).Current(context.Background())
	require.ErrorIs(t, err, domain.ErrStorage)
}

func TestSynchronizer_RefreshCurrent_BaseNoLongerSupported(t *testing.T) {
	store := newMemStore().seed("CHF", domain.RateRecord{Code: "USD", Description: "US Dollar", Rate: dec("1.1")})
	f := newSyncFixture(store)

	res, ok, err := f.sync.RefreshCurrent(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, domain.SyncResult{}, res)
	f.provider.AssertNotCalled(t, "FetchRates", mock.Anything, mock.Anything)
}

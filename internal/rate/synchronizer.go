package rate

import (
	"context"
	"fmt"
	"fxcache/internal/adapters"
	"fxcache/internal/domain"
	"fxcache/internal/metrics"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Synchronizer decides whether the persisted rate table is bootstrapped, rebuilt or
// refreshed, and is the only writer of that table. Writes are serialized; reads of
// the table and of the list cache go through the same lock.
type Synchronizer struct {
	store    adapters.RateStore
	provider adapters.RateProvider
	lookup   domain.Lookup
	cache    adapters.RateListCache
	notifier adapters.SyncNotifier
	metrics  *metrics.Metrics
	// -----
	mu sync.RWMutex
}

// Synchronize brings the rate table in line with requestedBase.
// Only storage failures are returned (wrapped with domain.ErrStorage); a failed fetch
// just means no rates are written this time.
func (s *Synchronizer) Synchronize(ctx context.Context, requestedBase domain.CurrencyCode) (domain.SyncResult, error) {
	description, ok := s.lookup.Description(requestedBase)
	if !ok {
		return domain.SyncResult{}, fmt.Errorf("%w: %q", domain.ErrBaseUnsupported, requestedBase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synchronize(ctx, requestedBase, description)
}

// SynchronizeAndList synchronizes requestedBase and reads the table before any
// other synchronization can replace it.
func (s *Synchronizer) SynchronizeAndList(ctx context.Context, requestedBase domain.CurrencyCode) (domain.SyncResult, []domain.RateRecord, error) {
	description, ok := s.lookup.Description(requestedBase)
	if !ok {
		return domain.SyncResult{}, nil, fmt.Errorf("%w: %q", domain.ErrBaseUnsupported, requestedBase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.synchronize(ctx, requestedBase, description)
	if err != nil {
		return result, nil, err
	}
	records, err := s.list(ctx, requestedBase)
	if err != nil {
		return result, nil, err
	}
	return result, records, nil
}

// Current returns the base the table is built for together with its rows.
// ok is false when the table holds no determinable base.
func (s *Synchronizer) Current(ctx context.Context) (domain.CurrencyCode, []domain.RateRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base, ok, err := s.store.CurrentBase(ctx)
	if err != nil {
		return "", nil, false, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if !ok {
		return "", nil, false, nil
	}
	records, err := s.list(ctx, base)
	if err != nil {
		return "", nil, false, err
	}
	return base, records, true, nil
}

// RefreshCurrent refreshes whatever base the table is built for. ok is false when
// there is nothing to refresh: no determinable base, or a base the lookup no longer has.
func (s *Synchronizer) RefreshCurrent(ctx context.Context) (domain.SyncResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, ok, err := s.store.CurrentBase(ctx)
	if err != nil {
		return domain.SyncResult{}, false, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if !ok {
		return domain.SyncResult{}, false, nil
	}
	description, supported := s.lookup.Description(base)
	if !supported {
		return domain.SyncResult{}, false, nil
	}
	result, err := s.synchronize(ctx, base, description)
	return result, err == nil, err
}

// list serves the ordered rows from the cache, filling it on a miss.
// Callers hold mu, so a fill never lands after the Invalidate of a newer sync.
func (s *Synchronizer) list(ctx context.Context, base domain.CurrencyCode) ([]domain.RateRecord, error) {
	if records, ok := s.cache.Get(base); ok {
		return records, nil
	}
	records, err := s.store.AllOrderedByCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	s.cache.Set(base, records)
	return records, nil
}

// synchronize expects mu to be held for writing.
func (s *Synchronizer) synchronize(ctx context.Context, requestedBase domain.CurrencyCode, description string) (domain.SyncResult, error) {
	execID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{"exec_id": execID, "base": requestedBase})
	started := time.Now()

	// STEP 1: deriving cache state from the table
	mode := s.detectMode(ctx, log, requestedBase)
	log = log.WithField("mode", mode)

	// STEP 2: fetching before any write, so no transaction waits on the network
	snapshot := s.provider.FetchRates(ctx, requestedBase)
	if snapshot.IsEmpty() {
		s.metrics.EmptySnapshots.Inc()
		log.Warn("No rates available this cycle")
	}

	// STEP 3: applying the snapshot
	var (
		result domain.SyncResult
		err    error
	)
	if mode == domain.ModeRefresh {
		result, err = s.refresh(ctx, requestedBase, snapshot)
	} else {
		result, err = s.rebuild(ctx, requestedBase, description, snapshot)
	}
	result.Base = requestedBase
	result.Mode = mode
	result.Fetched = len(snapshot.Rates)

	s.metrics.SyncDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		s.metrics.SyncTotal.WithLabelValues(string(mode), "error").Inc()
		log.WithError(err).Error("Rate synchronization failed")
		return result, err
	}
	s.metrics.SyncTotal.WithLabelValues(string(mode), "ok").Inc()
	s.metrics.RowsWritten.WithLabelValues(string(mode)).Add(float64(result.Written))
	s.metrics.DiscardedCodes.Add(float64(result.Discarded))

	// STEP 4: cached lists are stale now, and listeners may want to know
	s.cache.Invalidate()
	if s.notifier != nil {
		event := domain.SyncEvent{
			ExecID:   execID,
			Base:     requestedBase.String(),
			Mode:     mode,
			Written:  result.Written,
			SyncedAt: time.Now().UTC(),
		}
		if pubErr := s.notifier.Publish(ctx, event); pubErr != nil {
			log.WithError(pubErr).Warn("Sync event wasn't published")
		}
	}

	log.WithFields(logrus.Fields{
		"fetched":   result.Fetched,
		"written":   result.Written,
		"discarded": result.Discarded,
	}).Info("Rate synchronization finished")
	return result, nil
}

func (s *Synchronizer) detectMode(ctx context.Context, log *logrus.Entry, requestedBase domain.CurrencyCode) domain.SyncMode {
	currentBase, ok, err := s.store.CurrentBase(ctx)
	if err != nil {
		// unreadable state is never trusted, the table gets rebuilt
		log.WithError(err).Warn("Current base currency can't be determined, rebuilding")
		return domain.ModeBootstrap
	}
	switch {
	case !ok:
		return domain.ModeBootstrap
	case currentBase != requestedBase:
		log.WithField("previous_base", currentBase).Info("Base currency changed, loading fresh values")
		return domain.ModeRebuild
	default:
		return domain.ModeRefresh
	}
}

// rebuild discards the table and repopulates it with the base row and every allow-listed snapshot rate.
func (s *Synchronizer) rebuild(ctx context.Context, base domain.CurrencyCode, description string, snapshot domain.Snapshot) (domain.SyncResult, error) {
	var result domain.SyncResult

	if err := s.store.EnsureSchema(ctx); err != nil {
		return result, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	rows := make([]domain.RateRecord, 0, len(snapshot.Rates))
	for _, code := range snapshot.Codes() {
		if code == base {
			continue
		}
		desc, ok := s.lookup.Description(code)
		if !ok {
			result.Discarded++
			continue
		}
		rows = append(rows, domain.RateRecord{Code: code, Description: desc, Rate: snapshot.Rates[code]})
	}

	err := s.store.RunInTx(ctx, func(tx adapters.RateStore) error {
		if err := tx.Recreate(ctx); err != nil {
			return err
		}
		if err := tx.InsertBase(ctx, base, description); err != nil {
			return err
		}
		return tx.InsertRates(ctx, rows)
	})
	if err != nil {
		return result, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	result.Written = len(rows)
	return result, nil
}

// refresh overwrites rates of rows that already exist. New codes are not inserted
// and the base row is never touched.
func (s *Synchronizer) refresh(ctx context.Context, base domain.CurrencyCode, snapshot domain.Snapshot) (domain.SyncResult, error) {
	var result domain.SyncResult

	if snapshot.IsEmpty() {
		return result, nil
	}

	err := s.store.RunInTx(ctx, func(tx adapters.RateStore) error {
		for _, code := range snapshot.Codes() {
			if code == base {
				continue
			}
			if !s.lookup.Contains(code) {
				result.Discarded++
				continue
			}
			updated, err := tx.UpdateRate(ctx, code, snapshot.Rates[code])
			if err != nil {
				return err
			}
			if updated {
				result.Written++
			}
		}
		return nil
	})
	if err != nil {
		return domain.SyncResult{Discarded: result.Discarded}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return result, nil
}

// NewSynchronizer wires a synchronizer. notifier may be nil.
func NewSynchronizer(
	store adapters.RateStore,
	provider adapters.RateProvider,
	lookup domain.Lookup,
	cache adapters.RateListCache,
	notifier adapters.SyncNotifier,
	m *metrics.Metrics,
) *Synchronizer {
	return &Synchronizer{
		store:    store,
		provider: provider,
		lookup:   lookup,
		cache:    cache,
		notifier: notifier,
		metrics:  m,
	}
}

package rate

import (
	"context"
	"fxcache/internal/domain"
)

// Service is the single entry point for presenters: synchronize, then read.
type Service struct {
	sync   *Synchronizer
	lookup domain.Lookup
}

// Rates synchronizes the table for base and returns the resulting view.
func (s *Service) Rates(ctx context.Context, base domain.CurrencyCode) (View, error) {
	result, records, err := s.sync.SynchronizeAndList(ctx, base)
	if err != nil {
		return View{}, err
	}

	view := s.newView(base, records)
	view.Mode = result.Mode
	return view, nil
}

// Current returns the stored rates without synchronizing; ok is false when no base is set.
func (s *Service) Current(ctx context.Context) (View, bool, error) {
	base, records, ok, err := s.sync.Current(ctx)
	if err != nil || !ok {
		return View{}, ok, err
	}
	return s.newView(base, records), true, nil
}

func (s *Service) Synchronize(ctx context.Context, base domain.CurrencyCode) (domain.SyncResult, error) {
	return s.sync.Synchronize(ctx, base)
}

func (s *Service) RefreshCurrent(ctx context.Context) (domain.SyncResult, bool, error) {
	return s.sync.RefreshCurrent(ctx)
}

func (s *Service) newView(base domain.CurrencyCode, records []domain.RateRecord) View {
	description, _ := s.lookup.Description(base)
	view := View{Base: base, Description: description, Lines: make([]Line, 0, len(records))}
	for _, r := range records {
		if r.Code == base {
			continue
		}
		view.Lines = append(view.Lines, Line{Base: base, Code: r.Code, Description: r.Description, Rate: r.Rate})
	}
	return view
}

func NewService(sync *Synchronizer, lookup domain.Lookup) *Service {
	return &Service{sync: sync, lookup: lookup}
}

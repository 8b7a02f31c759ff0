package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"fxcache/internal/domain"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultFetchTimeout = 10 * time.Second

type RateProvider struct {
	http         *http.Client
	baseURL      string
	fetchTimeout time.Duration
}

type apiResponse struct {
	Base       string                     `json:"base"`
	LegacyBase string                     `json:"_base"`
	Date       string                     `json:"date"`
	Rates      map[string]decimal.Decimal `json:"rates"`
}

// FetchRates returns the latest rates for base, or an empty snapshot when they can't be fetched.
func (p *RateProvider) FetchRates(ctx context.Context, base domain.CurrencyCode) domain.Snapshot {
	reqCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	snapshot, err := p.getRates(reqCtx, base)
	if err != nil {
		logrus.WithError(err).WithField("base", base).Warn("Rates weren't fetched, continuing without them")
		return domain.EmptySnapshot(base)
	}
	return snapshot
}

func (p *RateProvider) getRates(ctx context.Context, base domain.CurrencyCode) (domain.Snapshot, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("base", base.String())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to create request for currency %q: %w", base, err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to execute request for currency %q: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Snapshot{}, fmt.Errorf("unexpected status code %d for currency %q: %s", resp.StatusCode, base, resp.Status)
	}

	var body apiResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to decode response for currency %q: %w", base, err)
	}

	respBase := body.Base
	if respBase == "" {
		respBase = body.LegacyBase
	}
	// rates relative to some other base would corrupt the table
	if respBase != "" && !strings.EqualFold(respBase, base.String()) {
		return domain.Snapshot{}, fmt.Errorf("api returned rates for base %q instead of %q", respBase, base)
	}

	rates := make(map[domain.CurrencyCode]decimal.Decimal, len(body.Rates))
	for code, rate := range body.Rates {
		rates[domain.CurrencyCode(strings.ToUpper(code))] = rate
	}
	return domain.NewSnapshot(base, body.Date, rates), nil
}

func NewRateProvider(httpClient *http.Client, baseURL string, fetchTimeout time.Duration) *RateProvider {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &RateProvider{http: httpClient, baseURL: baseURL, fetchTimeout: fetchTimeout}
}

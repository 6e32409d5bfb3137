package service

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/yahoo"
)

// splitTTL bounds how long a symbol's split history is reused. Splits
// are rare, so a long TTL is safe.
const splitTTL = 24 * time.Hour

type cachedSplits struct {
	splits  []yahoo.Split
	expires time.Time
}

// SplitService supplies cumulative split adjustment factors. It
// implements ledger.SplitSource. Split histories are fetched once per
// symbol and cached; a fetch failure yields factor 1 so a provider
// outage degrades to unadjusted quantities instead of failing replay.
type SplitService struct {
	client ChartClient
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cachedSplits
}

// NewSplitService creates a SplitService.
func NewSplitService(client ChartClient) *SplitService {
	return &SplitService{
		client: client,
		now:    time.Now,
		cache:  make(map[string]cachedSplits),
	}
}

// AdjustmentFactor returns the cumulative multiplicative factor for
// splits effective after txnDate and on or before targetDate. With no
// applicable splits the factor is 1.
func (s *SplitService) AdjustmentFactor(symbol string, txnDate, targetDate time.Time) decimal.Decimal {
	factor := decimal.NewFromInt(1)
	for _, split := range s.splitsFor(symbol) {
		if split.Date.After(txnDate) && !split.Date.After(targetDate) {
			factor = factor.Mul(decimal.NewFromFloat(split.Factor))
		}
	}
	return factor
}

func (s *SplitService) splitsFor(symbol string) []yahoo.Split {
	s.mu.Lock()
	entry, ok := s.cache[symbol]
	s.mu.Unlock()
	if ok && s.now().Before(entry.expires) {
		return entry.splits
	}

	splits := s.fetch(symbol)

	s.mu.Lock()
	s.cache[symbol] = cachedSplits{splits: splits, expires: s.now().Add(splitTTL)}
	s.mu.Unlock()
	return splits
}

func (s *SplitService) fetch(symbol string) []yahoo.Split {
	resp, err := s.client.QuerySplits(symbol)
	if err != nil {
		return nil
	}
	splits, err := yahoo.ParseSplits(resp)
	if err != nil {
		return nil
	}
	// Compare at day granularity: a split on the transaction's own date
	// must not adjust that transaction.
	for i := range splits {
		splits[i].Date = splits[i].Date.UTC().Truncate(24 * time.Hour)
	}
	return splits
}

package recall

import (
	"context"
	"freshMarket/domain"
	"freshMarket/pkg/logger"
	"freshMarket/pkg/metrics"
	"time"
)

const (
	defaultRecallTimeout = 3 * time.Second

	// Each strategy fetches more than the final limit so the downstream
	// rerank and cap stages have material to drop.
	oversampleFactor = 3
	oversampleFloor  = 50
)

// Fanout runs every registered recall strategy concurrently under one shared
// timeout and keeps whatever finished in time.
type Fanout struct {
	strategies []Strategy
	timeout    time.Duration
}

func NewFanout(strategies []Strategy, timeout time.Duration) *Fanout {
	if timeout <= 0 {
		timeout = defaultRecallTimeout
	}
	return &Fanout{
		strategies: strategies,
		timeout:    timeout,
	}
}

// OversampleLimit returns the per-strategy fetch size for a final limit.
func OversampleLimit(limit int) int {
	fetch := limit * oversampleFactor
	if fetch < oversampleFloor {
		fetch = oversampleFloor
	}
	return fetch
}

// Recall executes all strategies against uc. One worker per strategy writes
// into its own pre-sized slot and signals a shared done channel; the
// orchestrator waits for all slots or the timeout, whichever comes first.
// A strategy that fails or runs past the timeout contributes nothing and is
// never retried.
func (f *Fanout) Recall(ctx context.Context, uc UserContext, limit int) []domain.RecallResult {
	if len(f.strategies) == 0 {
		return nil
	}

	fetchLimit := OversampleLimit(limit)

	type slot struct {
		items []domain.CandidateItem
		err   error
	}

	slots := make([]slot, len(f.strategies))
	done := make(chan int, len(f.strategies))

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	for i := range f.strategies {
		go func(i int) {
			items, err := f.strategies[i].Fetch(runCtx, uc, fetchLimit)
			slots[i] = slot{items: items, err: err}
			done <- i
		}(i)
	}

	completed := make([]bool, len(f.strategies))
	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	remaining := len(f.strategies)
wait:
	for remaining > 0 {
		select {
		case i := <-done:
			completed[i] = true
			remaining--
		case <-timer.C:
			break wait
		}
	}

	results := make([]domain.RecallResult, 0, len(f.strategies))
	for i, st := range f.strategies {
		switch {
		case !completed[i]:
			metrics.RecallStrategyTotal.WithLabelValues(st.Name, "timeout").Inc()
			logger.Warn("recall_strategy_timeout", "strategy", st.Name, "timeout", f.timeout)
		case slots[i].err != nil:
			metrics.RecallStrategyTotal.WithLabelValues(st.Name, "error").Inc()
			logger.Warn("recall_strategy_failed", "strategy", st.Name, "error", slots[i].err)
		case len(slots[i].items) == 0:
			metrics.RecallStrategyTotal.WithLabelValues(st.Name, "empty").Inc()
		default:
			metrics.RecallStrategyTotal.WithLabelValues(st.Name, "ok").Inc()
			results = append(results, domain.RecallResult{
				Strategy: st.Name,
				Items:    slots[i].items,
			})
		}
	}

	return results
}

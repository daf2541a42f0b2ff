package exploration

import (
	"context"
	"fmt"
	"freshMarket/domain"
	"freshMarket/pkg/logger"
	"math"
	"math/rand"
	"sync/atomic"
	"time"
)

// Exploration rate band and per-lifecycle defaults. The band is enforced no
// matter what the per-status table says.
const (
	MinExplorationRate = 0.05
	MaxExplorationRate = 0.50

	defaultColdStartRate       = 0.40
	defaultWarmingRate         = 0.25
	defaultMatureRate          = 0.10
	defaultMatureDecliningRate = 0.20
	defaultInactiveRate        = 0.08

	defaultUCBAlpha = 0.3

	// A mature user whose trailing week drops below this share of the week
	// before counts as declining.
	defaultDecliningActivityRatio = 0.7
	defaultInactiveAfter          = 7 * 24 * time.Hour
)

// StateStore holds per-(user,item) bandit state in the external key-value
// store. Mutations are atomic increments so concurrent requests for the same
// user never lose updates.
type StateStore interface {
	GetBanditState(ctx context.Context, userID, itemID uint64) (domain.BanditState, bool, error)
	RecordFeedback(ctx context.Context, userID, itemID uint64, clicked bool) error
	RecordExposures(ctx context.Context, userID uint64, itemIDs []uint64) error
}

// ActivitySummary is the recent-activity trend used to detect decline.
type ActivitySummary struct {
	Recent7d   int64
	Prior7d    int64
	LastActive time.Time
}

// ProfileSource supplies lifecycle status and activity trend from the
// external user profile.
type ProfileSource interface {
	GetLifecycleStatus(ctx context.Context, userID uint64) (domain.UserLifecycleStatus, error)
	GetActivitySummary(ctx context.Context, userID uint64) (ActivitySummary, error)
}

// RateConfig is the exploration-rate-by-status table plus the UCB
// coefficient. Published as a whole snapshot.
type RateConfig struct {
	ColdStart       float64 `json:"cold_start"`
	Warming         float64 `json:"warming"`
	Mature          float64 `json:"mature"`
	MatureDeclining float64 `json:"mature_declining"`
	Inactive        float64 `json:"inactive"`

	UCBAlpha float64 `json:"ucb_alpha"`

	DecliningActivityRatio float64       `json:"declining_activity_ratio"`
	InactiveAfter          time.Duration `json:"inactive_after"`
}

func DefaultRateConfig() RateConfig {
	return RateConfig{
		ColdStart:              defaultColdStartRate,
		Warming:                defaultWarmingRate,
		Mature:                 defaultMatureRate,
		MatureDeclining:        defaultMatureDecliningRate,
		Inactive:               defaultInactiveRate,
		UCBAlpha:               defaultUCBAlpha,
		DecliningActivityRatio: defaultDecliningActivityRatio,
		InactiveAfter:          defaultInactiveAfter,
	}
}

// Engine trades exploitation against exploration per user and item, and is
// the write path for online-learning feedback.
type Engine struct {
	states   StateStore
	profiles ProfileSource
	cfg      atomic.Pointer[RateConfig]
	now      func() time.Time
	randFn   func() float64
	rng      randSource
}

func NewEngine(states StateStore, profiles ProfileSource, cfg RateConfig) *Engine {
	e := &Engine{
		states:   states,
		profiles: profiles,
		now:      time.Now,
		randFn:   rand.Float64,
		rng:      sharedRand{},
	}
	e.cfg.Store(&cfg)
	return e
}

func (e *Engine) Config() RateConfig {
	return *e.cfg.Load()
}

func (e *Engine) UpdateConfig(cfg RateConfig) {
	e.cfg.Store(&cfg)
}

// ExplorationRate maps the user's lifecycle status to a rate, always clamped
// into [MinExplorationRate, MaxExplorationRate]. Profile read failures fall
// back to the mature rate.
func (e *Engine) ExplorationRate(ctx context.Context, userID uint64) float64 {
	cfg := e.Config()
	status := e.lifecycleStatus(ctx, userID, cfg)

	var rate float64
	switch status {
	case domain.LifecycleColdStart:
		rate = cfg.ColdStart
	case domain.LifecycleWarming:
		rate = cfg.Warming
	case domain.LifecycleMatureDeclining:
		rate = cfg.MatureDeclining
	case domain.LifecycleInactive:
		rate = cfg.Inactive
	default:
		rate = cfg.Mature
	}

	return clampRate(rate)
}

// ShouldExplore is a single Bernoulli draw at the user's exploration rate.
func (e *Engine) ShouldExplore(ctx context.Context, userID uint64) bool {
	return e.randFn() < e.ExplorationRate(ctx, userID)
}

// lifecycleStatus resolves the external status and upgrades plain mature to
// mature_declining when the trailing week is materially quieter than the one
// before it, or when there is no history and the user has been away past the
// inactivity horizon.
func (e *Engine) lifecycleStatus(ctx context.Context, userID uint64, cfg RateConfig) domain.UserLifecycleStatus {
	status, err := e.profiles.GetLifecycleStatus(ctx, userID)
	if err != nil {
		logger.Warn("lifecycle_status_read_failed", "user_id", userID, "error", err)
		return domain.LifecycleMature
	}

	if status != domain.LifecycleMature {
		return status
	}

	activity, err := e.profiles.GetActivitySummary(ctx, userID)
	if err != nil {
		return status
	}

	switch {
	case activity.Prior7d > 0:
		if float64(activity.Recent7d) < cfg.DecliningActivityRatio*float64(activity.Prior7d) {
			return domain.LifecycleMatureDeclining
		}
	case activity.Recent7d == 0 && !activity.LastActive.IsZero():
		if e.now().Sub(activity.LastActive) > cfg.InactiveAfter {
			return domain.LifecycleMatureDeclining
		}
	}

	return status
}

// BanditScore adds a LinUCB-style upper-confidence bonus to the predicted
// relevance. A never-shown item gets the pure exploration bonus
// alpha*sqrt(ln(total+1)) instead of dividing by zero exposures.
func (e *Engine) BanditScore(ctx context.Context, userID, itemID uint64, predictedRelevance float64) float64 {
	st := e.state(ctx, userID, itemID)
	return e.ucbScore(st, predictedRelevance)
}

// BanditScoreWithSample returns the UCB-adjusted score together with a
// Thompson draw, both from a single state read. Rankers blending the two per
// item should use this instead of calling BanditScore and SampleThompson
// back to back.
func (e *Engine) BanditScoreWithSample(ctx context.Context, userID, itemID uint64, predictedRelevance float64) (float64, float64) {
	st := e.state(ctx, userID, itemID)
	return e.ucbScore(st, predictedRelevance), SampleBeta(e.rng, st.Alpha, st.Beta)
}

// SampleThompson draws from the (user,item) Beta posterior in [0,1].
func (e *Engine) SampleThompson(ctx context.Context, userID, itemID uint64) float64 {
	st := e.state(ctx, userID, itemID)
	return SampleBeta(e.rng, st.Alpha, st.Beta)
}

func (e *Engine) ucbScore(st domain.BanditState, predictedRelevance float64) float64 {
	alpha := e.Config().UCBAlpha

	lnTotal := math.Log(float64(st.TotalExposures) + 1)

	var bonus float64
	if st.Exposures > 0 {
		bonus = alpha * math.Sqrt(lnTotal/float64(st.Exposures+1))
	} else {
		bonus = alpha * math.Sqrt(lnTotal)
	}

	return predictedRelevance + bonus
}

// RecordFeedback applies one click/no-click observation: click bumps alpha,
// no-click bumps beta. Idempotency per event is the caller's contract; the
// store applies each call exactly once via atomic increments.
func (e *Engine) RecordFeedback(ctx context.Context, userID, itemID uint64, clicked bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := e.states.RecordFeedback(ctx, userID, itemID, clicked); err != nil {
		return fmt.Errorf("record bandit feedback: %w", err)
	}

	return nil
}

// RecordExposures bumps the per-item and per-user exposure counters.
func (e *Engine) RecordExposures(ctx context.Context, userID uint64, itemIDs []uint64) error {
	if len(itemIDs) == 0 {
		return nil
	}

	if err := e.states.RecordExposures(ctx, userID, itemIDs); err != nil {
		return fmt.Errorf("record exposures: %w", err)
	}

	return nil
}

// state reads bandit state failing open to the Beta(1,1) prior. The store
// holds raw observation counts starting at zero; the prior is added here on
// every read, so one click yields Beta(2,1), not Beta(1,1). A store that has
// no per-item state yet may still report the user's total exposures, which
// the never-shown UCB branch needs.
func (e *Engine) state(ctx context.Context, userID, itemID uint64) domain.BanditState {
	st, ok, err := e.states.GetBanditState(ctx, userID, itemID)
	if err != nil {
		logger.Warn("bandit_state_read_failed", "user_id", userID, "item_id", itemID, "error", err)
		return domain.BanditState{Alpha: 1, Beta: 1}
	}
	if !ok {
		return domain.BanditState{Alpha: 1, Beta: 1, TotalExposures: st.TotalExposures}
	}

	st.Alpha++
	st.Beta++

	return st
}

func clampRate(rate float64) float64 {
	if rate < MinExplorationRate {
		return MinExplorationRate
	}
	if rate > MaxExplorationRate {
		return MaxExplorationRate
	}
	return rate
}

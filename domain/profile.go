package domain

import "time"

// UserLifecycleStatus drives the exploration rate. Derived from the external
// user profile plus recent activity trend; never stored by this service.
type UserLifecycleStatus string

const (
	LifecycleColdStart       UserLifecycleStatus = "cold_start"
	LifecycleWarming         UserLifecycleStatus = "warming"
	LifecycleMature          UserLifecycleStatus = "mature"
	LifecycleMatureDeclining UserLifecycleStatus = "mature_declining"
	LifecycleInactive        UserLifecycleStatus = "inactive"
)

// SessionInterestProfile is the short-term, per-session interest state.
// It lives only in the key-value store and expires after SessionTTL of
// inactivity.
type SessionInterestProfile struct {
	Weights      map[string]float64 `json:"weights"`       // category -> decayed weight in [0,1]
	ViewedItems  []uint64           `json:"viewed_items"`  // bounded recency list
	PriceHistory []float64          `json:"price_history"` // bounded recency list
	SearchTerms  []string           `json:"search_terms"`  // bounded recency list
	UpdatedAt    time.Time          `json:"updated_at"`
}

// BanditState is the per-(user,item) exploration state: exposure counters
// plus click/no-click observation counts for the Beta-Bernoulli arm. Stores
// persist Alpha and Beta as raw counts from zero; the exploration engine
// layers the Beta(1,1) prior on read. Created lazily, expires after
// BanditStateTTL.
type BanditState struct {
	Exposures      int64   `json:"exposures"`       // times this item was shown to this user
	TotalExposures int64   `json:"total_exposures"` // all exposures for this user
	Alpha          float64 `json:"alpha"`
	Beta           float64 `json:"beta"`
}

// State retention windows. Centralized so call sites and tests agree on them.
const (
	SessionTTL       = 30 * time.Minute
	BanditStateTTL   = 24 * time.Hour
	ExposureTTL      = 7 * 24 * time.Hour
	SessionMaxViews  = 50
	SessionMaxPrices = 20
	SessionMaxTerms  = 10
)

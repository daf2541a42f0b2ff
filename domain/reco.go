package domain

// RecallResult is the ordered output of one recall strategy.
type RecallResult struct {
	Strategy string          `json:"strategy"`
	Items    []CandidateItem `json:"items"`
}

// FusedEntry is one deduplicated candidate with its accumulated score.
// Score only grows as strategies are merged and stays non-negative.
type FusedEntry struct {
	Item       CandidateItem `json:"item"`
	Score      float64       `json:"score"`
	Strategies []string      `json:"strategies"`
}

// RankedItem is one row of the final recommendation list.
type RankedItem struct {
	ItemID     uint64   `json:"item_id"`
	MerchantID uint64   `json:"merchant_id"`
	Category   string   `json:"category"`
	Score      float64  `json:"score"`
	Strategies []string `json:"strategies,omitempty"`
	Explored   bool     `json:"explored,omitempty"`
}

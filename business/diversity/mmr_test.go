package diversity

import (
	"math"
	"testing"

	"freshMarket/domain"
)

func entry(id, merchantID uint64, category string, price, score float64) domain.FusedEntry {
	return domain.FusedEntry{
		Item: domain.CandidateItem{
			ID:         id,
			MerchantID: merchantID,
			Category:   category,
			SalePrice:  price,
		},
		Score: score,
	}
}

func TestRerankSizeInvariant(t *testing.T) {
	r := NewReranker(DefaultConfig())

	entries := []domain.FusedEntry{
		entry(1, 1, "fruit", 10, 1.0),
		entry(2, 2, "dairy", 20, 0.9),
		entry(3, 3, "bakery", 30, 0.8),
	}

	if got := r.Rerank(entries, 3); len(got) != 3 {
		t.Errorf("limit == len keeps everything, got %d", len(got))
	}
	if got := r.Rerank(entries, 10); len(got) != 3 {
		t.Errorf("limit above len keeps everything, got %d", len(got))
	}
	if got := r.Rerank(entries, 2); len(got) != 2 {
		t.Errorf("limit below len truncates, got %d", len(got))
	}
	if got := r.Rerank(nil, 5); len(got) != 0 {
		t.Errorf("empty input stays empty, got %d", len(got))
	}
}

func TestRerankLambdaOneIsPureRelevance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lambda = 1.0
	cfg.MaxMerchantRatio = 1.0 // quota off
	r := NewReranker(cfg)

	entries := []domain.FusedEntry{
		entry(1, 1, "fruit", 10, 0.5),
		entry(2, 1, "fruit", 11, 0.9),
		entry(3, 1, "fruit", 12, 0.7),
		entry(4, 1, "fruit", 13, 0.3),
	}

	got := r.Rerank(entries, 3)
	want := []uint64{2, 3, 1}
	for i, w := range want {
		if got[i].Item.ID != w {
			t.Errorf("position %d: got %d, want %d", i, got[i].Item.ID, w)
		}
	}
}

func TestRerankPenalizesRedundancy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMerchantRatio = 1.0 // isolate similarity from the quota
	r := NewReranker(cfg)

	// 1 and 2: same category, merchant, near price. 3 is different everywhere
	// but slightly less relevant than 2.
	entries := []domain.FusedEntry{
		entry(1, 1, "fruit/apples", 10, 1.0),
		entry(2, 1, "fruit/pears", 10.5, 0.9),
		entry(3, 2, "dairy/milk", 40, 0.85),
		entry(4, 3, "bakery/bread", 80, 0.2),
	}

	got := r.Rerank(entries, 2)
	if got[0].Item.ID != 1 {
		t.Fatalf("seed must be the relevance argmax, got %d", got[0].Item.ID)
	}
	if got[1].Item.ID != 3 {
		t.Errorf("diverse item should beat the redundant one, got %d", got[1].Item.ID)
	}
}

func TestRerankMerchantQuota(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lambda = 1.0 // isolate the quota from similarity effects
	r := NewReranker(cfg)

	// merchant 1 dominates relevance; quota for limit 5 is ceil(5*0.4) = 2
	entries := []domain.FusedEntry{
		entry(1, 1, "a", 1, 1.0),
		entry(2, 1, "b", 2, 0.99),
		entry(3, 1, "c", 3, 0.98),
		entry(4, 1, "d", 4, 0.97),
		entry(5, 2, "e", 5, 0.5),
		entry(6, 3, "f", 6, 0.4),
		entry(7, 4, "g", 7, 0.3),
	}

	got := r.Rerank(entries, 5)

	perMerchant := make(map[uint64]int)
	for _, e := range got {
		perMerchant[e.Item.MerchantID]++
	}
	if perMerchant[1] != 2 {
		t.Errorf("merchant 1 should be capped at 2, got %d", perMerchant[1])
	}
}

func TestRerankQuotaSoftFallback(t *testing.T) {
	r := NewReranker(DefaultConfig())

	// every candidate shares one merchant: the quota cannot hold and the
	// result must still fill up to the limit
	entries := []domain.FusedEntry{
		entry(1, 1, "a", 1, 1.0),
		entry(2, 1, "b", 2, 0.9),
		entry(3, 1, "c", 3, 0.8),
		entry(4, 1, "d", 4, 0.7),
		entry(5, 1, "e", 5, 0.6),
		entry(6, 1, "f", 6, 0.5),
	}

	got := r.Rerank(entries, 5)
	if len(got) != 5 {
		t.Errorf("soft quota must never starve the result, got %d items", len(got))
	}
}

func TestSimilarityCap(t *testing.T) {
	r := NewReranker(DefaultConfig())

	a := domain.CandidateItem{ID: 1, MerchantID: 1, Category: "fruit/apples", SalePrice: 10}
	b := domain.CandidateItem{ID: 2, MerchantID: 1, Category: "fruit/pears", SalePrice: 10}

	if sim := r.similarity(a, b); sim != 1.0 {
		t.Errorf("all signals firing caps at 1.0, got %v", sim)
	}

	c := domain.CandidateItem{ID: 3, MerchantID: 9, Category: "dairy/milk", SalePrice: 500}
	if sim := r.similarity(a, c); sim != 0 {
		t.Errorf("disjoint items score 0, got %v", sim)
	}
}

func TestTopLevelCategory(t *testing.T) {
	if got := topLevelCategory("fruit/apples/fuji"); got != "fruit" {
		t.Errorf("got %q", got)
	}
	if got := topLevelCategory("fruit"); got != "fruit" {
		t.Errorf("got %q", got)
	}
}

func TestCategoryEntropy(t *testing.T) {
	uniform := []domain.FusedEntry{
		entry(1, 1, "a", 1, 1),
		entry(2, 1, "b", 1, 1),
		entry(3, 1, "c", 1, 1),
		entry(4, 1, "d", 1, 1),
	}
	if got := CategoryEntropy(uniform); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("uniform spread should be 1.0, got %v", got)
	}

	single := []domain.FusedEntry{
		entry(1, 1, "a", 1, 1),
		entry(2, 1, "a", 1, 1),
	}
	if got := CategoryEntropy(single); got != 0 {
		t.Errorf("single category should be 0, got %v", got)
	}

	if got := CategoryEntropy(nil); got != 0 {
		t.Errorf("empty list should be 0, got %v", got)
	}

	skewed := []domain.FusedEntry{
		entry(1, 1, "a", 1, 1),
		entry(2, 1, "a", 1, 1),
		entry(3, 1, "a", 1, 1),
		entry(4, 1, "b", 1, 1),
	}
	got := CategoryEntropy(skewed)
	if got <= 0 || got >= 1 {
		t.Errorf("skewed spread should be strictly between 0 and 1, got %v", got)
	}
}

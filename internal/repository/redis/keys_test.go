package redis

import "testing"

func TestKeyFormats(t *testing.T) {
	if got := banditKey(42, 7); got != "reco:bandit:42:7" {
		t.Errorf("banditKey: %q", got)
	}
	if got := banditTotalKey(42); got != "reco:bandit:42:total" {
		t.Errorf("banditTotalKey: %q", got)
	}
	if got := exposureKey(42, 7); got != "reco:freq:42:7" {
		t.Errorf("exposureKey: %q", got)
	}
	if got := sessionKey(42, "abc"); got != "reco:session:42:abc" {
		t.Errorf("sessionKey: %q", got)
	}
}

func TestParseHelpersTolerateGarbage(t *testing.T) {
	if got := parseInt("17"); got != 17 {
		t.Errorf("parseInt: %d", got)
	}
	if got := parseInt("not-a-number"); got != 0 {
		t.Errorf("parseInt garbage: %d", got)
	}
	if got := parseFloat("2.5"); got != 2.5 {
		t.Errorf("parseFloat: %v", got)
	}
	if got := parseFloat(""); got != 0 {
		t.Errorf("parseFloat empty: %v", got)
	}
}

package redis

import (
	"fmt"
	"strconv"
)

// Key formatters, one per state family. Every call site goes through these so
// a (user,item) pair always serializes the same way.
func banditKey(userID, itemID uint64) string {
	return fmt.Sprintf("reco:bandit:%d:%d", userID, itemID)
}

func banditTotalKey(userID uint64) string {
	return fmt.Sprintf("reco:bandit:%d:total", userID)
}

func exposureKey(userID, itemID uint64) string {
	return fmt.Sprintf("reco:freq:%d:%d", userID, itemID)
}

func sessionKey(userID uint64, sessionID string) string {
	return fmt.Sprintf("reco:session:%d:%s", userID, sessionID)
}

// parseInt and parseFloat treat malformed cached numerics as zero.
func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

package service

import (
	"bytes"
	"math"
	"sort"

	"github.com/google/uuid"
)

// RankEntry is a read-only projection of a stats row at a given position.
// It is never the source of truth; persisted ranks are caches of AssignRanks.
type RankEntry struct {
	UserID      uuid.UUID
	Username    string
	DisplayName string
	AvatarURL   *string
	TotalPoints int
	Rank        int
}

// AssignRanks orders entries by points descending, ties broken by user id
// ascending, and gives the k-th entry rank k. Tied users get distinct ranks.
// The input slice is not modified.
func AssignRanks(entries []RankEntry) []RankEntry {
	ranked := make([]RankEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalPoints != ranked[j].TotalPoints {
			return ranked[i].TotalPoints > ranked[j].TotalPoints
		}
		return bytes.Compare(ranked[i].UserID[:], ranked[j].UserID[:]) < 0
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// NearbyWindow returns the ranked entries in [max(1, rank-window), rank+window].
func NearbyWindow(ranked []RankEntry, rank, window int) []RankEntry {
	if window < 0 {
		window = 0
	}
	// Ranks are dense, so no window wider than the board selects more.
	if window > len(ranked) {
		window = len(ranked)
	}
	lo := 1
	if rank > window {
		lo = rank - window
	}
	hi := rank + window
	if rank > math.MaxInt-window {
		hi = math.MaxInt
	}

	out := make([]RankEntry, 0, min(2*window+1, len(ranked)))
	for _, e := range ranked {
		if e.Rank >= lo && e.Rank <= hi {
			out = append(out, e)
		}
	}
	return out
}

func FindRank(ranked []RankEntry, userID uuid.UUID) (RankEntry, bool) {
	for _, e := range ranked {
		if e.UserID == userID {
			return e, true
		}
	}
	return RankEntry{}, false
}

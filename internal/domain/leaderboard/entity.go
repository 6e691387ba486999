// Package leaderboard ranks learners in a strict total order and answers
// rank, percentile and neighbourhood questions about that order.
//
// Order: XP descending, then level descending, then display name ascending
// (byte order, case-sensitive), then user id ascending. Rank is the 1-based
// position in that order, so no two users ever share a rank.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/learnquest/gamification-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one ranked row. It is derived on demand and never persisted.
type Entry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	XP            int64  `json:"xp"`
	Level         int    `json:"level"`
	Streak        int    `json:"streak"`
	BadgeCount    int    `json:"badges_count"`
	IsCurrentUser bool   `json:"is_current_user"`
}

func (e Entry) String() string {
	return fmt.Sprintf("#%d %s (%d XP, lvl %d)", e.Rank, e.Name, e.XP, e.Level)
}

// Less reports whether a ranks strictly ahead of b.
func Less(a, b Entry) bool {
	if a.XP != b.XP {
		return a.XP > b.XP
	}
	if a.Level != b.Level {
		return a.Level > b.Level
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.UserID < b.UserID
}

// Percentile is the share of users ranked strictly below rank, in percent,
// rounded to two decimals. It is 0 for an empty board or an invalid rank.
func Percentile(rank, total int) float64 {
	if total <= 0 || rank < 1 || rank > total {
		return 0
	}
	return shared.Round2(float64(total-rank) / float64(total) * 100)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrDuplicateUser = errors.New("leaderboard: duplicate user in ranking")
)

// Ranking is a fully ordered in-memory board.
type Ranking struct {
	entries []Entry
	byID    map[string]int
}

// NewRanking sorts entries into the total order and assigns positional
// ranks. The input slice is not modified.
func NewRanking(entries []Entry) (*Ranking, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return Less(sorted[i], sorted[j]) })

	byID := make(map[string]int, len(sorted))
	for i := range sorted {
		if _, dup := byID[sorted[i].UserID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, sorted[i].UserID)
		}
		sorted[i].Rank = i + 1
		byID[sorted[i].UserID] = i
	}

	return &Ranking{entries: sorted, byID: byID}, nil
}

// Total is the number of ranked users.
func (r *Ranking) Total() int {
	return len(r.entries)
}

// Get returns the user's entry.
func (r *Ranking) Get(userID string) (Entry, bool) {
	idx, ok := r.byID[userID]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// RankOf returns the user's positional rank.
func (r *Ranking) RankOf(userID string) (int, bool) {
	idx, ok := r.byID[userID]
	if !ok {
		return 0, false
	}
	return idx + 1, true
}

// Top returns the first n entries.
func (r *Ranking) Top(n int) []Entry {
	return r.Range(1, n)
}

// Range returns entries with from ≤ rank ≤ to, clipped to the board.
func (r *Ranking) Range(from, to int) []Entry {
	if from < 1 {
		from = 1
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}
	if from > to {
		return nil
	}
	out := make([]Entry, to-from+1)
	copy(out, r.entries[from-1:to])
	return out
}

// Window returns entries ranked within [max(1, rank-w), rank+w] of the user,
// the user included.
func (r *Ranking) Window(userID string, w int) []Entry {
	rank, ok := r.RankOf(userID)
	if !ok {
		return nil
	}
	return r.Range(WindowBounds(rank, w))
}

// Percentile returns the user's percentile.
func (r *Ranking) Percentile(userID string) (float64, bool) {
	rank, ok := r.RankOf(userID)
	if !ok {
		return 0, false
	}
	return Percentile(rank, len(r.entries)), true
}

// All returns a copy of every entry in rank order.
func (r *Ranking) All() []Entry {
	return r.Range(1, len(r.entries))
}

// WindowBounds returns the rank interval of a neighbourhood around rank.
func WindowBounds(rank, w int) (from, to int) {
	if w < 0 {
		w = 0
	}
	from = rank - w
	if from < 1 {
		from = 1
	}
	return from, rank + w
}

// ══════════════════════════════════════════════════════════════════════════════
// BOARD
// ══════════════════════════════════════════════════════════════════════════════

// Board is a cacheable top-N view of one period. It carries no per-viewer
// state; IsCurrentUser is set on a copy when serving a request.
type Board struct {
	Period      Period    `json:"period"`
	Limit       int       `json:"limit"`
	Entries     []Entry   `json:"entries"`
	TotalUsers  int       `json:"total_users"`
	LastUpdated time.Time `json:"last_updated"`
}

// ForViewer returns a copy of the board's entries with the viewer marked.
func (b *Board) ForViewer(userID string) []Entry {
	out := make([]Entry, len(b.Entries))
	copy(out, b.Entries)
	for i := range out {
		out[i].IsCurrentUser = userID != "" && out[i].UserID == userID
	}
	return out
}

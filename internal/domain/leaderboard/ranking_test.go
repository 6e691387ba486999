package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestNewRanking_TieBreaks(t *testing.T) {
	r, err := NewRanking([]Entry{
		{UserID: "b", Name: "Bob", XP: 500, Level: 5},
		{UserID: "a", Name: "Alice", XP: 500, Level: 5},
		{UserID: "c", Name: "Carol", XP: 500, Level: 6},
		{UserID: "d", Name: "Dan", XP: 900, Level: 1},
		{UserID: "e", Name: "alice", XP: 500, Level: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Dan", "Carol", "Alice", "Bob", "alice"}, names(r.All()))
	for i, e := range r.All() {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestNewRanking_EqualXPNeverShareRank(t *testing.T) {
	r, err := NewRanking([]Entry{
		{UserID: "u-b", Name: "B", XP: 500, Level: 5},
		{UserID: "u-a", Name: "A", XP: 500, Level: 5},
	})
	require.NoError(t, err)

	rankA, _ := r.RankOf("u-a")
	rankB, _ := r.RankOf("u-b")
	assert.Equal(t, 1, rankA)
	assert.Equal(t, 2, rankB)
}

func TestNewRanking_SameNameFallsBackToUserID(t *testing.T) {
	r, err := NewRanking([]Entry{
		{UserID: "z", Name: "Sam", XP: 10, Level: 1},
		{UserID: "y", Name: "Sam", XP: 10, Level: 1},
	})
	require.NoError(t, err)

	top := r.Top(2)
	assert.Equal(t, "y", top[0].UserID)
	assert.Equal(t, "z", top[1].UserID)
}

func TestNewRanking_RejectsDuplicates(t *testing.T) {
	_, err := NewRanking([]Entry{{UserID: "x"}, {UserID: "x"}})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func buildBoard(t *testing.T, n int) *Ranking {
	t.Helper()
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{UserID: string(rune('a' + i)), Name: string(rune('A' + i)), XP: int64(1000 - i*10), Level: 1}
	}
	r, err := NewRanking(entries)
	require.NoError(t, err)
	return r
}

func TestRanking_TopAndRange(t *testing.T) {
	r := buildBoard(t, 20)

	assert.Len(t, r.Top(5), 5)
	assert.Len(t, r.Top(50), 20)
	assert.Empty(t, r.Top(0))
	assert.Equal(t, []string{"C", "D"}, names(r.Range(3, 4)))
	assert.Empty(t, r.Range(30, 40))
}

func TestRanking_Window(t *testing.T) {
	r := buildBoard(t, 20)

	w := r.Window("c", 5) // rank 3: ranks 1..8
	require.Len(t, w, 8)
	assert.Equal(t, 1, w[0].Rank)
	assert.Equal(t, 8, w[len(w)-1].Rank)

	w = r.Window("j", 5) // rank 10: ranks 5..15
	assert.Len(t, w, 11)
	assert.Equal(t, 5, w[0].Rank)

	w = r.Window("t", 5) // rank 20: ranks 15..20
	assert.Len(t, w, 6)

	assert.Nil(t, r.Window("missing", 5))
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(1, 0))
	assert.Equal(t, 0.0, Percentile(1, 1))
	assert.Equal(t, 75.0, Percentile(1, 4))
	assert.Equal(t, 0.0, Percentile(4, 4))
	assert.Equal(t, 66.67, Percentile(1, 3))
	assert.Equal(t, 0.0, Percentile(5, 4))

	r := buildBoard(t, 10)
	p, ok := r.Percentile("a")
	assert.True(t, ok)
	assert.Equal(t, 90.0, p)
}

func TestWindowBounds(t *testing.T) {
	from, to := WindowBounds(2, 5)
	assert.Equal(t, 1, from)
	assert.Equal(t, 7, to)
}

func TestBoard_ForViewer(t *testing.T) {
	b := &Board{Entries: []Entry{{UserID: "a"}, {UserID: "b"}}}

	out := b.ForViewer("b")

	assert.False(t, out[0].IsCurrentUser)
	assert.True(t, out[1].IsCurrentUser)
	assert.False(t, b.Entries[1].IsCurrentUser, "cached board untouched")
}

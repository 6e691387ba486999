// Package badge holds the static badge catalog and the evaluator that grants
// badges from aggregate statistics. Granting is one-way: a badge that was
// unlocked stays unlocked whatever the statistics do later.
package badge

import (
	"context"
	"time"
)

// CatalogVersion identifies the shipped badge set.
const CatalogVersion = 1

// Badge identifiers.
const (
	FirstSteps   = "first_steps"
	CuriousMind  = "curious_mind"
	QuizNovice   = "quiz_novice"
	QuizMaster   = "quiz_master"
	PerfectScore = "perfect_score"
	WeekWarrior  = "week_warrior"
	Scholar      = "scholar"
)

// Predicate decides whether stats satisfy a badge's unlock condition.
type Predicate func(ctx context.Context, stats StatsSource) (bool, error)

// Badge is one catalog entry.
type Badge struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Predicate   Predicate `json:"-"`
}

// Catalog is an ordered, read-only list of badges.
type Catalog []Badge

func atLeast(get func(StatsSource, context.Context) (int, error), min int) Predicate {
	return func(ctx context.Context, stats StatsSource) (bool, error) {
		n, err := get(stats, ctx)
		if err != nil {
			return false, err
		}
		return n >= min, nil
	}
}

// DefaultCatalog returns the shipped badge set in display order.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			ID: FirstSteps, Name: "First Steps", Icon: "📚",
			Description: "Upload your first document",
			Predicate:   atLeast(StatsSource.TotalDocuments, 1),
		},
		{
			ID: CuriousMind, Name: "Curious Mind", Icon: "🤔",
			Description: "Send 10 chat messages",
			Predicate:   atLeast(StatsSource.TotalMessages, 10),
		},
		{
			ID: QuizNovice, Name: "Quiz Novice", Icon: "📝",
			Description: "Complete your first quiz",
			Predicate:   atLeast(StatsSource.TotalQuizCompletions, 1),
		},
		{
			ID: QuizMaster, Name: "Quiz Master", Icon: "🎓",
			Description: "Complete 5 quizzes",
			Predicate:   atLeast(StatsSource.TotalQuizCompletions, 5),
		},
		{
			ID: PerfectScore, Name: "Perfect Score", Icon: "💯",
			Description: "Score 100% on a quiz",
			Predicate: func(ctx context.Context, stats StatsSource) (bool, error) {
				return stats.HasPerfectScore(ctx)
			},
		},
		{
			ID: WeekWarrior, Name: "Week Warrior", Icon: "🔥",
			Description: "7-day streak",
			Predicate:   atLeast(StatsSource.Streak, 7),
		},
		{
			ID: Scholar, Name: "Scholar", Icon: "👨‍🎓",
			Description: "Reach level 10",
			Predicate:   atLeast(StatsSource.Level, 10),
		},
	}
}

// Find returns the badge with id.
func (c Catalog) Find(id string) (Badge, bool) {
	for _, b := range c {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// State is a catalog entry with the user's unlock time, nil when locked.
type State struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	UnlockedAt  *time.Time `json:"unlocked_at"`
}

// ListWithState returns every catalog badge with its unlock state. Unlocked
// ids that are no longer in the catalog are ignored.
func (c Catalog) ListWithState(unlocked map[string]time.Time) []State {
	out := make([]State, 0, len(c))
	for _, b := range c {
		s := State{ID: b.ID, Name: b.Name, Description: b.Description, Icon: b.Icon}
		if at, ok := unlocked[b.ID]; ok {
			at := at
			s.UnlockedAt = &at
		}
		out = append(out, s)
	}
	return out
}

package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStreak(t *testing.T) {
	d := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		streak     int
		last       *time.Time
		today      time.Time
		want       int
		transition StreakTransition
	}{
		{"first activity", 0, nil, d, 1, StreakStarted},
		{"same day", 4, &d, d.Add(20 * time.Hour), 4, StreakUnchanged},
		{"next day", 4, &d, d.AddDate(0, 0, 1), 5, StreakExtended},
		{"two day gap", 4, &d, d.AddDate(0, 0, 2), 1, StreakReset},
		{"long gap", 9, &d, d.AddDate(0, 0, 30), 1, StreakReset},
		{"earlier date", 4, &d, d.AddDate(0, 0, -1), 1, StreakReset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, transition := NextStreak(tt.streak, tt.last, tt.today)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.transition, transition)
		})
	}
}

func TestProfileRecordActivity_Scenario(t *testing.T) {
	p, err := NewProfile("user-1", "Ana", time.Now())
	assert.NoError(t, err)

	d := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, changed := p.RecordActivity(d)
	assert.True(t, changed)
	assert.Equal(t, 1, p.Streak)

	_, changed = p.RecordActivity(d.Add(3 * time.Hour))
	assert.False(t, changed, "idempotent within a day")
	assert.Equal(t, 1, p.Streak)

	_, changed = p.RecordActivity(d.AddDate(0, 0, 1))
	assert.True(t, changed)
	assert.Equal(t, 2, p.Streak)

	transition, _ := p.RecordActivity(d.AddDate(0, 0, 4))
	assert.Equal(t, StreakReset, transition)
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, 2, p.BestStreak)
	assert.Equal(t, d.AddDate(0, 0, 4), *p.LastActivity)
}

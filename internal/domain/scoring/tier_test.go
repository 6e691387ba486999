package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTier(t *testing.T) {
	tests := []struct {
		score float64
		want  int64
	}{
		{0, 0},
		{49.99, 0},
		{50, 20},
		{69.9, 20},
		{70, 35},
		{89.99, 35},
		{90, 50},
		{95, 50},
		{99.99, 50},
		{100, 60},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Tier(tt.score), "score %v", tt.score)
	}
}

func TestTier_Monotonic(t *testing.T) {
	prev := Tier(0)
	for i := 1; i <= 10000; i++ {
		cur := Tier(float64(i) / 100)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

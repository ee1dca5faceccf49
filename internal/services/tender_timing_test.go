package services

import (
	"testing"
	"time"

	"bizdesk/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "<1m"},
		{59 * time.Second, "<1m"},
		{time.Minute, "1m"},
		{45 * time.Minute, "45m"},
		{5*time.Hour + 12*time.Minute, "5h 12m"},
		{24 * time.Hour, "1d 0h"},
		{3*24*time.Hour + 4*time.Hour + 59*time.Minute, "3d 4h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.in), tt.in.String())
	}
}

func TestComputeStageTiming(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	open := &models.TenderStage{Kind: models.StageKindOpen}
	strict := &models.TenderStage{Kind: models.StageKindOpen, StaleAfterDays: 2}
	won := &models.TenderStage{Kind: models.StageKindWon, StaleAfterDays: 1}

	t.Run("uses default threshold", func(t *testing.T) {
		timing := ComputeStageTiming(now.Add(-6*24*time.Hour), now, open, 7)
		assert.False(t, timing.Stale)
		assert.Equal(t, 7, timing.ThresholdDays)
		assert.Equal(t, "6d 0h", timing.ElapsedText)
	})

	t.Run("stale exactly at threshold", func(t *testing.T) {
		timing := ComputeStageTiming(now.Add(-7*24*time.Hour), now, open, 7)
		assert.True(t, timing.Stale)
	})

	t.Run("stage threshold overrides default", func(t *testing.T) {
		timing := ComputeStageTiming(now.Add(-50*time.Hour), now, strict, 7)
		assert.True(t, timing.Stale)
		assert.Equal(t, 2, timing.ThresholdDays)
	})

	t.Run("final stages never stale", func(t *testing.T) {
		timing := ComputeStageTiming(now.Add(-90*24*time.Hour), now, won, 7)
		assert.False(t, timing.Stale)
	})

	t.Run("future timestamp clamps to zero", func(t *testing.T) {
		timing := ComputeStageTiming(now.Add(time.Hour), now, open, 7)
		assert.Equal(t, time.Duration(0), timing.Elapsed)
		assert.Equal(t, "<1m", timing.ElapsedText)
		assert.False(t, timing.Stale)
	})
}

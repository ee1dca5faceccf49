package services

import (
	"fmt"
	"time"

	"bizdesk/internal/models"
)

// StageTiming describes how long a tender has sat in its current stage.
type StageTiming struct {
	EnteredAt     time.Time     `json:"entered_at"`
	Elapsed       time.Duration `json:"-"`
	ElapsedSecs   int64         `json:"elapsed_seconds"`
	ElapsedText   string        `json:"elapsed"`
	ThresholdDays int           `json:"threshold_days"`
	Stale         bool          `json:"stale"`
}

// ComputeStageTiming measures now - changedAt. A negative difference (clock
// skew) counts as zero. Tenders in won or lost stages are never stale.
func ComputeStageTiming(changedAt, now time.Time, stage *models.TenderStage, defaultDays int) StageTiming {
	elapsed := now.Sub(changedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	threshold := defaultDays
	if stage != nil && stage.StaleAfterDays > 0 {
		threshold = stage.StaleAfterDays
	}

	stale := threshold > 0 && elapsed >= time.Duration(threshold)*24*time.Hour
	if stage != nil && stage.IsFinal() {
		stale = false
	}

	return StageTiming{
		EnteredAt:     changedAt,
		Elapsed:       elapsed,
		ElapsedSecs:   int64(elapsed / time.Second),
		ElapsedText:   FormatElapsed(elapsed),
		ThresholdDays: threshold,
		Stale:         stale,
	}
}

// FormatElapsed renders a duration as "<1m", "45m", "5h 12m" or "3d 4h".
func FormatElapsed(d time.Duration) string {
	if d < time.Minute {
		return "<1m"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d%(24*time.Hour)) / int(time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

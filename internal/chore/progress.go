package chore

import (
	"fmt"
	"math"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

const day = 24 * time.Hour

type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
)

// Progress is how far through its cycle a chore is, in percent clamped to
// [0, 100]. A chore never completed is treated as fully due.
func Progress(c model.Chore, now time.Time) float64 {
	if c.LastCompletedAt == nil {
		return 100
	}
	daysSince := now.Sub(*c.LastCompletedAt).Hours() / 24
	total := float64(weeks(c.FrequencyWeeks) * 7)
	p := daysSince / total * 100
	return math.Min(100, math.Max(0, p))
}

// DueLabel describes when the chore is next due.
func DueLabel(c model.Chore, now time.Time) string {
	if c.LastCompletedAt == nil {
		return "Never completed"
	}
	daysSince := now.Sub(*c.LastCompletedAt).Hours() / 24
	untilDue := int(math.Ceil(float64(weeks(c.FrequencyWeeks)*7) - daysSince))

	switch {
	case untilDue <= 0:
		return "Overdue!"
	case untilDue == 1:
		return "Due tomorrow"
	default:
		return fmt.Sprintf("Due in %d days", untilDue)
	}
}

func ProgressColor(progress float64) Color {
	switch {
	case progress < 50:
		return ColorGreen
	case progress < 80:
		return ColorYellow
	default:
		return ColorRed
	}
}

// DueAt is when the chore next falls due, or nil if it was never completed.
func DueAt(c model.Chore) *time.Time {
	if c.LastCompletedAt == nil {
		return nil
	}
	t := c.LastCompletedAt.Add(time.Duration(weeks(c.FrequencyWeeks)) * 7 * day)
	return &t
}

// ClampFrequency bounds a frequency to 1..52 weeks.
func ClampFrequency(w int) int {
	return max(1, min(52, w))
}

func weeks(w int) int {
	return ClampFrequency(w)
}

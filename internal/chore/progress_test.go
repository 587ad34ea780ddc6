package chore

import (
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

var now = time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

func completedAgo(d time.Duration, weeks int) model.Chore {
	at := now.Add(-d)
	return model.Chore{Title: "Dishes", FrequencyWeeks: weeks, LastCompletedAt: &at}
}

func TestProgressNeverCompleted(t *testing.T) {
	c := model.Chore{Title: "Dishes", FrequencyWeeks: 1}
	if got := Progress(c, now); got != 100 {
		t.Errorf("progress = %v, want 100", got)
	}
}

func TestProgressJustCompleted(t *testing.T) {
	if got := Progress(completedAgo(0, 1), now); got != 0 {
		t.Errorf("progress = %v, want 0", got)
	}
}

func TestProgressHalfway(t *testing.T) {
	got := Progress(completedAgo(84*time.Hour, 1), now)
	if got != 50 {
		t.Errorf("progress = %v, want 50", got)
	}
}

func TestProgressMultiWeek(t *testing.T) {
	got := Progress(completedAgo(7*day, 2), now)
	if got != 50 {
		t.Errorf("progress = %v, want 50", got)
	}
}

func TestProgressClamped(t *testing.T) {
	if got := Progress(completedAgo(14*day, 1), now); got != 100 {
		t.Errorf("overdue progress = %v, want 100", got)
	}
	if got := Progress(completedAgo(-7*day, 1), now); got != 0 {
		t.Errorf("future progress = %v, want 0", got)
	}
}

func TestDueLabel(t *testing.T) {
	tests := []struct {
		name  string
		chore model.Chore
		want  string
	}{
		{"never", model.Chore{FrequencyWeeks: 1}, "Never completed"},
		{"overdue", completedAgo(14*day, 1), "Overdue!"},
		{"due exactly now", completedAgo(7*day, 1), "Overdue!"},
		{"tomorrow", completedAgo(6*day, 1), "Due tomorrow"},
		{"in five days", completedAgo(2*day, 1), "Due in 5 days"},
		{"multi week", completedAgo(7*day, 2), "Due in 7 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DueLabel(tt.chore, now); got != tt.want {
				t.Errorf("DueLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressColor(t *testing.T) {
	tests := []struct {
		progress float64
		want     Color
	}{
		{0, ColorGreen}, {25, ColorGreen}, {49, ColorGreen},
		{50, ColorYellow}, {65, ColorYellow}, {79, ColorYellow},
		{80, ColorRed}, {95, ColorRed}, {100, ColorRed},
	}
	for _, tt := range tests {
		if got := ProgressColor(tt.progress); got != tt.want {
			t.Errorf("ProgressColor(%v) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}

func TestClampFrequency(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 26: 26, 52: 52, 53: 52, 1000: 52} {
		if got := ClampFrequency(in); got != want {
			t.Errorf("ClampFrequency(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDueAt(t *testing.T) {
	if DueAt(model.Chore{FrequencyWeeks: 1}) != nil {
		t.Error("expected nil due date for never-completed chore")
	}
	c := completedAgo(day, 2)
	want := now.Add(13 * day)
	if got := DueAt(c); got == nil || !got.Equal(want) {
		t.Errorf("DueAt = %v, want %v", got, want)
	}
}

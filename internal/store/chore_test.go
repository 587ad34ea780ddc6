package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

func TestRoomDefaultIcon(t *testing.T) {
	db := setupTestDB(t)
	h := createTestHome(t, db, "ABC123")

	r, err := NewRoomStore(db).Create(context.Background(), h.ID, "Kitchen", "")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if r.Icon != model.DefaultRoomIcon {
		t.Errorf("icon = %q, want %q", r.Icon, model.DefaultRoomIcon)
	}
}

func TestChoreLifecycle(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChoreStore(db)
	ctx := context.Background()

	h := createTestHome(t, db, "ABC123")
	r, _ := NewRoomStore(db).Create(ctx, h.ID, "Kitchen", "SinkIcon")

	c, err := cs.Create(ctx, r.ID, "Wipe counters", 2)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if c.LastCompletedAt != nil {
		t.Error("expected nil last_completed_at")
	}

	homeID, err := cs.HomeID(ctx, c.ID)
	if err != nil {
		t.Fatalf("home id: %v", err)
	}
	if homeID != h.ID {
		t.Errorf("home id = %q, want %q", homeID, h.ID)
	}

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	done, err := cs.Complete(ctx, c.ID, at)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.LastCompletedAt == nil || !done.LastCompletedAt.Equal(at) {
		t.Errorf("last_completed_at = %v, want %v", done.LastCompletedAt, at)
	}

	updated, err := cs.Update(ctx, c.ID, "Wipe all counters", 3)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Wipe all counters" || updated.FrequencyWeeks != 3 {
		t.Errorf("updated = %+v", updated)
	}

	chores, err := cs.ListByHome(ctx, h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chores) != 1 {
		t.Fatalf("len = %d, want 1", len(chores))
	}
}

func TestChoreHomeIDUnknown(t *testing.T) {
	db := setupTestDB(t)

	homeID, err := NewChoreStore(db).HomeID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("home id: %v", err)
	}
	if homeID != "" {
		t.Errorf("home id = %q, want empty", homeID)
	}
}

func TestChoreDeleteByHome(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChoreStore(db)
	rs := NewRoomStore(db)
	ctx := context.Background()

	h1 := createTestHome(t, db, "AAA111")
	h2 := createTestHome(t, db, "BBB222")
	r1, _ := rs.Create(ctx, h1.ID, "Kitchen", "")
	r2, _ := rs.Create(ctx, h2.ID, "Garage", "")
	c1, _ := cs.Create(ctx, r1.ID, "Dishes", 1)
	c2, _ := cs.Create(ctx, r2.ID, "Sweep", 1)

	if err := cs.DeleteByHome(ctx, h1.ID); err != nil {
		t.Fatalf("delete by home: %v", err)
	}
	if got, _ := cs.GetByID(ctx, c1.ID); got != nil {
		t.Error("expected chore in home 1 to be deleted")
	}
	if got, _ := cs.GetByID(ctx, c2.ID); got == nil {
		t.Error("chore in home 2 should survive")
	}
}

func TestChoreFrequencyCheckConstraint(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	h := createTestHome(t, db, "ABC123")
	r, _ := NewRoomStore(db).Create(ctx, h.ID, "Kitchen", "")

	if _, err := NewChoreStore(db).Create(ctx, r.ID, "Bad", 53); err == nil {
		t.Error("expected check constraint to reject frequency 53")
	}
}

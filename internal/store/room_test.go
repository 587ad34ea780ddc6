package store

import (
	"context"
	"testing"
)

func TestRoomListAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	rs := NewRoomStore(db)
	ctx := context.Background()

	h := createTestHome(t, db, "ROOM01")
	other := createTestHome(t, db, "ROOM02")

	for _, name := range []string{"Kitchen", "Bathroom"} {
		if _, err := rs.Create(ctx, h.ID, name, ""); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := rs.Create(ctx, other.ID, "Garage", ""); err != nil {
		t.Fatalf("create garage: %v", err)
	}

	rooms, err := rs.ListByHome(ctx, h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("len(rooms) = %d, want 2", len(rooms))
	}
	if rooms[0].Name != "Bathroom" || rooms[1].Name != "Kitchen" {
		t.Errorf("rooms = %q, %q; want sorted by name", rooms[0].Name, rooms[1].Name)
	}

	updated, err := rs.Update(ctx, rooms[0].ID, "Main Bath", "BathIcon")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Main Bath" || updated.Icon != "BathIcon" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestRoomDeleteCascadesChores(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	h := createTestHome(t, db, "ROOM03")
	r, err := NewRoomStore(db).Create(ctx, h.ID, "Kitchen", "")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	c, err := NewChoreStore(db).Create(ctx, r.ID, "Mop", 1)
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	if err := NewRoomStore(db).Delete(ctx, r.ID); err != nil {
		t.Fatalf("delete room: %v", err)
	}

	got, err := NewChoreStore(db).GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got != nil {
		t.Error("chore survived room deletion")
	}
	missing, err := NewRoomStore(db).GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if missing != nil {
		t.Error("room still present")
	}
}

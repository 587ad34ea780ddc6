package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type RoomStore struct {
	db DBTX
}

func NewRoomStore(db DBTX) *RoomStore {
	return &RoomStore{db: db}
}

func (s *RoomStore) WithTx(tx *sql.Tx) *RoomStore {
	return &RoomStore{db: tx}
}

func scanRoom(row scanner) (*model.Room, error) {
	var r model.Room
	err := row.Scan(&r.ID, &r.HomeID, &r.Name, &r.Icon, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

const roomCols = `id, home_id, name, icon, created_at`

func (s *RoomStore) Create(ctx context.Context, homeID, name, icon string) (*model.Room, error) {
	if icon == "" {
		icon = model.DefaultRoomIcon
	}
	r := &model.Room{
		ID:        uuid.NewString(),
		HomeID:    homeID,
		Name:      name,
		Icon:      icon,
		CreatedAt: dbTime(time.Now()),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (`+roomCols+`) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.HomeID, r.Name, r.Icon, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	return r, nil
}

func (s *RoomStore) GetByID(ctx context.Context, id string) (*model.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = ?`, id)
	r, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return r, nil
}

func (s *RoomStore) ListByHome(ctx context.Context, homeID string) ([]model.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+roomCols+` FROM rooms WHERE home_id = ? ORDER BY name`, homeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, *r)
	}
	return rooms, rows.Err()
}

func (s *RoomStore) Update(ctx context.Context, id, name, icon string) (*model.Room, error) {
	if icon == "" {
		icon = model.DefaultRoomIcon
	}
	_, err := s.db.ExecContext(ctx, `UPDATE rooms SET name = ?, icon = ? WHERE id = ?`, name, icon, id)
	if err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RoomStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (s *RoomStore) DeleteByHome(ctx context.Context, homeID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE home_id = ?`, homeID)
	if err != nil {
		return fmt.Errorf("delete home rooms: %w", err)
	}
	return nil
}

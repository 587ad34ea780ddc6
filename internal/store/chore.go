package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type ChoreStore struct {
	db DBTX
}

func NewChoreStore(db DBTX) *ChoreStore {
	return &ChoreStore{db: db}
}

func (s *ChoreStore) WithTx(tx *sql.Tx) *ChoreStore {
	return &ChoreStore{db: tx}
}

func scanChore(row scanner) (*model.Chore, error) {
	var c model.Chore
	var completed sql.NullTime
	err := row.Scan(&c.ID, &c.RoomID, &c.Title, &c.FrequencyWeeks, &completed, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.LastCompletedAt = timePtr(completed)
	return &c, nil
}

const choreCols = `id, room_id, title, frequency_weeks, last_completed_at, created_at`

func (s *ChoreStore) Create(ctx context.Context, roomID, title string, frequencyWeeks int) (*model.Chore, error) {
	c := &model.Chore{
		ID:             uuid.NewString(),
		RoomID:         roomID,
		Title:          title,
		FrequencyWeeks: frequencyWeeks,
		CreatedAt:      dbTime(time.Now()),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (id, room_id, title, frequency_weeks, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.RoomID, c.Title, c.FrequencyWeeks, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) GetByID(ctx context.Context, id string) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// HomeID resolves the home a chore belongs to through its room. It returns
// "" when the chore does not exist.
func (s *ChoreStore) HomeID(ctx context.Context, choreID string) (string, error) {
	var homeID string
	err := s.db.QueryRowContext(ctx,
		`SELECT r.home_id FROM chores c JOIN rooms r ON r.id = c.room_id WHERE c.id = ?`,
		choreID,
	).Scan(&homeID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get chore home: %w", err)
	}
	return homeID, nil
}

func (s *ChoreStore) ListByHome(ctx context.Context, homeID string) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.room_id, c.title, c.frequency_weeks, c.last_completed_at, c.created_at
		 FROM chores c
		 JOIN rooms r ON r.id = c.room_id
		 WHERE r.home_id = ?
		 ORDER BY r.name, c.title`,
		homeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(ctx context.Context, id, title string, frequencyWeeks int) (*model.Chore, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chores SET title = ?, frequency_weeks = ? WHERE id = ?`,
		title, frequencyWeeks, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) Complete(ctx context.Context, id string, at time.Time) (*model.Chore, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE chores SET last_completed_at = ? WHERE id = ?`, dbTime(at), id)
	if err != nil {
		return nil, fmt.Errorf("complete chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

func (s *ChoreStore) DeleteByHome(ctx context.Context, homeID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chores WHERE room_id IN (SELECT id FROM rooms WHERE home_id = ?)`,
		homeID,
	)
	if err != nil {
		return fmt.Errorf("delete home chores: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type HomeStore struct {
	db DBTX
}

func NewHomeStore(db DBTX) *HomeStore {
	return &HomeStore{db: db}
}

func (s *HomeStore) WithTx(tx *sql.Tx) *HomeStore {
	return &HomeStore{db: tx}
}

func scanHome(row scanner) (*model.Home, error) {
	var h model.Home
	var left sql.NullTime
	err := row.Scan(&h.ID, &h.ShareCode, &h.Name, &h.CreatedAt, &left)
	if err != nil {
		return nil, err
	}
	h.CreatedAt = h.CreatedAt.UTC()
	h.LastMemberLeftAt = timePtr(left)
	return &h, nil
}

const homeCols = `id, share_code, name, created_at, last_member_left_at`

// Create inserts a home. A share code collision is reported via
// IsUniqueViolation so callers can retry with a new code.
func (s *HomeStore) Create(ctx context.Context, shareCode, name string, now time.Time) (*model.Home, error) {
	h := &model.Home{
		ID:        uuid.NewString(),
		ShareCode: shareCode,
		Name:      name,
		CreatedAt: dbTime(now),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO homes (id, share_code, name, created_at) VALUES (?, ?, ?, ?)`,
		h.ID, h.ShareCode, h.Name, h.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert home: %w", err)
	}
	return h, nil
}

func (s *HomeStore) GetByID(ctx context.Context, id string) (*model.Home, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+homeCols+` FROM homes WHERE id = ?`, id)
	h, err := scanHome(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get home: %w", err)
	}
	return h, nil
}

func (s *HomeStore) GetByShareCode(ctx context.Context, code string) (*model.Home, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+homeCols+` FROM homes WHERE share_code = ?`, code)
	h, err := scanHome(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get home by share code: %w", err)
	}
	return h, nil
}

// SetLastMemberLeft records when the home became empty. A nil time clears it.
func (s *HomeStore) SetLastMemberLeft(ctx context.Context, id string, at *time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE homes SET last_member_left_at = ? WHERE id = ?`,
		nullTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("set last member left: %w", err)
	}
	return nil
}

func (s *HomeStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM homes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete home: %w", err)
	}
	return nil
}

// ListForUser returns every home the user belongs to with their role in it.
func (s *HomeStore) ListForUser(ctx context.Context, userID string) ([]model.HomeWithRole, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.id, h.share_code, h.name, h.created_at, h.last_member_left_at, m.role
		 FROM homes h
		 JOIN home_memberships m ON m.home_id = h.id
		 WHERE m.user_id = ?
		 ORDER BY m.joined_at, h.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list homes for user: %w", err)
	}
	defer rows.Close()

	var homes []model.HomeWithRole
	for rows.Next() {
		var hw model.HomeWithRole
		var left sql.NullTime
		if err := rows.Scan(&hw.ID, &hw.ShareCode, &hw.Name, &hw.CreatedAt, &left, &hw.Role); err != nil {
			return nil, fmt.Errorf("scan home: %w", err)
		}
		hw.CreatedAt = hw.CreatedAt.UTC()
		hw.LastMemberLeftAt = timePtr(left)
		homes = append(homes, hw)
	}
	return homes, rows.Err()
}

// DeleteAbandonedBefore removes homes that have had no members since
// strictly before cutoff and returns their IDs. Rooms, chores and any
// stray memberships go with them through ON DELETE CASCADE.
func (s *HomeStore) DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM homes
		 WHERE last_member_left_at IS NOT NULL AND last_member_left_at < ?
		 RETURNING id`,
		dbTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("delete abandoned homes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan home id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

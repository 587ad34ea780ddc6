package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type MembershipStore struct {
	db DBTX
}

func NewMembershipStore(db DBTX) *MembershipStore {
	return &MembershipStore{db: db}
}

func (s *MembershipStore) WithTx(tx *sql.Tx) *MembershipStore {
	return &MembershipStore{db: tx}
}

func scanMembership(row scanner) (*model.HomeMembership, error) {
	var m model.HomeMembership
	err := row.Scan(&m.ID, &m.UserID, &m.HomeID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	m.JoinedAt = m.JoinedAt.UTC()
	return &m, nil
}

const membershipCols = `id, user_id, home_id, role, joined_at`

// Create inserts a membership. A duplicate (user, home) pair is reported via
// IsUniqueViolation.
func (s *MembershipStore) Create(ctx context.Context, userID, homeID string, role model.Role, now time.Time) (*model.HomeMembership, error) {
	m := &model.HomeMembership{
		ID:       uuid.NewString(),
		UserID:   userID,
		HomeID:   homeID,
		Role:     role,
		JoinedAt: dbTime(now),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO home_memberships (`+membershipCols+`) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.HomeID, m.Role, m.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert membership: %w", err)
	}
	return m, nil
}

func (s *MembershipStore) Get(ctx context.Context, userID, homeID string) (*model.HomeMembership, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+membershipCols+` FROM home_memberships WHERE user_id = ? AND home_id = ?`,
		userID, homeID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (s *MembershipStore) Count(ctx context.Context, homeID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM home_memberships WHERE home_id = ?`, homeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

func (s *MembershipStore) CountOwners(ctx context.Context, homeID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM home_memberships WHERE home_id = ? AND role = ?`,
		homeID, model.RoleOwner,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return n, nil
}

func (s *MembershipStore) SetRole(ctx context.Context, userID, homeID string, role model.Role) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE home_memberships SET role = ? WHERE user_id = ? AND home_id = ?`,
		role, userID, homeID,
	)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

// Delete removes a membership and reports whether one existed.
func (s *MembershipStore) Delete(ctx context.Context, userID, homeID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM home_memberships WHERE user_id = ? AND home_id = ?`,
		userID, homeID,
	)
	if err != nil {
		return false, fmt.Errorf("delete membership: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MembershipStore) DeleteByHome(ctx context.Context, homeID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM home_memberships WHERE home_id = ?`, homeID)
	if err != nil {
		return fmt.Errorf("delete home memberships: %w", err)
	}
	return nil
}

func (s *MembershipStore) ListByUser(ctx context.Context, userID string) ([]model.HomeMembership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+membershipCols+` FROM home_memberships WHERE user_id = ? ORDER BY joined_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var ms []model.HomeMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		ms = append(ms, *m)
	}
	return ms, rows.Err()
}

// ListMembers returns the home's members with their user details, owners first.
func (s *MembershipStore) ListMembers(ctx context.Context, homeID string) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, m.role, m.joined_at
		 FROM home_memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.home_id = ?
		 ORDER BY CASE m.role WHEN 'owner' THEN 0 ELSE 1 END, m.joined_at, u.name`,
		homeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.JoinedAt = m.JoinedAt.UTC()
		members = append(members, m)
	}
	return members, rows.Err()
}

// SoleOwnerHomes returns the homes where userID is an owner and no other
// owner exists.
func (s *MembershipStore) SoleOwnerHomes(ctx context.Context, userID string) ([]model.Home, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.id, h.share_code, h.name, h.created_at, h.last_member_left_at
		 FROM homes h
		 JOIN home_memberships m ON m.home_id = h.id
		 WHERE m.user_id = ? AND m.role = 'owner'
		   AND NOT EXISTS (
		     SELECT 1 FROM home_memberships o
		     WHERE o.home_id = h.id AND o.role = 'owner' AND o.user_id <> m.user_id
		   )
		 ORDER BY h.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sole owner homes: %w", err)
	}
	defer rows.Close()

	var homes []model.Home
	for rows.Next() {
		h, err := scanHome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan home: %w", err)
		}
		homes = append(homes, *h)
	}
	return homes, rows.Err()
}

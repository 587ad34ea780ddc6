package model

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

type Home struct {
	ID               string     `json:"id"`
	ShareCode        string     `json:"share_code"`
	Name             string     `json:"name"`
	CreatedAt        time.Time  `json:"created_at"`
	LastMemberLeftAt *time.Time `json:"last_member_left_at,omitempty"`
}

type HomeMembership struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	HomeID   string    `json:"home_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// HomeWithRole is a home as seen by one of its members.
type HomeWithRole struct {
	Home
	Role Role `json:"role"`
}

// Member is a membership joined with the user it belongs to.
type Member struct {
	UserID   string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

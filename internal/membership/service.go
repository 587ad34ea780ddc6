// Package membership enforces the ownership rules of homes: every home
// keeps at least one owner while it has members, sole owners cannot walk
// away, and emptied homes are timestamped for the reaper.
package membership

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const shareCodeAttempts = 10

const (
	msgHomeNameRequired  = "Home name is required"
	msgShareCodeRequired = "Share code is required"
	msgHomeNotFound      = "Home not found with that share code"
	msgUnauthorized      = "Unauthorized"
	msgSoleOwnerLeave    = "Cannot leave home as sole owner. Transfer ownership or delete the home first."
	msgOwnerPromote      = "Only owners can promote members"
	msgOwnerRemove       = "Only owners can remove members"
	msgOwnerDelete       = "Only owners can delete the home"
	msgUserIDRequired    = "User ID is required"
	msgUserNotInHome     = "User not found in this home"
	msgRemoveSelf        = "Cannot remove yourself. Use leave home instead."
	msgLastOwner         = "Cannot remove the last owner of a home"
	msgSoleOwnerAccount  = "Cannot delete account. You are the sole owner of one or more homes. Please transfer ownership or delete those homes first."
	msgShareCodeExhaust  = "Could not generate a unique share code. Please try again."
	msgHomeMissing       = "Home not found"
)

// Event types published to a home's live subscribers.
const (
	EventMemberJoined   = "member_joined"
	EventMemberLeft     = "member_left"
	EventMemberPromoted = "member_promoted"
	EventMemberRemoved  = "member_removed"
	EventHomeDeleted    = "home_deleted"
)

// Event describes a change in a home. UserID is the member affected;
// EntityID names the room or chore for content events.
type Event struct {
	Type     string
	UserID   string
	EntityID string
}

// Notifier receives membership changes after they commit.
type Notifier interface {
	Notify(homeID string, ev Event)
}

type NotifierFunc func(homeID string, ev Event)

func (f NotifierFunc) Notify(homeID string, ev Event) { f(homeID, ev) }

type Service struct {
	db          *sql.DB
	users       *store.UserStore
	sessions    *store.SessionStore
	homes       *store.HomeStore
	memberships *store.MembershipStore
	rooms       *store.RoomStore
	chores      *store.ChoreStore
	notifier    Notifier
	logger      *slog.Logger

	now       func() time.Time
	shareCode func() (string, error)
	backoff   time.Duration
}

func NewService(db *sql.DB, notifier Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = NotifierFunc(func(string, Event) {})
	}
	return &Service{
		db:          db,
		users:       store.NewUserStore(db),
		sessions:    store.NewSessionStore(db),
		homes:       store.NewHomeStore(db),
		memberships: store.NewMembershipStore(db),
		rooms:       store.NewRoomStore(db),
		chores:      store.NewChoreStore(db),
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
		shareCode:   NewShareCode,
		backoff:     time.Millisecond,
	}
}

// CreateHome creates a home owned by userID. Share code collisions are
// retried with a fresh code; each attempt is its own transaction.
func (s *Service) CreateHome(ctx context.Context, userID, name string) (*model.Home, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.Validation, msgHomeNameRequired)
	}

	backoff := retry.WithMaxRetries(shareCodeAttempts-1, retry.NewConstant(s.backoff))
	home, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*model.Home, error) {
		code, err := s.shareCode()
		if err != nil {
			return nil, fmt.Errorf("generate share code: %w", err)
		}

		var home *model.Home
		err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
			now := s.now()
			h, err := s.homes.WithTx(tx).Create(ctx, code, name, now)
			if err != nil {
				return err
			}
			if _, err := s.memberships.WithTx(tx).Create(ctx, userID, h.ID, model.RoleOwner, now); err != nil {
				return err
			}
			home = h
			return nil
		})
		if store.IsUniqueViolation(err) {
			metrics.ShareCodeCollisions.Inc()
			s.logger.Debug("share code collision", "code", code)
			return nil, retry.RetryableError(err)
		}
		return home, err
	})
	if store.IsUniqueViolation(err) {
		return nil, apperr.New(apperr.Conflict, msgShareCodeExhaust)
	}
	if err != nil {
		return nil, apperr.Wrap(err, "create home", "user_id", userID)
	}

	s.logger.Info("home created", "home_id", home.ID, "user_id", userID)
	return home, nil
}

// JoinHome adds userID to the home with the given share code. Joining an
// empty home makes the joiner its owner. Joining a home twice is a no-op.
func (s *Service) JoinHome(ctx context.Context, userID, shareCode string) (*model.Home, error) {
	code := NormalizeShareCode(shareCode)
	if code == "" {
		return nil, apperr.New(apperr.Validation, msgShareCodeRequired)
	}
	if !ValidShareCode(code) {
		return nil, apperr.New(apperr.NotFound, msgHomeNotFound)
	}

	var home *model.Home
	joined := false
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		homes := s.homes.WithTx(tx)
		memberships := s.memberships.WithTx(tx)

		h, err := homes.GetByShareCode(ctx, code)
		if err != nil {
			return err
		}
		if h == nil {
			return apperr.New(apperr.NotFound, msgHomeNotFound)
		}
		home = h

		existing, err := memberships.Get(ctx, userID, h.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		count, err := memberships.Count(ctx, h.ID)
		if err != nil {
			return err
		}
		role := model.RoleMember
		if count == 0 {
			role = model.RoleOwner
		}

		if _, err := memberships.Create(ctx, userID, h.ID, role, s.now()); err != nil {
			if store.IsUniqueViolation(err) {
				return nil
			}
			return err
		}
		if err := homes.SetLastMemberLeft(ctx, h.ID, nil); err != nil {
			return err
		}
		h.LastMemberLeftAt = nil
		joined = true
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "join home", "user_id", userID, "share_code", code)
	}

	if joined {
		s.logger.Info("home joined", "home_id", home.ID, "user_id", userID)
		s.notifier.Notify(home.ID, Event{Type: EventMemberJoined, UserID: userID})
	}
	return home, nil
}

// LeaveHome removes userID's own membership. A sole owner must transfer
// ownership or delete the home instead.
func (s *Service) LeaveHome(ctx context.Context, userID, homeID string) error {
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		memberships := s.memberships.WithTx(tx)

		m, err := memberships.Get(ctx, userID, homeID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.New(apperr.Forbidden, msgUnauthorized)
		}

		if m.Role == model.RoleOwner {
			owners, err := memberships.CountOwners(ctx, homeID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return apperr.New(apperr.Guard, msgSoleOwnerLeave)
			}
		}

		if _, err := memberships.Delete(ctx, userID, homeID); err != nil {
			return err
		}
		return s.markIfEmpty(ctx, tx, homeID)
	})
	if err != nil {
		return apperr.Wrap(err, "leave home", "user_id", userID, "home_id", homeID)
	}

	s.logger.Info("home left", "home_id", homeID, "user_id", userID)
	s.notifier.Notify(homeID, Event{Type: EventMemberLeft, UserID: userID})
	return nil
}

// PromoteMember makes targetID an owner of homeID.
func (s *Service) PromoteMember(ctx context.Context, actorID, targetID, homeID string) error {
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		memberships := s.memberships.WithTx(tx)

		if err := requireOwner(ctx, memberships, actorID, homeID, msgOwnerPromote); err != nil {
			return err
		}
		if targetID == "" {
			return apperr.New(apperr.Validation, msgUserIDRequired)
		}

		target, err := memberships.Get(ctx, targetID, homeID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperr.New(apperr.NotFound, msgUserNotInHome)
		}
		if target.Role == model.RoleOwner {
			return nil
		}
		return memberships.SetRole(ctx, targetID, homeID, model.RoleOwner)
	})
	if err != nil {
		return apperr.Wrap(err, "promote member", "home_id", homeID, "target_id", targetID)
	}

	s.notifier.Notify(homeID, Event{Type: EventMemberPromoted, UserID: targetID})
	return nil
}

// RemoveMember deletes targetID's membership. Owners cannot remove
// themselves; the owner count is re-checked before commit.
func (s *Service) RemoveMember(ctx context.Context, actorID, targetID, homeID string) error {
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		memberships := s.memberships.WithTx(tx)

		if err := requireOwner(ctx, memberships, actorID, homeID, msgOwnerRemove); err != nil {
			return err
		}
		if targetID == "" {
			return apperr.New(apperr.Validation, msgUserIDRequired)
		}
		if targetID == actorID {
			return apperr.New(apperr.Validation, msgRemoveSelf)
		}

		removed, err := memberships.Delete(ctx, targetID, homeID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.New(apperr.NotFound, msgUserNotInHome)
		}

		// The acting owner always remains, so this only catches future rule changes.
		owners, err := memberships.CountOwners(ctx, homeID)
		if err != nil {
			return err
		}
		if owners == 0 {
			return apperr.New(apperr.Guard, msgLastOwner)
		}
		return nil
	})
	if err != nil {
		return apperr.Wrap(err, "remove member", "home_id", homeID, "target_id", targetID)
	}

	s.logger.Info("member removed", "home_id", homeID, "user_id", targetID, "by", actorID)
	s.notifier.Notify(homeID, Event{Type: EventMemberRemoved, UserID: targetID})
	return nil
}

// DeleteHome removes the home and everything in it.
func (s *Service) DeleteHome(ctx context.Context, actorID, homeID string) error {
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := requireOwner(ctx, s.memberships.WithTx(tx), actorID, homeID, msgOwnerDelete); err != nil {
			return err
		}
		if err := s.chores.WithTx(tx).DeleteByHome(ctx, homeID); err != nil {
			return err
		}
		if err := s.rooms.WithTx(tx).DeleteByHome(ctx, homeID); err != nil {
			return err
		}
		if err := s.memberships.WithTx(tx).DeleteByHome(ctx, homeID); err != nil {
			return err
		}
		return s.homes.WithTx(tx).Delete(ctx, homeID)
	})
	if err != nil {
		return apperr.Wrap(err, "delete home", "home_id", homeID)
	}

	s.logger.Info("home deleted", "home_id", homeID, "user_id", actorID)
	s.notifier.Notify(homeID, Event{Type: EventHomeDeleted, UserID: actorID})
	return nil
}

// DeleteAccount removes userID with their sessions and memberships. Homes
// left empty are timestamped for the reaper.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	var left []string
	err := store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		memberships := s.memberships.WithTx(tx)

		sole, err := memberships.SoleOwnerHomes(ctx, userID)
		if err != nil {
			return err
		}
		if len(sole) > 0 {
			return apperr.New(apperr.Guard, msgSoleOwnerAccount)
		}

		ms, err := memberships.ListByUser(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.sessions.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		for _, m := range ms {
			if _, err := memberships.Delete(ctx, userID, m.HomeID); err != nil {
				return err
			}
			if err := s.markIfEmpty(ctx, tx, m.HomeID); err != nil {
				return err
			}
			left = append(left, m.HomeID)
		}
		return s.users.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		return apperr.Wrap(err, "delete account", "user_id", userID)
	}

	s.logger.Info("account deleted", "user_id", userID)
	for _, homeID := range left {
		s.notifier.Notify(homeID, Event{Type: EventMemberLeft, UserID: userID})
	}
	return nil
}

// Authorize loads userID's membership in homeID from storage. Non-members
// get Forbidden, as do members when requireOwner is set.
func (s *Service) Authorize(ctx context.Context, userID, homeID string, requireOwner bool) (*model.HomeMembership, error) {
	m, err := s.memberships.Get(ctx, userID, homeID)
	if err != nil {
		return nil, apperr.Wrap(err, "authorize", "user_id", userID, "home_id", homeID)
	}
	if m == nil {
		return nil, apperr.New(apperr.Forbidden, msgUnauthorized)
	}
	if requireOwner && m.Role != model.RoleOwner {
		return nil, apperr.New(apperr.Forbidden, msgUnauthorized)
	}
	return m, nil
}

// ListHomes returns the homes userID belongs to.
func (s *Service) ListHomes(ctx context.Context, userID string) ([]model.HomeWithRole, error) {
	homes, err := s.homes.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "list homes", "user_id", userID)
	}
	return homes, nil
}

// HomeView is the management view of a home for one of its members.
type HomeView struct {
	Home    *model.Home    `json:"home"`
	Role    model.Role     `json:"user_role"`
	Members []model.Member `json:"members"`
}

// Members returns the home with its member list, visible to members only.
func (s *Service) Members(ctx context.Context, actorID, homeID string) (*HomeView, error) {
	m, err := s.Authorize(ctx, actorID, homeID, false)
	if err != nil {
		return nil, err
	}
	home, err := s.homes.GetByID(ctx, homeID)
	if err != nil {
		return nil, apperr.Wrap(err, "get home", "home_id", homeID)
	}
	if home == nil {
		return nil, apperr.New(apperr.NotFound, msgHomeMissing)
	}
	members, err := s.memberships.ListMembers(ctx, homeID)
	if err != nil {
		return nil, apperr.Wrap(err, "list members", "home_id", homeID)
	}
	return &HomeView{Home: home, Role: m.Role, Members: members}, nil
}

// SoleOwnerHomes lists the homes blocking userID from deleting their account.
func (s *Service) SoleOwnerHomes(ctx context.Context, userID string) ([]model.Home, error) {
	homes, err := s.memberships.SoleOwnerHomes(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "sole owner homes", "user_id", userID)
	}
	return homes, nil
}

func requireOwner(ctx context.Context, memberships *store.MembershipStore, userID, homeID, msg string) error {
	m, err := memberships.Get(ctx, userID, homeID)
	if err != nil {
		return err
	}
	if m == nil || m.Role != model.RoleOwner {
		return apperr.New(apperr.Forbidden, msg)
	}
	return nil
}

// markIfEmpty stamps last_member_left_at when homeID has no members left.
func (s *Service) markIfEmpty(ctx context.Context, tx *sql.Tx, homeID string) error {
	count, err := s.memberships.WithTx(tx).Count(ctx, homeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	now := s.now()
	return s.homes.WithTx(tx).SetLastMemberLeft(ctx, homeID, &now)
}

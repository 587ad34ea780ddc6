// Package chore manages the rooms of a home and the recurring chores in them.
package chore

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/membership"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const (
	msgRoomNameRequired   = "Room name is required"
	msgRoomFieldsRequired = "Room ID and name are required"
	msgRoomIDRequired     = "Room ID is required"
	msgChoreCreateFields  = "Room and title are required"
	msgChoreEditFields    = "Chore ID and title are required"
	msgChoreIDRequired    = "Chore ID is required"
	msgChoreNotFound      = "Chore not found"
	msgUnauthorized       = "Unauthorized"
)

// Event types published when home content changes.
const (
	EventRoomCreated    = "room_created"
	EventRoomUpdated    = "room_updated"
	EventRoomDeleted    = "room_deleted"
	EventChoreCreated   = "chore_created"
	EventChoreUpdated   = "chore_updated"
	EventChoreCompleted = "chore_completed"
	EventChoreDeleted   = "chore_deleted"
)

// Authorizer checks that a user belongs to a home.
type Authorizer interface {
	Authorize(ctx context.Context, userID, homeID string, requireOwner bool) (*model.HomeMembership, error)
}

type Service struct {
	auth     Authorizer
	rooms    *store.RoomStore
	chores   *store.ChoreStore
	notifier membership.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(db *sql.DB, auth Authorizer, notifier membership.Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = membership.NotifierFunc(func(string, membership.Event) {})
	}
	return &Service{
		auth:     auth,
		rooms:    store.NewRoomStore(db),
		chores:   store.NewChoreStore(db),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ChoreView is a chore with its progress computed at load time.
type ChoreView struct {
	model.Chore
	Progress float64    `json:"progress"`
	DueLabel string     `json:"due_label"`
	DueAt    *time.Time `json:"due_at"`
	Color    Color      `json:"color"`
}

type RoomView struct {
	model.Room
	Chores []ChoreView `json:"chores"`
}

// Dashboard returns every room in the home with its chores.
func (s *Service) Dashboard(ctx context.Context, userID, homeID string) ([]RoomView, error) {
	if _, err := s.auth.Authorize(ctx, userID, homeID, false); err != nil {
		return nil, err
	}

	rooms, err := s.rooms.ListByHome(ctx, homeID)
	if err != nil {
		return nil, apperr.Wrap(err, "list rooms", "home_id", homeID)
	}
	chores, err := s.chores.ListByHome(ctx, homeID)
	if err != nil {
		return nil, apperr.Wrap(err, "list chores", "home_id", homeID)
	}

	now := s.now()
	byRoom := make(map[string][]ChoreView, len(rooms))
	for _, c := range chores {
		p := Progress(c, now)
		byRoom[c.RoomID] = append(byRoom[c.RoomID], ChoreView{
			Chore:    c,
			Progress: p,
			DueLabel: DueLabel(c, now),
			DueAt:    DueAt(c),
			Color:    ProgressColor(p),
		})
	}

	views := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		cs := byRoom[r.ID]
		if cs == nil {
			cs = []ChoreView{}
		}
		views = append(views, RoomView{Room: r, Chores: cs})
	}
	return views, nil
}

func (s *Service) CreateRoom(ctx context.Context, userID, homeID, name, icon string) (*model.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.Validation, msgRoomNameRequired)
	}
	if _, err := s.auth.Authorize(ctx, userID, homeID, false); err != nil {
		return nil, err
	}

	room, err := s.rooms.Create(ctx, homeID, name, icon)
	if err != nil {
		return nil, apperr.Wrap(err, "create room", "home_id", homeID)
	}
	s.notifier.Notify(homeID, membership.Event{Type: EventRoomCreated, UserID: userID, EntityID: room.ID})
	return room, nil
}

func (s *Service) UpdateRoom(ctx context.Context, userID, homeID, roomID, name, icon string) (*model.Room, error) {
	name = strings.TrimSpace(name)
	if roomID == "" || name == "" {
		return nil, apperr.New(apperr.Validation, msgRoomFieldsRequired)
	}
	if _, err := s.room(ctx, userID, homeID, roomID); err != nil {
		return nil, err
	}

	room, err := s.rooms.Update(ctx, roomID, name, icon)
	if err != nil {
		return nil, apperr.Wrap(err, "update room", "room_id", roomID)
	}
	s.notifier.Notify(homeID, membership.Event{Type: EventRoomUpdated, UserID: userID, EntityID: roomID})
	return room, nil
}

// DeleteRoom removes a room; its chores go with it through the foreign key.
func (s *Service) DeleteRoom(ctx context.Context, userID, homeID, roomID string) error {
	if roomID == "" {
		return apperr.New(apperr.Validation, msgRoomIDRequired)
	}
	if _, err := s.room(ctx, userID, homeID, roomID); err != nil {
		return err
	}

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return apperr.Wrap(err, "delete room", "room_id", roomID)
	}
	s.notifier.Notify(homeID, membership.Event{Type: EventRoomDeleted, UserID: userID, EntityID: roomID})
	return nil
}

// CreateChore adds a chore to a room. Frequency is clamped to 1..52 weeks.
func (s *Service) CreateChore(ctx context.Context, userID, homeID, roomID, title string, frequencyWeeks int) (*model.Chore, error) {
	title = strings.TrimSpace(title)
	if roomID == "" || title == "" {
		return nil, apperr.New(apperr.Validation, msgChoreCreateFields)
	}
	if _, err := s.room(ctx, userID, homeID, roomID); err != nil {
		return nil, err
	}

	c, err := s.chores.Create(ctx, roomID, title, ClampFrequency(frequencyWeeks))
	if err != nil {
		return nil, apperr.Wrap(err, "create chore", "room_id", roomID)
	}
	s.notifier.Notify(homeID, membership.Event{Type: EventChoreCreated, UserID: userID, EntityID: c.ID})
	return c, nil
}

func (s *Service) UpdateChore(ctx context.Context, userID, homeID, choreID, title string, frequencyWeeks int) (*model.Chore, error) {
	title = strings.TrimSpace(title)
	if choreID == "" || title == "" {
		return nil, apperr.New(apperr.Validation, msgChoreEditFields)
	}
	if err := s.chore(ctx, userID, homeID, choreID); err != nil {
		return nil, err
	}

	c, err := s.chores.Update(ctx, choreID, title, ClampFrequency(frequencyWeeks))
	if err != nil {
		return nil, apperr.Wrap(err, "update chore", "chore_id", choreID)
	}
	s.notifier.Notify(homeID, membership.Event{Type: EventChoreUpdated, UserID: userID, EntityID: choreID})
	return c, nil
}

// CompleteChore stamps the chore as done now, restarting its cycle.
func (s *Service) CompleteChore(ctx context.Context, userID, homeID, choreID string) (*model.Chore, error) {
	if choreID == "" {
		return nil, apperr.New(apperr.Validation, msgChoreIDRequired)
	}
	if err := s.chore(ctx, userID, homeID, choreID); err != nil {
		return nil, err
	}

	c, err := s.chores.Complete(ctx, choreID, s.now())
	if err != nil {
		return nil, apperr.Wrap(err, "complete chore", "chore_id", choreID)
	}
	metrics.ChoresCompleted.Inc()
	s.notifier.Notify(homeID, membership.Event{Type: EventChoreCompleted, UserID: userID, EntityID: choreID})
	return c, nil
}

func (s *Service) DeleteChore(ctx context.Context, userID, homeID, choreID string) error {
	if choreID == "" {
		return apperr.New(apperr.Validation, msgChoreIDRequired)
	}
	if err := s.chore(ctx, userID, homeID, choreID); err != nil {
		return err
	}

	if err := s.chores.Delete(ctx, choreID); err != nil {
		return apperr.Wrap(err, "delete chore", "chore_id", choreID)
	}
	s.notifier.Notify(homeID, membership.Event{Type: EventChoreDeleted, UserID: userID, EntityID: choreID})
	return nil
}

// room loads roomID after checking that userID belongs to homeID and that
// the room lives there.
func (s *Service) room(ctx context.Context, userID, homeID, roomID string) (*model.Room, error) {
	if _, err := s.auth.Authorize(ctx, userID, homeID, false); err != nil {
		return nil, err
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, apperr.Wrap(err, "get room", "room_id", roomID)
	}
	if room == nil || room.HomeID != homeID {
		return nil, apperr.New(apperr.Forbidden, msgUnauthorized)
	}
	return room, nil
}

func (s *Service) chore(ctx context.Context, userID, homeID, choreID string) error {
	if _, err := s.auth.Authorize(ctx, userID, homeID, false); err != nil {
		return err
	}
	owner, err := s.chores.HomeID(ctx, choreID)
	if err != nil {
		return apperr.Wrap(err, "get chore", "chore_id", choreID)
	}
	if owner == "" {
		return apperr.New(apperr.NotFound, msgChoreNotFound)
	}
	if owner != homeID {
		return apperr.New(apperr.Forbidden, msgUnauthorized)
	}
	return nil
}

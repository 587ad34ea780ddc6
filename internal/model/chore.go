package model

import "time"

const DefaultRoomIcon = "HomeIcon"

type Room struct {
	ID        string    `json:"id"`
	HomeID    string    `json:"home_id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

type Chore struct {
	ID              string     `json:"id"`
	RoomID          string     `json:"room_id"`
	Title           string     `json:"title"`
	FrequencyWeeks  int        `json:"frequency_weeks"`
	LastCompletedAt *time.Time `json:"last_completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

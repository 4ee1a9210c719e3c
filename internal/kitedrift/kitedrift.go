// Package kitedrift defines the core domain types shared by the store, the
// game engine, and the transport layer. It has no dependencies outside the
// standard library.
package kitedrift

import "time"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// RoomStatus progresses waiting → playing → finished and never moves backward.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// Next reports whether a transition from s to to is a legal forward step.
func (s RoomStatus) Next(to RoomStatus) bool {
	switch s {
	case RoomWaiting:
		return to == RoomPlaying
	case RoomPlaying:
		return to == RoomFinished
	default:
		return false
	}
}

type Room struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	CreatorID   int64      `json:"creatorId"`
	MaxPlayers  int        `json:"maxPlayers"`
	TargetCoins int        `json:"targetCoins"`
	Status      RoomStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Altitude is the kite's height class; it scales how strongly wind moves it.
type Altitude string

const (
	AltitudeLow  Altitude = "low"
	AltitudeMid  Altitude = "mid"
	AltitudeHigh Altitude = "high"
)

// Multiplier returns the wind speed multiplier for the altitude class.
func (a Altitude) Multiplier() float64 {
	switch a {
	case AltitudeLow:
		return 0.5
	case AltitudeHigh:
		return 1.5
	default:
		return 1.0
	}
}

// Valid reports whether a is one of the three known altitude classes.
func (a Altitude) Valid() bool {
	return a == AltitudeLow || a == AltitudeMid || a == AltitudeHigh
}

type Kite struct {
	ID        int64    `json:"id"`
	UserID    int64    `json:"userId"`
	RoomID    int64    `json:"roomId"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  Altitude `json:"altitude"`
	SkinID    string   `json:"skinId"`
	Coins     int      `json:"coins"`
	IsActive  bool     `json:"isActive"`
}

type EventType string

const (
	EventCoin  EventType = "coin"
	EventStorm EventType = "storm"
)

// GameEvent is a transient world entity: a collectible coin or a storm
// vortex. Radius is set for storms only; ExpiresAt is nil for events that
// never time out.
type GameEvent struct {
	ID        int64      `json:"id"`
	RoomID    int64      `json:"roomId"`
	Type      EventType  `json:"type"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Value     int        `json:"value"`
	Radius    *float64   `json:"radius,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Expired reports whether the event's lifetime has passed at time now.
func (e GameEvent) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

type RoomMembership struct {
	ID       int64     `json:"id"`
	RoomID   int64     `json:"roomId"`
	UserID   int64     `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

type KiteSkin struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl"`
	IsDefault bool   `json:"isDefault"`
}

// WindSample is one cached wind reading. Direction uses the meteorological
// convention: the bearing the wind blows from, 0° = north, clockwise.
type WindSample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Direction float64   `json:"direction"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Package store owns persistence for all game entities. It exposes a small
// CRUD interface with no game logic; the engine is the single writer for
// room, kite, and event mutation while a room is playing.
package store

import (
	"context"
	"errors"

	"github.com/skyloft/kitedrift/internal/kitedrift"
)

var ErrNotFound = errors.New("not found")

// KiteUpdate is a partial update; nil fields are left unchanged.
type KiteUpdate struct {
	Latitude  *float64
	Longitude *float64
	Altitude  *kitedrift.Altitude
	Coins     *int
	IsActive  *bool
}

type Store interface {
	// Users.
	CreateUser(ctx context.Context, username, passwordHash string) (kitedrift.User, error)
	GetUser(ctx context.Context, id int64) (kitedrift.User, error)
	GetUserByUsername(ctx context.Context, username string) (kitedrift.User, error)

	// Rooms.
	CreateRoom(ctx context.Context, name string, creatorID int64, maxPlayers, targetCoins int) (kitedrift.Room, error)
	GetRoom(ctx context.Context, id int64) (kitedrift.Room, error)
	ListRooms(ctx context.Context) ([]kitedrift.Room, error)
	UpdateRoomStatus(ctx context.Context, id int64, status kitedrift.RoomStatus) (kitedrift.Room, error)

	// Kites.
	CreateKite(ctx context.Context, k kitedrift.Kite) (kitedrift.Kite, error)
	GetKite(ctx context.Context, id int64) (kitedrift.Kite, error)
	KitesByRoom(ctx context.Context, roomID int64) ([]kitedrift.Kite, error)
	KitesByUser(ctx context.Context, userID int64) ([]kitedrift.Kite, error)
	UpdateKite(ctx context.Context, id int64, upd KiteUpdate) (kitedrift.Kite, error)

	// Game events. EventsByRoom returns events in creation order.
	CreateEvent(ctx context.Context, e kitedrift.GameEvent) (kitedrift.GameEvent, error)
	EventsByRoom(ctx context.Context, roomID int64) ([]kitedrift.GameEvent, error)
	DeleteEvent(ctx context.Context, id int64) error

	// Room membership. AddMember is a no-op if the pair already exists.
	AddMember(ctx context.Context, roomID, userID int64) (kitedrift.RoomMembership, error)
	MembersByRoom(ctx context.Context, roomID int64) ([]kitedrift.RoomMembership, error)
	RemoveMember(ctx context.Context, roomID, userID int64) error

	// Kite skins.
	CreateSkin(ctx context.Context, name, imageURL string, isDefault bool) (kitedrift.KiteSkin, error)
	ListSkins(ctx context.Context) ([]kitedrift.KiteSkin, error)
}

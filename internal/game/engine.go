// Package game is the room simulation engine: the per-room session state
// machine, wind-driven kite movement, the coin/storm event system, and win
// detection. All room mutation funnels through here; the store never sees
// concurrent writers for the same room.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/skyloft/kitedrift/internal/kitedrift"
	"github.com/skyloft/kitedrift/internal/store"
	"github.com/skyloft/kitedrift/internal/wind"
)

const (
	initialCoins    = 10
	firstStormDelay = 30 * time.Second
)

type Engine struct {
	store  store.Store
	wind   *wind.Service
	bc     Broadcaster
	logger *slog.Logger
	tick   time.Duration

	mu      sync.Mutex
	runners map[int64]*runner
}

// runner serializes all mutation for one room. Ticks, spawners, and client
// commands for the same room take this lock; different rooms run in parallel.
type runner struct {
	mu sync.Mutex
}

func NewEngine(s store.Store, w *wind.Service, bc Broadcaster, logger *slog.Logger, tick time.Duration) *Engine {
	return &Engine{
		store:   s,
		wind:    w,
		bc:      bc,
		logger:  logger,
		tick:    tick,
		runners: make(map[int64]*runner),
	}
}

func (e *Engine) runner(roomID int64) *runner {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.runners[roomID]
	if !ok {
		r = &runner{}
		e.runners[roomID] = r
	}
	return r
}

// RoomState is the snapshot sent on join and on membership changes.
type RoomState struct {
	Room    kitedrift.Room
	Players []kitedrift.RoomMembership
	Kites   []kitedrift.Kite
}

func (e *Engine) RoomState(ctx context.Context, roomID int64) (RoomState, error) {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return RoomState{}, err
	}
	players, err := e.store.MembersByRoom(ctx, roomID)
	if err != nil {
		return RoomState{}, err
	}
	kites, err := e.store.KitesByRoom(ctx, roomID)
	if err != nil {
		return RoomState{}, err
	}
	return RoomState{Room: room, Players: players, Kites: kites}, nil
}

// JoinRoom adds the named user to the room, creating the user on first
// sight. Returns the user and the room snapshot. Announcing the refreshed
// state to the room is the transport's job: it has to register the joining
// connection before any fan-out or the joiner misses its own announcement.
func (e *Engine) JoinRoom(ctx context.Context, roomID int64, username string) (kitedrift.User, RoomState, error) {
	if username == "" {
		return kitedrift.User{}, RoomState{}, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if _, err := e.store.GetRoom(ctx, roomID); err != nil {
		return kitedrift.User{}, RoomState{}, err
	}

	user, err := e.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		// No authentication in this game: users are provisioned on first
		// join with a throwaway credential.
		hash, herr := bcrypt.GenerateFromPassword([]byte("temporary"), bcrypt.DefaultCost)
		if herr != nil {
			return kitedrift.User{}, RoomState{}, herr
		}
		user, err = e.store.CreateUser(ctx, username, string(hash))
	}
	if err != nil {
		return kitedrift.User{}, RoomState{}, err
	}

	r := e.runner(roomID)
	r.mu.Lock()
	_, err = e.store.AddMember(ctx, roomID, user.ID)
	r.mu.Unlock()
	if err != nil {
		return kitedrift.User{}, RoomState{}, err
	}

	state, err := e.RoomState(ctx, roomID)
	if err != nil {
		return kitedrift.User{}, RoomState{}, err
	}
	return user, state, nil
}

// LeaveRoom removes the membership. Leaving a room the user is not in is a
// no-op. While the room is still waiting the user's kites are deactivated;
// once playing, kites stay in the simulation even if their owner leaves.
func (e *Engine) LeaveRoom(ctx context.Context, roomID, userID int64) error {
	r := e.runner(roomID)
	r.mu.Lock()
	defer r.mu.Unlock()

	// Status is read inside the critical section: a start landing between an
	// earlier read and the lock would otherwise deactivate a playing kite.
	room, err := e.store.GetRoom(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := e.store.RemoveMember(ctx, roomID, userID); err != nil {
		return err
	}

	if room.Status == kitedrift.RoomWaiting {
		kites, err := e.store.KitesByUser(ctx, userID)
		if err != nil {
			return err
		}
		inactive := false
		for _, k := range kites {
			if k.RoomID != roomID || !k.IsActive {
				continue
			}
			if _, err := e.store.UpdateKite(ctx, k.ID, store.KiteUpdate{IsActive: &inactive}); err != nil {
				return err
			}
		}
	}

	state, err := e.RoomState(ctx, roomID)
	if err != nil {
		return err
	}
	e.bc.ToRoom(roomID, roomStateMsg(state.Room, state.Players, state.Kites))
	return nil
}

// PlaceKite creates a kite for the user in a waiting room.
func (e *Engine) PlaceKite(ctx context.Context, k kitedrift.Kite) (kitedrift.Kite, error) {
	if !k.Altitude.Valid() {
		return kitedrift.Kite{}, fmt.Errorf("%w: unknown altitude %q", ErrValidation, k.Altitude)
	}
	if math.IsNaN(k.Latitude) || math.IsNaN(k.Longitude) {
		return kitedrift.Kite{}, fmt.Errorf("%w: position is not a number", ErrValidation)
	}

	room, err := e.store.GetRoom(ctx, k.RoomID)
	if err != nil {
		return kitedrift.Kite{}, err
	}
	if room.Status != kitedrift.RoomWaiting {
		return kitedrift.Kite{}, fmt.Errorf("%w: kites are placed before the game starts", ErrRoomState)
	}

	r := e.runner(k.RoomID)
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := e.store.KitesByUser(ctx, k.UserID)
	if err != nil {
		return kitedrift.Kite{}, err
	}
	active := 0
	kites, err := e.store.KitesByRoom(ctx, k.RoomID)
	if err != nil {
		return kitedrift.Kite{}, err
	}
	for _, other := range kites {
		if other.IsActive {
			active++
		}
	}
	if active >= room.MaxPlayers {
		return kitedrift.Kite{}, fmt.Errorf("%w: room is full", ErrValidation)
	}
	for _, other := range existing {
		if other.RoomID == k.RoomID && other.IsActive {
			return kitedrift.Kite{}, fmt.Errorf("%w: kite already placed in this room", ErrValidation)
		}
	}

	created, err := e.store.CreateKite(ctx, k)
	if err != nil {
		return kitedrift.Kite{}, err
	}
	e.bc.ToRoom(created.RoomID, updateKiteMsg(created))
	return created, nil
}

// SetAltitude changes a kite's altitude class. Only the owner may do this.
func (e *Engine) SetAltitude(ctx context.Context, userID, kiteID int64, altitude kitedrift.Altitude) (kitedrift.Kite, error) {
	if !altitude.Valid() {
		return kitedrift.Kite{}, fmt.Errorf("%w: unknown altitude %q", ErrValidation, altitude)
	}

	kite, err := e.store.GetKite(ctx, kiteID)
	if err != nil {
		return kitedrift.Kite{}, err
	}
	if kite.UserID != userID {
		return kitedrift.Kite{}, ErrNotOwner
	}

	r := e.runner(kite.RoomID)
	r.mu.Lock()
	updated, err := e.store.UpdateKite(ctx, kiteID, store.KiteUpdate{Altitude: &altitude})
	r.mu.Unlock()
	if err != nil {
		return kitedrift.Kite{}, err
	}

	e.bc.ToRoom(updated.RoomID, updateKiteMsg(updated))
	return updated, nil
}

// Start transitions a waiting room to playing: seeds the initial coins and
// kicks off the movement tick and the storm schedule. Requires at least one
// placed kite.
func (e *Engine) Start(ctx context.Context, roomID int64) error {
	r := e.runner(roomID)

	r.mu.Lock()
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if !room.Status.Next(kitedrift.RoomPlaying) {
		r.mu.Unlock()
		return fmt.Errorf("%w: cannot start a %s room", ErrRoomState, room.Status)
	}
	kites, err := e.store.KitesByRoom(ctx, roomID)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if countActive(kites) == 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: no kites placed", ErrValidation)
	}
	if _, err := e.store.UpdateRoomStatus(ctx, roomID, kitedrift.RoomPlaying); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	e.bc.ToRoom(roomID, gameStartMsg(roomID))

	for i := 0; i < initialCoins; i++ {
		if err := e.spawnCoin(ctx, roomID); err != nil {
			e.logger.Warn("seed coin skipped", "room", roomID, "error", err)
		}
	}

	e.scheduleTick(roomID)
	time.AfterFunc(firstStormDelay, func() { e.stormCycle(roomID) })
	return nil
}

func countActive(kites []kitedrift.Kite) int {
	n := 0
	for _, k := range kites {
		if k.IsActive {
			n++
		}
	}
	return n
}

// scheduleTick arms the next movement tick. The tick itself re-checks room
// status and stops rescheduling once the room leaves playing; no cancellation
// handle is needed.
func (e *Engine) scheduleTick(roomID int64) {
	time.AfterFunc(e.tick, func() {
		if e.tickOnce(context.Background(), roomID) {
			e.scheduleTick(roomID)
		}
	})
}

// tickOnce advances the room and reports whether the next tick should be
// armed. Errors are logged and keep the loop alive; only a room that has
// verifiably left playing stops it.
func (e *Engine) tickOnce(ctx context.Context, roomID int64) bool {
	if err := e.advanceRoom(ctx, roomID); err != nil {
		e.logger.Error("tick failed", "room", roomID, "error", err)
	}
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		e.logger.Error("tick status check failed", "room", roomID, "error", err)
		return true
	}
	return room.Status == kitedrift.RoomPlaying
}

package game

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/skyloft/kitedrift/internal/kitedrift"
)

const (
	coinLifetime  = 5 * time.Minute
	stormLifetime = 3 * time.Minute

	coinMinDist   = 0.001
	coinDistSpan  = 0.002
	stormMargin   = 0.01
	stormMinR     = 0.0005
	stormRSpan    = 0.001
	stormMinDelay = 30 * time.Second
	stormMaxDelay = 90 * time.Second
)

// spawnCoin places one coin a random distance downwind of a random active
// kite. A room with no active kites has no reference point, so the spawn is
// silently skipped. The wind fetch happens before the room lock is taken.
func (e *Engine) spawnCoin(ctx context.Context, roomID int64) error {
	kites, err := e.store.KitesByRoom(ctx, roomID)
	if err != nil {
		return err
	}
	var active []kitedrift.Kite
	for _, k := range kites {
		if k.IsActive {
			active = append(active, k)
		}
	}
	if len(active) == 0 {
		return nil
	}
	anchor := active[rand.Intn(len(active))]

	sample, err := e.wind.Sample(ctx, anchor.Latitude, anchor.Longitude)
	if err != nil {
		return err
	}

	// Downwind is the bearing the wind blows to: the opposite of the
	// meteorological "from" bearing.
	downwind := math.Mod(sample.Direction+180, 360) * math.Pi / 180
	dist := coinMinDist + rand.Float64()*coinDistSpan
	expires := time.Now().Add(coinLifetime)

	r := e.runner(roomID)
	r.mu.Lock()
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil || room.Status != kitedrift.RoomPlaying {
		r.mu.Unlock()
		return err
	}
	coin, err := e.store.CreateEvent(ctx, kitedrift.GameEvent{
		RoomID:    roomID,
		Type:      kitedrift.EventCoin,
		Latitude:  anchor.Latitude + math.Sin(downwind)*dist,
		Longitude: anchor.Longitude + math.Cos(downwind)*dist,
		Value:     1,
		ExpiresAt: &expires,
	})
	r.mu.Unlock()
	if err != nil {
		return err
	}

	e.bc.ToRoom(roomID, newEventMsg(coin))
	return nil
}

// stormCycle spawns one storm vortex and arms the next one after a random
// 30–90 s delay. Errors keep the cycle armed; only a room that has verifiably
// left playing stops it.
func (e *Engine) stormCycle(roomID int64) {
	if !e.stormOnce(context.Background(), roomID) {
		return
	}
	delay := stormMinDelay + time.Duration(rand.Float64()*float64(stormMaxDelay-stormMinDelay))
	time.AfterFunc(delay, func() { e.stormCycle(roomID) })
}

// stormOnce runs one storm spawn attempt and reports whether the next one
// should be armed. The status check and the event creation share the room
// lock, so a just-finished room can never get one extra storm.
func (e *Engine) stormOnce(ctx context.Context, roomID int64) bool {
	r := e.runner(roomID)
	r.mu.Lock()
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		r.mu.Unlock()
		e.logger.Error("storm cycle failed", "room", roomID, "error", err)
		return true
	}
	if room.Status != kitedrift.RoomPlaying {
		r.mu.Unlock()
		return false
	}

	storm, err := e.createStorm(ctx, roomID)
	r.mu.Unlock()
	if err != nil {
		e.logger.Error("storm spawn failed", "room", roomID, "error", err)
	} else if storm != nil {
		e.bc.ToRoom(roomID, newEventMsg(*storm))
	}
	return true
}

// createStorm picks a uniformly random point inside the margin-expanded
// bounding box of all active kites. Nil with no error means there were no
// active kites to anchor the box. Caller holds the room lock.
func (e *Engine) createStorm(ctx context.Context, roomID int64) (*kitedrift.GameEvent, error) {
	kites, err := e.store.KitesByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	found := false
	for _, k := range kites {
		if !k.IsActive {
			continue
		}
		found = true
		minLat = math.Min(minLat, k.Latitude)
		maxLat = math.Max(maxLat, k.Latitude)
		minLon = math.Min(minLon, k.Longitude)
		maxLon = math.Max(maxLon, k.Longitude)
	}
	if !found {
		return nil, nil
	}

	minLat, maxLat = minLat-stormMargin, maxLat+stormMargin
	minLon, maxLon = minLon-stormMargin, maxLon+stormMargin

	radius := stormMinR + rand.Float64()*stormRSpan
	expires := time.Now().Add(stormLifetime)

	storm, err := e.store.CreateEvent(ctx, kitedrift.GameEvent{
		RoomID:    roomID,
		Type:      kitedrift.EventStorm,
		Latitude:  minLat + rand.Float64()*(maxLat-minLat),
		Longitude: minLon + rand.Float64()*(maxLon-minLon),
		Value:     0,
		Radius:    &radius,
		ExpiresAt: &expires,
	})
	if err != nil {
		return nil, err
	}
	return &storm, nil
}

package game

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/skyloft/kitedrift/internal/kitedrift"
	"github.com/skyloft/kitedrift/internal/store"
	"github.com/skyloft/kitedrift/internal/wind"
)

const (
	// moveScale converts wind speed (m/s) to degrees per tick; 0.0001° is
	// roughly 11 m at the equator.
	moveScale = 0.0001

	pickupRadius = 0.0005

	// stormPullBase is the pull at a storm's center, tapering linearly to
	// zero at the radius.
	stormPullBase = 0.0005
)

// mathHeading converts a meteorological direction (bearing the wind blows
// from, 0° = north, clockwise) to a mathematical heading in degrees
// (0° = east, counterclockwise) pointing where the wind blows to.
func mathHeading(direction float64) float64 {
	return math.Mod(math.Mod(270-direction, 360)+360, 360)
}

// displace returns the (Δlat, Δlon) for one tick of drift under the sample.
func displace(sample kitedrift.WindSample, altitude kitedrift.Altitude) (float64, float64) {
	heading := mathHeading(sample.Direction) * math.Pi / 180
	magnitude := moveScale * sample.Speed * altitude.Multiplier()
	return math.Sin(heading) * magnitude, math.Cos(heading) * magnitude
}

// distance is the Euclidean distance in degree-space. Fine for the tiny
// spans involved; this is a drift approximation, not geodesy.
func distance(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Hypot(lat1-lat2, lon1-lon2)
}

// advanceRoom is one simulation tick: purge expired events, drift every
// active kite with the wind, then run coin pickup and storm pull per kite.
// Wind is resolved before the room lock is taken so a slow provider call
// never stalls the room.
func (e *Engine) advanceRoom(ctx context.Context, roomID int64) error {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Status != kitedrift.RoomPlaying {
		return nil
	}

	kites, err := e.store.KitesByRoom(ctx, roomID)
	if err != nil {
		return err
	}

	winds := make(map[int64]kitedrift.WindSample, len(kites))
	for _, k := range kites {
		if !k.IsActive {
			continue
		}
		sample, err := e.wind.Sample(ctx, k.Latitude, k.Longitude)
		if err != nil {
			if errors.Is(err, wind.ErrUnavailable) {
				// Skip this kite's movement this cycle; retried next tick.
				continue
			}
			return err
		}
		winds[k.ID] = sample
	}

	r := e.runner(roomID)
	r.mu.Lock()

	if err := e.purgeExpired(ctx, roomID); err != nil {
		r.mu.Unlock()
		return err
	}

	var replacements int
	for _, stale := range kites {
		// Re-read inside the lock: earlier pickups this tick may have
		// changed coin counts, and commands may have landed before the lock.
		k, err := e.store.GetKite(ctx, stale.ID)
		if err != nil {
			r.mu.Unlock()
			return err
		}
		if !k.IsActive {
			continue
		}

		if sample, ok := winds[k.ID]; ok {
			dLat, dLon := displace(sample, k.Altitude)
			lat, lon := k.Latitude+dLat, k.Longitude+dLon
			k, err = e.store.UpdateKite(ctx, k.ID, store.KiteUpdate{Latitude: &lat, Longitude: &lon})
			if err != nil {
				r.mu.Unlock()
				return err
			}
		}

		collected, won, err := e.checkCoins(ctx, room, k)
		if err != nil {
			r.mu.Unlock()
			return err
		}
		replacements += collected
		if won {
			break
		}

		if err := e.checkStorms(ctx, k.ID, roomID); err != nil {
			r.mu.Unlock()
			return err
		}
	}

	r.mu.Unlock()

	// One summary broadcast per room per tick; id 0 tells clients to
	// refetch all kites.
	e.bc.ToRoom(roomID, refetchKitesMsg(roomID))

	// Replacement coins spawn after the critical section so the wind fetch
	// they need never happens under the room lock.
	for i := 0; i < replacements; i++ {
		if err := e.spawnCoin(ctx, roomID); err != nil {
			e.logger.Warn("replacement coin skipped", "room", roomID, "error", err)
		}
	}
	return nil
}

// purgeExpired drops events whose lifetime has passed so collision checks
// never consider a dead coin or storm. Clients hide expired events on their
// own from expiresAt; there is no removal broadcast.
func (e *Engine) purgeExpired(ctx context.Context, roomID int64) error {
	events, err := e.store.EventsByRoom(ctx, roomID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, ev := range events {
		if ev.Expired(now) {
			if err := e.store.DeleteEvent(ctx, ev.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkCoins processes coin pickups for one kite, in event-creation order.
// Every coin within range is collected; effects accumulate. The win check
// runs synchronously inside the same pickup so two simultaneous pickups can
// never both believe they won. Returns how many coins were collected and
// whether the kite won.
func (e *Engine) checkCoins(ctx context.Context, room kitedrift.Room, kite kitedrift.Kite) (int, bool, error) {
	// The room may have finished earlier in this tick.
	room, err := e.store.GetRoom(ctx, room.ID)
	if err != nil {
		return 0, false, err
	}
	if room.Status != kitedrift.RoomPlaying {
		return 0, false, nil
	}

	events, err := e.store.EventsByRoom(ctx, room.ID)
	if err != nil {
		return 0, false, err
	}

	collected := 0
	for _, coin := range events {
		if coin.Type != kitedrift.EventCoin {
			continue
		}
		if distance(kite.Latitude, kite.Longitude, coin.Latitude, coin.Longitude) >= pickupRadius {
			continue
		}

		coins := kite.Coins + coin.Value
		kite, err = e.store.UpdateKite(ctx, kite.ID, store.KiteUpdate{Coins: &coins})
		if err != nil {
			return collected, false, err
		}
		if err := e.store.DeleteEvent(ctx, coin.ID); err != nil {
			return collected, false, err
		}
		collected++
		e.bc.ToRoom(room.ID, collectCoinMsg(kite.ID, coin.ID))

		if kite.Coins >= room.TargetCoins {
			if _, err := e.store.UpdateRoomStatus(ctx, room.ID, kitedrift.RoomFinished); err != nil {
				return collected, false, err
			}
			e.bc.ToRoom(room.ID, gameEndMsg(room.ID, kite.UserID))
			e.logger.Info("game finished", "room", room.ID, "winner", kite.UserID, "coins", kite.Coins)
			return collected, true, nil
		}
	}
	return collected, false, nil
}

// checkStorms applies the pull of every storm the kite sits inside, in
// event-creation order. Pull is strongest at the center and zero at the
// boundary; overlapping storms accumulate.
func (e *Engine) checkStorms(ctx context.Context, kiteID, roomID int64) error {
	kite, err := e.store.GetKite(ctx, kiteID)
	if err != nil {
		return err
	}
	events, err := e.store.EventsByRoom(ctx, roomID)
	if err != nil {
		return err
	}

	for _, storm := range events {
		if storm.Type != kitedrift.EventStorm || storm.Radius == nil {
			continue
		}
		d := distance(kite.Latitude, kite.Longitude, storm.Latitude, storm.Longitude)
		if d >= *storm.Radius {
			continue
		}

		pull := stormPullBase * (1 - d/(*storm.Radius))
		bearing := math.Atan2(storm.Latitude-kite.Latitude, storm.Longitude-kite.Longitude)
		lat := kite.Latitude + math.Sin(bearing)*pull
		lon := kite.Longitude + math.Cos(bearing)*pull

		kite, err = e.store.UpdateKite(ctx, kite.ID, store.KiteUpdate{Latitude: &lat, Longitude: &lon})
		if err != nil {
			return err
		}
		e.bc.ToRoom(roomID, updateKiteMsg(kite))
	}
	return nil
}

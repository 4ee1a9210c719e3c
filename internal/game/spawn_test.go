package game

import (
	"context"
	"testing"
	"time"

	"github.com/skyloft/kitedrift/internal/kitedrift"
)

func TestSpawnCoinDownwind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, kite := f.playingRoom(t, 100)

	// Wind from the east: coins land downwind, south of the anchor here.
	f.provider.direction = 90

	if err := f.engine.spawnCoin(ctx, room.ID); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	events, err := f.store.EventsByRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("listing events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	coin := events[0]

	if coin.Type != kitedrift.EventCoin || coin.Value != 1 {
		t.Errorf("coin = %+v, want type coin with value 1", coin)
	}
	if !almostEqual(coin.Longitude, kite.Longitude) {
		t.Errorf("longitude = %v, want %v", coin.Longitude, kite.Longitude)
	}
	offset := kite.Latitude - coin.Latitude
	if offset < coinMinDist || offset > coinMinDist+coinDistSpan {
		t.Errorf("downwind offset = %v, want within [%v, %v]", offset, coinMinDist, coinMinDist+coinDistSpan)
	}

	if coin.ExpiresAt == nil {
		t.Fatal("coin has no expiry")
	}
	ttl := time.Until(*coin.ExpiresAt)
	if ttl <= 0 || ttl > coinLifetime {
		t.Errorf("coin ttl = %v, want at most %v", ttl, coinLifetime)
	}

	if got := len(f.bc.byType(MsgNewEvent)); got != 1 {
		t.Errorf("spawn broadcasts = %d, want 1", got)
	}
}

func TestSpawnCoinNoActiveKites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, _ := f.store.CreateUser(ctx, "host", "")
	room, _ := f.store.CreateRoom(ctx, "empty", user.ID, 4, 500)
	if _, err := f.store.UpdateRoomStatus(ctx, room.ID, kitedrift.RoomPlaying); err != nil {
		t.Fatalf("setting status: %v", err)
	}

	if err := f.engine.spawnCoin(ctx, room.ID); err != nil {
		t.Fatalf("spawn without kites should be a no-op, got %v", err)
	}
	events, _ := f.store.EventsByRoom(ctx, room.ID)
	if len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
}

func TestSpawnCoinSkipsNonPlayingRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _ := f.playingRoom(t, 100)
	if _, err := f.store.UpdateRoomStatus(ctx, room.ID, kitedrift.RoomFinished); err != nil {
		t.Fatalf("finishing: %v", err)
	}

	if err := f.engine.spawnCoin(ctx, room.ID); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	events, _ := f.store.EventsByRoom(ctx, room.ID)
	if len(events) != 0 {
		t.Errorf("events in finished room = %d, want 0", len(events))
	}
	if got := len(f.bc.byType(MsgNewEvent)); got != 0 {
		t.Errorf("broadcasts = %d, want 0", got)
	}
}

func TestCreateStormWithinBox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, kite := f.playingRoom(t, 100)
	if _, err := f.store.CreateKite(ctx, kitedrift.Kite{
		UserID: kite.UserID, RoomID: room.ID,
		Latitude: 0.002, Longitude: 0.004,
		Altitude: kitedrift.AltitudeMid, SkinID: "1",
	}); err != nil {
		t.Fatalf("creating kite: %v", err)
	}

	// Placement is random; sample enough spawns to trust the bounds.
	for i := 0; i < 25; i++ {
		storm, err := f.engine.createStorm(ctx, room.ID)
		if err != nil {
			t.Fatalf("spawn %d: %v", i, err)
		}
		if storm == nil {
			t.Fatalf("spawn %d returned no storm", i)
		}
		if storm.Latitude < -stormMargin || storm.Latitude > 0.002+stormMargin {
			t.Errorf("latitude %v outside the kite bounding box", storm.Latitude)
		}
		if storm.Longitude < -stormMargin || storm.Longitude > 0.004+stormMargin {
			t.Errorf("longitude %v outside the kite bounding box", storm.Longitude)
		}
		if storm.Radius == nil {
			t.Fatal("storm has no radius")
		}
		if *storm.Radius < stormMinR || *storm.Radius > stormMinR+stormRSpan {
			t.Errorf("radius = %v, want within [%v, %v]", *storm.Radius, stormMinR, stormMinR+stormRSpan)
		}
		if storm.ExpiresAt == nil {
			t.Fatal("storm has no expiry")
		}
	}
}

func TestCreateStormNoActiveKites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, _ := f.store.CreateUser(ctx, "host", "")
	room, _ := f.store.CreateRoom(ctx, "empty", user.ID, 4, 500)

	storm, err := f.engine.createStorm(ctx, room.ID)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if storm != nil {
		t.Errorf("storm = %+v, want none without kites", storm)
	}
}

func TestStormCycleStopsAfterFinish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, _ := f.playingRoom(t, 100)
	if _, err := f.store.UpdateRoomStatus(ctx, room.ID, kitedrift.RoomFinished); err != nil {
		t.Fatalf("finishing: %v", err)
	}

	f.engine.stormCycle(room.ID)

	events, _ := f.store.EventsByRoom(ctx, room.ID)
	if len(events) != 0 {
		t.Errorf("events = %d, want 0 after the game ended", len(events))
	}
	if got := len(f.bc.byType(MsgNewEvent)); got != 0 {
		t.Errorf("broadcasts = %d, want 0", got)
	}
}

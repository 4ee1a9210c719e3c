package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewMemory()

	for i := 0; i < 2; i++ {
		if err := Seed(ctx, logger, s); err != nil {
			t.Fatalf("seed pass %d: %v", i, err)
		}
	}

	skins, err := s.ListSkins(ctx)
	if err != nil {
		t.Fatalf("list skins: %v", err)
	}
	if len(skins) != len(defaultSkins) {
		t.Errorf("skins = %d, want %d", len(skins), len(defaultSkins))
	}
	defaults := 0
	for _, sk := range skins {
		if sk.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Errorf("default skins = %d, want exactly 1", defaults)
	}

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 1 {
		t.Errorf("rooms = %d, want 1", len(rooms))
	}
}

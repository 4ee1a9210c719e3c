package store

import (
	"context"
	"log/slog"
)

var defaultSkins = []struct {
	name      string
	imageURL  string
	isDefault bool
}{
	{"Diamond Kite", "/skins/diamond.jpg", true},
	{"Dragon Kite", "/skins/dragon.jpg", false},
	{"Box Kite", "/skins/box.jpg", false},
	{"Stunt Kite", "/skins/stunt.jpg", false},
	{"Delta Kite", "/skins/delta.jpg", false},
	{"Parafoil Kite", "/skins/parafoil.jpg", false},
}

// Seed creates the default kite skins and a demo room if the store is empty.
// Idempotent: does nothing if any skins already exist.
func Seed(ctx context.Context, logger *slog.Logger, s Store) error {
	existing, err := s.ListSkins(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, sk := range defaultSkins {
		if _, err := s.CreateSkin(ctx, sk.name, sk.imageURL, sk.isDefault); err != nil {
			return err
		}
	}

	system, err := s.CreateUser(ctx, "system", "")
	if err != nil {
		return err
	}
	if _, err := s.CreateRoom(ctx, "Open Skies", system.ID, 4, 500); err != nil {
		return err
	}

	logger.Info("seeded default skins and demo room")
	return nil
}

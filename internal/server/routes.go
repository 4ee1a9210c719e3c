package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/skyloft/kitedrift/internal/game"
	"github.com/skyloft/kitedrift/internal/store"
	"github.com/skyloft/kitedrift/internal/wind"
)

func addRoutes(r chi.Router, logger *slog.Logger, eng *game.Engine, gw *Gateway, s store.Store, windSvc *wind.Service, db *sql.DB, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Kitedrift API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// Gameplay runs over the websocket.
	r.Get("/ws", handleGameSocket(logger, eng, gw))

	// Thin REST layer: lobby and lookups, no game-state logic.
	r.Route("/api", func(r chi.Router) {
		r.Get("/rooms", handleListRooms(s))
		r.Post("/rooms", handleCreateRoom(s))
		r.Get("/rooms/{id}", handleGetRoom(eng))
		r.Get("/kite-skins", handleListSkins(s))
		r.Get("/wind", handleWind(windSvc))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}

package server

import (
	"net/http"

	"github.com/skyloft/kitedrift/internal/store"
)

func handleListSkins(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skins, err := s.ListSkins(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, skins)
	}
}

package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/skyloft/kitedrift/internal/wind"
)

// handleWind is the ad-hoc wind lookup; it shares the game's cache, so
// repeated lookups in the same grid cell cost one provider call.
func handleWind(svc *wind.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if latErr != nil || lonErr != nil {
			writeError(w, http.StatusBadRequest, "invalid latitude or longitude")
			return
		}

		sample, err := svc.Sample(r.Context(), lat, lon)
		if errors.Is(err, wind.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "wind data unavailable")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sample)
	}
}

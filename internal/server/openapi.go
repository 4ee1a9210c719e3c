package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/skyloft/kitedrift/internal/kitedrift"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Kitedrift API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("REST surface of the kitedrift game server. Gameplay itself runs over the /ws websocket.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws")
	getWS.SetSummary("Game websocket")
	getWS.SetDescription("Upgrades to the duplex game connection carrying joinRoom/leaveRoom/placeKite/updateKite/gameStart commands and room broadcasts.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/rooms
	listRooms, _ := r.NewOperationContext(http.MethodGet, "/api/rooms")
	listRooms.SetSummary("List rooms")
	listRooms.SetDescription("Returns all rooms with their current player counts.")
	listRooms.AddRespStructure([]RoomSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listRooms)

	// POST /api/rooms
	createRoom, _ := r.NewOperationContext(http.MethodPost, "/api/rooms")
	createRoom.SetSummary("Create room")
	createRoom.SetDescription("Creates a new waiting room.")
	createRoom.AddReqStructure(CreateRoomRequest{})
	createRoom.AddRespStructure(kitedrift.Room{}, openapi.WithHTTPStatus(http.StatusCreated))
	createRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createRoom)

	// GET /api/rooms/{id}
	getRoom, _ := r.NewOperationContext(http.MethodGet, "/api/rooms/{id}")
	getRoom.SetSummary("Get room")
	getRoom.SetDescription("Returns a room with its members and kites.")
	getRoom.AddReqStructure(struct {
		ID int64 `path:"id"`
	}{})
	getRoom.AddRespStructure(RoomDetailResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getRoom)

	// GET /api/kite-skins
	listSkins, _ := r.NewOperationContext(http.MethodGet, "/api/kite-skins")
	listSkins.SetSummary("List kite skins")
	listSkins.SetDescription("Returns all available kite skins.")
	listSkins.AddRespStructure([]kitedrift.KiteSkin{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listSkins)

	// GET /api/wind
	getWind, _ := r.NewOperationContext(http.MethodGet, "/api/wind")
	getWind.SetSummary("Wind lookup")
	getWind.SetDescription("Returns the cached or freshly fetched wind sample for a coordinate. Query params: lat, lon.")
	getWind.AddRespStructure(kitedrift.WindSample{}, openapi.WithHTTPStatus(http.StatusOK))
	getWind.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getWind.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getWind)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/skyloft/kitedrift/internal/game"
	"github.com/skyloft/kitedrift/internal/kitedrift"
	"github.com/skyloft/kitedrift/internal/store"
)

// wireCommand is the inbound client command envelope. Type selects which
// fields matter, matching the outbound Message shape.
type wireCommand struct {
	Type     string    `json:"type"`
	RoomID   int64     `json:"roomId,omitempty"`
	UserID   int64     `json:"userId,omitempty"`
	Username string    `json:"username,omitempty"`
	Kite     *wireKite `json:"kite,omitempty"`
}

type wireKite struct {
	ID        int64   `json:"id"`
	RoomID    int64   `json:"roomId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  string  `json:"altitude"`
	SkinID    string  `json:"skinId"`
}

func handleGameSocket(logger *slog.Logger, eng *game.Engine, gw *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()

		var (
			userID int64
			outbox chan []byte
		)
		defer func() {
			if outbox != nil {
				gw.Disconnect(userID, outbox)
			}
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}

			var cmd wireCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				sendError(ctx, conn, "invalid message")
				continue
			}

			switch cmd.Type {
			case "joinRoom":
				user, state, err := eng.JoinRoom(ctx, cmd.RoomID, cmd.Username)
				if err != nil {
					reportError(ctx, logger, conn, err)
					continue
				}
				if outbox != nil && user.ID != userID {
					gw.Disconnect(userID, outbox)
					outbox = nil
				}
				if outbox == nil {
					userID = user.ID
					outbox = gw.Connect(userID)
					go writePump(ctx, conn, outbox)
				}
				gw.Associate(userID, cmd.RoomID)
				msg := game.Message{
					Type:    game.MsgRoomState,
					Room:    &state.Room,
					Players: state.Players,
					Kites:   state.Kites,
				}
				// Fan out only after the connection is associated so the
				// joiner sees the membership change it caused.
				gw.ToRoom(cmd.RoomID, msg)
				sendMessage(ctx, conn, msg)

			case "leaveRoom":
				uid := cmd.UserID
				if uid == 0 {
					uid = userID
				}
				if err := eng.LeaveRoom(ctx, cmd.RoomID, uid); err != nil {
					reportError(ctx, logger, conn, err)
					continue
				}
				if uid == userID {
					gw.Dissociate(userID)
				}

			case "placeKite":
				if userID == 0 || cmd.Kite == nil {
					sendError(ctx, conn, "join a room before placing a kite")
					continue
				}
				_, err := eng.PlaceKite(ctx, kitedrift.Kite{
					UserID:    userID,
					RoomID:    cmd.Kite.RoomID,
					Latitude:  cmd.Kite.Latitude,
					Longitude: cmd.Kite.Longitude,
					Altitude:  kitedrift.Altitude(cmd.Kite.Altitude),
					SkinID:    cmd.Kite.SkinID,
				})
				if err != nil {
					reportError(ctx, logger, conn, err)
				}

			case "updateKite":
				if userID == 0 || cmd.Kite == nil {
					sendError(ctx, conn, "join a room before updating a kite")
					continue
				}
				_, err := eng.SetAltitude(ctx, userID, cmd.Kite.ID, kitedrift.Altitude(cmd.Kite.Altitude))
				if err != nil {
					reportError(ctx, logger, conn, err)
				}

			case "gameStart":
				if err := eng.Start(ctx, cmd.RoomID); err != nil {
					reportError(ctx, logger, conn, err)
				}

			default:
				sendError(ctx, conn, "unknown command "+cmd.Type)
			}
		}
	}
}

// writePump drains the user's gateway queue onto the socket.
func writePump(ctx context.Context, conn *websocket.Conn, outbox chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-outbox:
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}

// reportError maps command failures onto the originating connection only;
// unexpected errors are logged and reported generically.
func reportError(ctx context.Context, logger *slog.Logger, conn *websocket.Conn, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		sendError(ctx, conn, "not found")
	case errors.Is(err, game.ErrValidation),
		errors.Is(err, game.ErrNotOwner),
		errors.Is(err, game.ErrRoomState):
		sendError(ctx, conn, err.Error())
	default:
		logger.Error("command failed", "error", err)
		sendError(ctx, conn, "internal error")
	}
}

func sendError(ctx context.Context, conn *websocket.Conn, msg string) {
	sendMessage(ctx, conn, game.Message{Type: game.MsgError, Message: msg})
}

func sendMessage(ctx context.Context, conn *websocket.Conn, msg game.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = conn.Write(ctx, websocket.MessageText, data)
}

package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/skyloft/kitedrift/internal/game"
	"github.com/skyloft/kitedrift/internal/kitedrift"
	"github.com/skyloft/kitedrift/internal/store"
	"github.com/skyloft/kitedrift/internal/wind"
)

func gameServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := store.NewMemory()
	if err := store.Seed(context.Background(), logger, s); err != nil {
		t.Fatalf("seed: %v", err)
	}
	windSvc := wind.NewService(wind.NewCache(), &calmWind{}, logger)
	gw := NewGateway()
	eng := game.NewEngine(s, windSvc, gw, logger, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleGameSocket(logger, eng, gw))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, s
}

func dialGame(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + srv.URL[len("http"):] + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func sendCommand(t *testing.T, ctx context.Context, conn *websocket.Conn, cmd wireCommand) {
	t.Helper()
	data, _ := json.Marshal(cmd)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write %s: %v", cmd.Type, err)
	}
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) game.Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg game.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decoding %s: %v", data, err)
	}
	return msg
}

func TestGameSocketJoinFlow(t *testing.T) {
	srv, s := gameServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rooms, _ := s.ListRooms(ctx)
	roomID := rooms[0].ID

	conn := dialGame(t, ctx, srv)

	sendCommand(t, ctx, conn, wireCommand{Type: "joinRoom", RoomID: roomID, Username: "maria"})

	// The join reply and the membership broadcast both carry room state; the
	// ordering between direct reply and broadcast is not fixed.
	for i := 0; i < 2; i++ {
		msg := readMessage(t, ctx, conn)
		if msg.Type != game.MsgRoomState {
			t.Fatalf("message %d type = %q, want %q", i, msg.Type, game.MsgRoomState)
		}
		if msg.Room == nil || msg.Room.ID != roomID {
			t.Fatalf("room state for %+v, want room %d", msg.Room, roomID)
		}
		if len(msg.Players) != 1 {
			t.Errorf("players = %d, want 1", len(msg.Players))
		}
	}

	user, err := s.GetUserByUsername(ctx, "maria")
	if err != nil {
		t.Fatalf("user not provisioned on join: %v", err)
	}

	// Place a kite and watch the broadcast come back.
	sendCommand(t, ctx, conn, wireCommand{Type: "placeKite", Kite: &wireKite{
		RoomID: roomID, Latitude: 12.34, Longitude: 56.78, Altitude: "mid", SkinID: "1",
	}})

	msg := readMessage(t, ctx, conn)
	if msg.Type != game.MsgUpdateKite {
		t.Fatalf("type = %q, want %q", msg.Type, game.MsgUpdateKite)
	}
	if msg.Kite == nil || msg.Kite.UserID != user.ID || !msg.Kite.IsActive {
		t.Fatalf("kite broadcast = %+v", msg.Kite)
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestGameSocketStart(t *testing.T) {
	srv, s := gameServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rooms, _ := s.ListRooms(ctx)
	roomID := rooms[0].ID

	conn := dialGame(t, ctx, srv)

	sendCommand(t, ctx, conn, wireCommand{Type: "joinRoom", RoomID: roomID, Username: "maria"})
	readMessage(t, ctx, conn)
	readMessage(t, ctx, conn)

	sendCommand(t, ctx, conn, wireCommand{Type: "placeKite", Kite: &wireKite{
		RoomID: roomID, Altitude: "low", SkinID: "1",
	}})
	readMessage(t, ctx, conn)

	sendCommand(t, ctx, conn, wireCommand{Type: "gameStart", RoomID: roomID})

	msg := readMessage(t, ctx, conn)
	if msg.Type != game.MsgGameStart || msg.RoomID != roomID {
		t.Fatalf("got %+v, want gameStart for room %d", msg, roomID)
	}

	// Ten seed coins follow the start signal.
	coins := 0
	for i := 0; i < 10; i++ {
		msg = readMessage(t, ctx, conn)
		if msg.Type == game.MsgNewEvent && msg.Event != nil && msg.Event.Type == kitedrift.EventCoin {
			coins++
		}
	}
	if coins != 10 {
		t.Errorf("seed coin events = %d, want 10", coins)
	}

	room, _ := s.GetRoom(ctx, roomID)
	if room.Status != kitedrift.RoomPlaying {
		t.Errorf("status = %s, want playing", room.Status)
	}
}

func TestGameSocketRejectsUnknownCommand(t *testing.T) {
	srv, _ := gameServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialGame(t, ctx, srv)

	sendCommand(t, ctx, conn, wireCommand{Type: "fly"})

	msg := readMessage(t, ctx, conn)
	if msg.Type != game.MsgError {
		t.Fatalf("type = %q, want error", msg.Type)
	}
}

func TestGameSocketRequiresJoinBeforePlacing(t *testing.T) {
	srv, _ := gameServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialGame(t, ctx, srv)

	sendCommand(t, ctx, conn, wireCommand{Type: "placeKite", Kite: &wireKite{RoomID: 1, Altitude: "mid"}})

	msg := readMessage(t, ctx, conn)
	if msg.Type != game.MsgError {
		t.Fatalf("type = %q, want error", msg.Type)
	}
}

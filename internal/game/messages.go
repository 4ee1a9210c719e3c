package game

import "github.com/skyloft/kitedrift/internal/kitedrift"

// Message is the wire shape shared by every room broadcast. The Type tag
// selects which fields are populated, mirroring a tagged union. Both coin and
// storm spawns reuse the "newStorm" tag; clients disambiguate by the embedded
// event's type field.
type Message struct {
	Type    string                      `json:"type"`
	Room    *kitedrift.Room             `json:"room,omitempty"`
	Players []kitedrift.RoomMembership  `json:"players,omitempty"`
	Kites   []kitedrift.Kite            `json:"kites,omitempty"`
	Kite    *kitedrift.Kite             `json:"kite,omitempty"`
	KiteID  int64                       `json:"kiteId,omitempty"`
	EventID int64                       `json:"eventId,omitempty"`
	Event   *kitedrift.GameEvent        `json:"event,omitempty"`
	RoomID  int64                       `json:"roomId,omitempty"`
	Winner  int64                       `json:"winner,omitempty"`
	Message string                      `json:"message,omitempty"`
}

const (
	MsgRoomState   = "roomState"
	MsgUpdateKite  = "updateKite"
	MsgCollectCoin = "collectCoin"
	MsgNewEvent    = "newStorm"
	MsgGameStart   = "gameStart"
	MsgGameEnd     = "gameEnd"
	MsgError       = "error"
)

func roomStateMsg(room kitedrift.Room, players []kitedrift.RoomMembership, kites []kitedrift.Kite) Message {
	return Message{Type: MsgRoomState, Room: &room, Players: players, Kites: kites}
}

func updateKiteMsg(k kitedrift.Kite) Message {
	return Message{Type: MsgUpdateKite, Kite: &k}
}

// refetchKitesMsg signals clients to refetch every kite in the room: a kite
// id of 0 is the refetch-all marker.
func refetchKitesMsg(roomID int64) Message {
	return Message{Type: MsgUpdateKite, Kite: &kitedrift.Kite{ID: 0, RoomID: roomID}}
}

func collectCoinMsg(kiteID, eventID int64) Message {
	return Message{Type: MsgCollectCoin, KiteID: kiteID, EventID: eventID}
}

func newEventMsg(e kitedrift.GameEvent) Message {
	return Message{Type: MsgNewEvent, Event: &e}
}

func gameStartMsg(roomID int64) Message {
	return Message{Type: MsgGameStart, RoomID: roomID}
}

func gameEndMsg(roomID, winner int64) Message {
	return Message{Type: MsgGameEnd, RoomID: roomID, Winner: winner}
}

// Broadcaster fans a message out to every connection associated with a room.
// Delivery failures are the implementation's problem; the engine never blocks
// on a slow client.
type Broadcaster interface {
	ToRoom(roomID int64, msg Message)
}

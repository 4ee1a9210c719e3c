package server

import (
	"encoding/json"
	"testing"

	"github.com/skyloft/kitedrift/internal/game"
)

func drain(ch chan []byte) []game.Message {
	var msgs []game.Message
	for {
		select {
		case data := <-ch:
			var m game.Message
			json.Unmarshal(data, &m)
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func TestGatewayRoomFanout(t *testing.T) {
	gw := NewGateway()

	alice := gw.Connect(1)
	bob := gw.Connect(2)
	carol := gw.Connect(3)

	gw.Associate(1, 10)
	gw.Associate(2, 10)
	gw.Associate(3, 20)

	gw.ToRoom(10, game.Message{Type: game.MsgGameStart, RoomID: 10})

	for name, ch := range map[string]chan []byte{"alice": alice, "bob": bob} {
		msgs := drain(ch)
		if len(msgs) != 1 || msgs[0].Type != game.MsgGameStart {
			t.Errorf("%s got %+v, want one gameStart", name, msgs)
		}
	}
	if msgs := drain(carol); len(msgs) != 0 {
		t.Errorf("carol is in another room but got %+v", msgs)
	}
}

func TestGatewayDissociate(t *testing.T) {
	gw := NewGateway()

	ch := gw.Connect(1)
	gw.Associate(1, 10)
	gw.Dissociate(1)

	gw.ToRoom(10, game.Message{Type: game.MsgGameStart, RoomID: 10})

	if msgs := drain(ch); len(msgs) != 0 {
		t.Errorf("dissociated user got %+v", msgs)
	}
}

func TestGatewayToUser(t *testing.T) {
	gw := NewGateway()

	ch := gw.Connect(1)
	gw.ToUser(1, game.Message{Type: game.MsgError, Message: "nope"})
	gw.ToUser(2, game.Message{Type: game.MsgError, Message: "dropped"})

	msgs := drain(ch)
	if len(msgs) != 1 || msgs[0].Message != "nope" {
		t.Errorf("got %+v, want the one direct message", msgs)
	}
}

func TestGatewayDropsWhenSlow(t *testing.T) {
	gw := NewGateway()

	ch := gw.Connect(1)
	gw.Associate(1, 10)

	// Nobody drains the channel; the overflow must be dropped, not block.
	for i := 0; i < cap(ch)+16; i++ {
		gw.ToRoom(10, game.Message{Type: game.MsgGameStart, RoomID: 10})
	}

	if got := len(drain(ch)); got != cap(ch) {
		t.Errorf("buffered = %d, want the channel capacity %d", got, cap(ch))
	}
}

func TestGatewayReconnectReplaces(t *testing.T) {
	gw := NewGateway()

	old := gw.Connect(1)
	fresh := gw.Connect(1)
	gw.Associate(1, 10)

	// The old socket's teardown must not tear down the new registration.
	gw.Disconnect(1, old)

	gw.ToRoom(10, game.Message{Type: game.MsgGameStart, RoomID: 10})
	if msgs := drain(fresh); len(msgs) != 1 {
		t.Errorf("fresh connection got %+v, want one message", msgs)
	}

	gw.Disconnect(1, fresh)
	gw.ToRoom(10, game.Message{Type: game.MsgGameStart, RoomID: 10})
	if msgs := drain(fresh); len(msgs) != 0 {
		t.Errorf("disconnected user got %+v", msgs)
	}
}

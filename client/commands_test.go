package main

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/wfunc/dhumbal/broadcast"
	"github.com/wfunc/dhumbal/network"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		room    string
		msgID   uint16
		payload string
		err     error
	}{
		{"create", "create Alice", "", network.MsgTypeCreateRoom, `{"name":"Alice"}`, nil},
		{"create with hand size", "create Alice 5", "", network.MsgTypeCreateRoom, `{"name":"Alice","handSize":5}`, nil},
		{"join upper-cases code", "join abcde Bob", "", network.MsgTypeJoinRoom, `{"roomCode":"ABCDE","name":"Bob"}`, nil},
		{"draw", "draw", "ABCDE", network.MsgTypeDrawOne, `{"roomCode":"ABCDE"}`, nil},
		{"drop", "drop c1 c2 j52", "ABCDE", network.MsgTypeDropMeld, `{"roomCode":"ABCDE","cardIds":["c1","c2","j52"]}`, nil},
		{"grab", "grab m1 c4 c9", "ABCDE", network.MsgTypeGrabFloor, `{"roomCode":"ABCDE","meldId":"m1","cardIdToGrab":"c4","cardIdToDrop":"c9"}`, nil},
		{"room command without room", "start", "", 0, "", errNoRoom},
		{"grab missing args", "grab m1", "ABCDE", 0, "", errUsage},
		{"unknown", "dance", "ABCDE", 0, "", errUnknown},
		{"quit", "quit", "", 0, "", errQuit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgID, data, err := parseCommand(tt.line, tt.room)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCommand failed: %v", err)
			}
			if msgID != tt.msgID {
				t.Errorf("Expected %s, got %s", network.MsgName(tt.msgID), network.MsgName(msgID))
			}
			if string(data) != tt.payload {
				t.Errorf("Expected payload %s, got %s", tt.payload, data)
			}
			if !json.Valid(data) {
				t.Errorf("Payload is not JSON")
			}
		})
	}
}

func TestParseCommand_BadHandSize(t *testing.T) {
	if _, _, err := parseCommand("create Alice many", ""); err == nil {
		t.Errorf("Expected an error for a non-numeric hand size")
	}
}

func TestRoomState_DropsStaleViews(t *testing.T) {
	room := &roomState{}
	if !room.fresh(broadcast.View{RoomCode: "ABCDE", Version: 5}) {
		t.Fatalf("Expected the first view to be shown")
	}
	if room.fresh(broadcast.View{RoomCode: "ABCDE", Version: 4}) {
		t.Errorf("Expected an older version to be dropped")
	}
	if room.fresh(broadcast.View{RoomCode: "ABCDE", Version: 5}) {
		t.Errorf("Expected a repeated version to be dropped")
	}
	if !room.fresh(broadcast.View{RoomCode: "ABCDE", Version: 6}) {
		t.Errorf("Expected a newer version to be shown")
	}
	if !room.fresh(broadcast.View{RoomCode: "FGHJK", Version: 1}) {
		t.Errorf("Expected a new room to start over")
	}
	if room.get() != "FGHJK" {
		t.Errorf("Expected room FGHJK, got %s", room.get())
	}
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wfunc/dhumbal/network"
)

var (
	errQuit     = errors.New("quit")
	errNoRoom   = errors.New("not in a room; create or join one first")
	errUsage    = errors.New("bad arguments, type 'help'")
	errUnknown  = errors.New("unknown command, type 'help'")
	errHelpOnly = errors.New("help")
)

const helpText = `commands:
  create <name> [handSize]        open a room
  join <code> <name>              join a room
  start                           deal the cards
  drop <cardId> <cardId>...       drop a meld
  grab <meldId> <grabId> <dropId> swap a hand card for a floor card
  draw                            draw one card and end the turn
  show                            show your hand and end the game
  leave                           leave the room
  quit`

// parseCommand turns one input line into a packet. room is the current room code.
func parseCommand(line, room string) (uint16, []byte, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, errUnknown
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	var msgID uint16
	var payload interface{}
	switch cmd {
	case "quit", "exit":
		return 0, nil, errQuit
	case "help", "?":
		return 0, nil, errHelpOnly
	case "create":
		if len(args) < 1 || len(args) > 2 {
			return 0, nil, errUsage
		}
		req := network.CreateRoomRequest{Name: args[0]}
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return 0, nil, fmt.Errorf("hand size %q is not a number", args[1])
			}
			req.HandSize = n
		}
		msgID, payload = network.MsgTypeCreateRoom, req
	case "join":
		if len(args) != 2 {
			return 0, nil, errUsage
		}
		msgID, payload = network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomCode: strings.ToUpper(args[0]), Name: args[1]}
	default:
		if room == "" {
			if _, ok := roomCommands[cmd]; ok {
				return 0, nil, errNoRoom
			}
			return 0, nil, errUnknown
		}
		var err error
		msgID, payload, err = roomCommand(cmd, args, room)
		if err != nil {
			return 0, nil, err
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	return msgID, data, nil
}

var roomCommands = map[string]uint16{
	"start": network.MsgTypeStartGame,
	"draw":  network.MsgTypeDrawOne,
	"show":  network.MsgTypeShow,
	"leave": network.MsgTypeLeaveRoom,
	"drop":  network.MsgTypeDropMeld,
	"grab":  network.MsgTypeGrabFloor,
}

func roomCommand(cmd string, args []string, room string) (uint16, interface{}, error) {
	msgID, ok := roomCommands[cmd]
	if !ok {
		return 0, nil, errUnknown
	}
	switch cmd {
	case "drop":
		if len(args) == 0 {
			return 0, nil, errUsage
		}
		return msgID, network.DropMeldRequest{RoomCode: room, CardIDs: args}, nil
	case "grab":
		if len(args) != 3 {
			return 0, nil, errUsage
		}
		return msgID, network.GrabFloorRequest{RoomCode: room, MeldID: args[0], CardIDToGrab: args[1], CardIDToDrop: args[2]}, nil
	default:
		if len(args) != 0 {
			return 0, nil, errUsage
		}
		return msgID, network.RoomRequest{RoomCode: room}, nil
	}
}

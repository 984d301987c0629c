package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/wfunc/dhumbal/game"
	"github.com/wfunc/dhumbal/logger"
	"github.com/wfunc/dhumbal/network"
	"github.com/wfunc/dhumbal/room"
	"github.com/wfunc/dhumbal/session"
)

const defaultPlayerName = "Player"

var errBadRequest = errors.New("bad request")

type handlerFunc func(sess *session.Session, data []byte) error

func (s *GameServer) routes() map[uint16]handlerFunc {
	return map[uint16]handlerFunc{
		network.MsgTypeCreateRoom: s.handleCreateRoom,
		network.MsgTypeJoinRoom:   s.handleJoinRoom,
		network.MsgTypeLeaveRoom:  s.handleLeaveRoom,
		network.MsgTypeStartGame:  s.handleStartGame,
		network.MsgTypeDropMeld:   s.handleDropMeld,
		network.MsgTypeGrabFloor:  s.handleGrabFloor,
		network.MsgTypeDrawOne:    s.handleDrawOne,
		network.MsgTypeShow:       s.handleShow,
	}
}

func decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errBadRequest
	}
	return nil
}

func playerName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return defaultPlayerName
	}
	return name
}

// apply runs fn on the room under its lock. The commit hook broadcasts the
// new state; then, if set, runs right after it under the same lock.
func (s *GameServer) apply(code string, fn func(*game.Room) (*game.Room, error), then func(*game.Room)) (*room.Room, *game.Room, error) {
	r, err := s.roomManager.GetRoom(code)
	if err != nil {
		return nil, nil, err
	}
	snap, err := r.ApplyThen(fn, then)
	if err != nil {
		return r, nil, err
	}
	return r, snap, nil
}

func (s *GameServer) handleCreateRoom(sess *session.Session, data []byte) error {
	var req network.CreateRoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	handSize := req.HandSize
	if handSize == 0 {
		handSize = s.cfg.Game.HandSize
	}

	r, err := s.roomManager.CreateRoom(handSize, s.cfg.Game.MaxPlayers)
	if err != nil {
		return err
	}
	name := playerName(req.Name)
	// room_created goes out before the first state
	if err := sess.SendJSON(network.MsgTypeRoomCreated, network.RoomCreated{RoomCode: r.Code}); err != nil {
		s.roomManager.RemoveRoom(r.Code)
		return err
	}
	if _, err := r.Apply(func(g *game.Room) (*game.Room, error) { return g.AddPlayer(sess.GetID(), name) }); err != nil {
		s.roomManager.RemoveRoom(r.Code)
		return err
	}
	sess.SetName(name)
	sess.SetRoomCode(r.Code)

	logger.Log.Infof("Session %s created room %s", sess.GetID(), r.Code)
	return nil
}

func (s *GameServer) handleJoinRoom(sess *session.Session, data []byte) error {
	var req network.JoinRoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	name := playerName(req.Name)

	r, _, err := s.apply(req.RoomCode, func(g *game.Room) (*game.Room, error) {
		return g.AddPlayer(sess.GetID(), name)
	}, nil)
	if err != nil {
		return err
	}
	sess.SetName(name)
	sess.SetRoomCode(r.Code)
	logger.Log.Infof("Session %s joined room %s", sess.GetID(), r.Code)
	return nil
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, data []byte) error {
	var req network.RoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	snap, alive, err := s.roomManager.Leave(req.RoomCode, sess.GetID())
	if err != nil {
		return err
	}
	if strings.EqualFold(sess.GetRoomCode(), snap.Code) {
		sess.SetRoomCode("")
	}
	if !alive {
		logger.Log.Infof("Room %s closed, last player left", snap.Code)
	}
	return nil
}

func (s *GameServer) handleStartGame(sess *session.Session, data []byte) error {
	var req network.RoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if _, _, err := s.apply(req.RoomCode, (*game.Room).StartGame, nil); err != nil {
		return err
	}
	s.monitor.IncGamesStarted()
	return nil
}

func (s *GameServer) handleDropMeld(sess *session.Session, data []byte) error {
	var req network.DropMeldRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	_, _, err := s.apply(req.RoomCode, func(g *game.Room) (*game.Room, error) {
		next, _, err := g.DropMeld(sess.GetID(), req.CardIDs)
		return next, err
	}, nil)
	return err
}

func (s *GameServer) handleGrabFloor(sess *session.Session, data []byte) error {
	var req network.GrabFloorRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	_, _, err := s.apply(req.RoomCode, func(g *game.Room) (*game.Room, error) {
		return g.GrabFromFloor(sess.GetID(), req.MeldID, req.CardIDToGrab, req.CardIDToDrop)
	}, nil)
	return err
}

func (s *GameServer) handleDrawOne(sess *session.Session, data []byte) error {
	var req network.RoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	_, _, err := s.apply(req.RoomCode, func(g *game.Room) (*game.Room, error) {
		return g.DrawAndEndTurn(sess.GetID())
	}, nil)
	return err
}

// handleShow ends the game, tells everyone the result and stores it. The
// ended room stays readable until it is reaped.
func (s *GameServer) handleShow(sess *session.Session, data []byte) error {
	var req network.RoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	var outcome game.ShowOutcome
	r, snap, err := s.apply(req.RoomCode, func(g *game.Room) (*game.Room, error) {
		next, out, err := g.ShowHand(sess.GetID())
		outcome = out
		return next, err
	}, func(ended *game.Room) {
		if err := s.broadcaster.BroadcastJSON(ended, network.MsgTypeShowResult, outcome); err != nil {
			logger.Log.Warnf("broadcast show result for %s: %v", ended.Code, err)
		}
	})
	if err != nil {
		return err
	}

	s.monitor.IncGamesEnded(string(outcome.Result))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.records.RecordShow(ctx, snap, outcome); err != nil {
		logger.Log.Errorf("record game %s: %v", r.Code, err)
	}

	if err := s.roomManager.ScheduleRemoval(r.Code, s.cfg.Game.EndedRoomTTL); err != nil {
		logger.Log.Warnf("schedule removal of %s: %v", r.Code, err)
	}
	return nil
}

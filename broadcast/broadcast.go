package broadcast

import (
	"encoding/json"

	"github.com/wfunc/dhumbal/game"
	"github.com/wfunc/dhumbal/logger"
	"github.com/wfunc/dhumbal/network"
	"github.com/wfunc/dhumbal/session"
)

// 广播接口. Every method works from a snapshot and never touches room locks,
// so it is safe to call from inside a room commit.
type Broadcaster interface {
	BroadcastSnapshot(snap *game.Room)
	BroadcastToRoom(snap *game.Room, msgID uint16, data []byte)
	BroadcastJSON(snap *game.Room, msgID uint16, v interface{}) error
}

var _ Broadcaster = (*RoomBroadcaster)(nil)

// 基于房间的广播器
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
	}
}

// BroadcastSnapshot sends each player in snap their own projection of it.
func (b *RoomBroadcaster) BroadcastSnapshot(snap *game.Room) {
	for _, p := range snap.Players {
		s, ok := b.sessionManager.Get(p.Ref)
		if !ok {
			continue
		}
		if err := s.SendJSON(network.MsgTypeState, Project(snap, p.Ref)); err != nil {
			// 发送失败, 断线处理交给读循环
			logger.Log.Warnf("send state to %s in room %s failed: %v", s.ID, snap.Code, err)
		}
	}
}

// BroadcastToRoom sends the same payload to every member of snap.
func (b *RoomBroadcaster) BroadcastToRoom(snap *game.Room, msgID uint16, data []byte) {
	for _, p := range snap.Players {
		s, ok := b.sessionManager.Get(p.Ref)
		if !ok {
			continue
		}
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Warnf("send %s to %s failed: %v", network.MsgName(msgID), s.ID, err)
		}
	}
}

// BroadcastJSON encodes v once and sends it to every member.
func (b *RoomBroadcaster) BroadcastJSON(snap *game.Room, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.BroadcastToRoom(snap, msgID, data)
	return nil
}

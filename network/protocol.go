package network

// 客户端 -> 服务器
const (
	MsgTypeHeartbeat  = 1
	MsgTypeCreateRoom = 101
	MsgTypeJoinRoom   = 102
	MsgTypeLeaveRoom  = 103
	MsgTypeStartGame  = 104
	MsgTypeDropMeld   = 201
	MsgTypeGrabFloor  = 202
	MsgTypeDrawOne    = 203
	MsgTypeShow       = 204
)

// 服务器 -> 客户端
const (
	MsgTypeRoomCreated = 301
	MsgTypeState       = 302
	MsgTypeShowResult  = 303
	MsgTypeError       = 400
)

// MsgName returns the event name of a message id, for logs.
func MsgName(id uint16) string {
	switch id {
	case MsgTypeHeartbeat:
		return "heartbeat"
	case MsgTypeCreateRoom:
		return "create_room"
	case MsgTypeJoinRoom:
		return "join_room"
	case MsgTypeLeaveRoom:
		return "leave_room"
	case MsgTypeStartGame:
		return "start_game"
	case MsgTypeDropMeld:
		return "drop_meld"
	case MsgTypeGrabFloor:
		return "grab_floor"
	case MsgTypeDrawOne:
		return "draw_one"
	case MsgTypeShow:
		return "show"
	case MsgTypeRoomCreated:
		return "room_created"
	case MsgTypeState:
		return "state"
	case MsgTypeShowResult:
		return "show_result"
	case MsgTypeError:
		return "error"
	default:
		return "unknown"
	}
}

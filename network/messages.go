package network

// Request and reply payloads, JSON encoded inside a packet.

type CreateRoomRequest struct {
	Name     string `json:"name"`
	HandSize int    `json:"handSize,omitempty"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

// RoomRequest is used by leave_room, start_game, draw_one and show.
type RoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type DropMeldRequest struct {
	RoomCode string   `json:"roomCode"`
	CardIDs  []string `json:"cardIds"`
}

type GrabFloorRequest struct {
	RoomCode     string `json:"roomCode"`
	MeldID       string `json:"meldId"`
	CardIDToGrab string `json:"cardIdToGrab"`
	CardIDToDrop string `json:"cardIdToDrop"`
}

type RoomCreated struct {
	RoomCode string `json:"roomCode"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

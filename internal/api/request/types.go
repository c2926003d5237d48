package request

// CreateRoomRequest is the request body for initializing a room
type CreateRoomRequest struct {
	RoomID     string `json:"roomId"`
	Difficulty string `json:"difficulty,omitempty"`
}

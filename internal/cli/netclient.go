package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mathrush/mathrush-go/internal/gateway"
	"github.com/mathrush/mathrush-go/internal/model"
)

// NetClient is a websocket connection to the realtime gateway. Incoming
// envelopes are decoded on the read pump and delivered on Events; writes
// go through a buffered send channel so callers never block on the socket.
type NetClient struct {
	conn   *websocket.Conn
	send   chan []byte
	events chan gateway.Envelope

	closeOnce sync.Once
	done      chan struct{}
}

// DialGateway connects to the server's websocket endpoint. The server URL
// is the same base URL the HTTP client uses.
func DialGateway(serverURL string) (*NetClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	nc := &NetClient{
		conn:   conn,
		send:   make(chan []byte, 64),
		events: make(chan gateway.Envelope, 64),
		done:   make(chan struct{}),
	}

	go nc.readPump()
	go nc.writePump()

	return nc, nil
}

// Events returns the stream of server envelopes. The channel closes when
// the connection drops or Close is called.
func (nc *NetClient) Events() <-chan gateway.Envelope {
	return nc.events
}

// Send marshals and queues an event. Sends while the buffer is full are
// dropped rather than blocking the caller.
func (nc *NetClient) Send(event model.EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(gateway.Envelope{Event: event, Payload: data})
	if err != nil {
		return err
	}

	select {
	case nc.send <- msg:
		return nil
	case <-nc.done:
		return fmt.Errorf("connection closed")
	default:
		return fmt.Errorf("send buffer full")
	}
}

// JoinRoom subscribes the connection to a room's broadcasts
func (nc *NetClient) JoinRoom(roomID string) error {
	return nc.Send(model.EventJoinRoom, model.JoinRoomPayload{RoomID: roomID})
}

// JoinGame adds a player to the room's turn rotation
func (nc *NetClient) JoinGame(roomID, playerID, username string) error {
	return nc.Send(model.EventJoinGame, model.JoinGamePayload{
		RoomID:   roomID,
		PlayerID: playerID,
		Username: username,
	})
}

// SubmitMove submits an answer for the current equation
func (nc *NetClient) SubmitMove(roomID, playerID string, answer int) error {
	return nc.Send(model.EventPlayerMove, model.PlayerMovePayload{
		RoomID:         roomID,
		PlayerID:       playerID,
		SelectedNumber: answer,
	})
}

// StartGame asks the server to move the room to active
func (nc *NetClient) StartGame(roomID string) error {
	return nc.Send(model.EventStartGame, model.StartGamePayload{RoomID: roomID})
}

// LeaveRoom removes the player from the room's rotation
func (nc *NetClient) LeaveRoom(roomID, playerID string) error {
	return nc.Send(model.EventLeaveRoom, model.LeaveRoomPayload{
		RoomID:   roomID,
		PlayerID: playerID,
	})
}

// Close tears down the connection and drains both pumps
func (nc *NetClient) Close() {
	nc.closeOnce.Do(func() {
		close(nc.done)
		_ = nc.conn.Close()
	})
}

func (nc *NetClient) readPump() {
	defer func() {
		nc.Close()
		close(nc.events)
	}()

	for {
		_, message, err := nc.conn.ReadMessage()
		if err != nil {
			return
		}

		var env gateway.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			continue
		}

		select {
		case nc.events <- env:
		case <-nc.done:
			return
		default:
			// Drop if buffer full
		}
	}
}

func (nc *NetClient) writePump() {
	for {
		select {
		case message := <-nc.send:
			if err := nc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				nc.Close()
				return
			}
		case <-nc.done:
			_ = nc.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

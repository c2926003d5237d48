package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mathrush/mathrush-go/internal/dependencies/mocks"
	"github.com/mathrush/mathrush-go/internal/model"
	"github.com/mathrush/mathrush-go/internal/registry"
	"github.com/mathrush/mathrush-go/internal/services/equation"
	"github.com/mathrush/mathrush-go/internal/services/turn"
	"github.com/mathrush/mathrush-go/internal/testutil"
)

type GatewaySuite struct {
	suite.Suite
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	coordinator *turn.Coordinator
	hubs        *HubManager
	gateway     *Gateway
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	reg := registry.New(s.clock, 5*time.Minute, testutil.NopLogger())
	s.coordinator = turn.NewCoordinator(reg, equation.NewGenerator(s.random), s.clock, testutil.NopLogger())
	s.hubs = NewHubManager(testutil.NopLogger())
	// A deadline long enough to never fire during a test
	s.gateway = New(s.coordinator, s.hubs, time.Hour, testutil.NopLogger())
	s.coordinator.AddSink(s.gateway)
}

func (s *GatewaySuite) TearDownTest() {
	s.gateway.Shutdown()
}

// createRoom creates room R1 whose first equation is 3+?=10
func (s *GatewaySuite) createRoom() {
	s.random.QueueIntn(1, 2, 6)
	_, err := s.coordinator.CreateRoom("R1", "easy")
	s.Require().NoError(err)
}

func (s *GatewaySuite) newConn() *Client {
	return &Client{
		gateway:     s.gateway,
		send:        make(chan []byte, sendBufferSize),
		logger:      testutil.NopLogger(),
		connectedAt: time.Now(),
	}
}

func (s *GatewaySuite) dispatch(c *Client, event model.EventType, payload any) {
	data, err := encodeEvent(event, payload)
	s.Require().NoError(err)
	s.gateway.handleMessage(c, data)
}

func (s *GatewaySuite) nextEvent(c *Client) Envelope {
	select {
	case data := <-c.send:
		var env Envelope
		s.Require().NoError(json.Unmarshal(data, &env))
		return env
	case <-time.After(time.Second):
		s.Require().FailNow("timed out waiting for event")
		return Envelope{}
	}
}

// nextEvents reads n events and indexes them by type; order across the
// unicast and broadcast paths is not fixed
func (s *GatewaySuite) nextEvents(c *Client, n int) map[model.EventType][]Envelope {
	byType := make(map[model.EventType][]Envelope)
	for i := 0; i < n; i++ {
		env := s.nextEvent(c)
		byType[env.Event] = append(byType[env.Event], env)
	}
	return byType
}

func (s *GatewaySuite) assertNoEvent(c *Client) {
	select {
	case data := <-c.send:
		s.Failf("unexpected event", "%s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *GatewaySuite) decodeRoom(env Envelope) model.Room {
	s.Require().Equal(model.EventStateUpdated, env.Event)
	var room model.Room
	s.Require().NoError(json.Unmarshal(env.Payload, &room))
	return room
}

// join-room

func (s *GatewaySuite) TestJoinRoomSendsSnapshot() {
	s.createRoom()
	c := s.newConn()

	s.dispatch(c, model.EventJoinRoom, model.JoinRoomPayload{RoomID: "R1"})

	room := s.decodeRoom(s.nextEvent(c))
	s.Equal(model.RoomID("R1"), room.ID)
	s.Equal(int64(0), room.Version)
	s.Equal(1, s.hubs.GetHub("R1").ClientCount())
}

func (s *GatewaySuite) TestJoinRoomUnknownRoomSubscribesSilently() {
	c := s.newConn()

	s.dispatch(c, model.EventJoinRoom, model.JoinRoomPayload{RoomID: "nope"})

	s.assertNoEvent(c)
	s.Equal(1, s.hubs.GetHub("nope").ClientCount())
}

func (s *GatewaySuite) TestJoinRoomMissingIDRejected() {
	c := s.newConn()

	s.dispatch(c, model.EventJoinRoom, model.JoinRoomPayload{})

	s.Equal(model.EventMoveError, s.nextEvent(c).Event)
}

// join-game

func (s *GatewaySuite) TestJoinGameBroadcastsPlayerJoined() {
	s.createRoom()
	c := s.newConn()

	s.dispatch(c, model.EventJoinGame, model.JoinGamePayload{RoomID: "R1", PlayerID: "A", Username: "alice"})

	byType := s.nextEvents(c, 2)

	s.Require().Len(byType[model.EventPlayerJoined], 1)
	var joined model.PlayerJoinedPayload
	s.Require().NoError(json.Unmarshal(byType[model.EventPlayerJoined][0].Payload, &joined))
	s.Equal(model.PlayerID("A"), joined.Player.ID)
	s.Len(joined.Players, 1)

	s.Require().Len(byType[model.EventStateUpdated], 1)
	room := s.decodeRoom(byType[model.EventStateUpdated][0])
	s.Equal(int64(1), room.Version)
	s.Equal(model.RoomStatusActive, room.Status)

	s.Equal(model.PlayerID("A"), c.PlayerID())
}

func (s *GatewaySuite) TestJoinGameResolvesLegacyIDFields() {
	s.createRoom()
	c := s.newConn()

	s.dispatch(c, model.EventJoinGame, model.JoinGamePayload{RoomID: "R1", MongoID: "legacy", Username: "old"})

	s.Equal(model.PlayerID("legacy"), c.PlayerID())
}

func (s *GatewaySuite) TestJoinGameMissingPlayerIDRejected() {
	s.createRoom()
	c := s.newConn()

	s.dispatch(c, model.EventJoinGame, model.JoinGamePayload{RoomID: "R1", Username: "ghost"})

	s.Equal(model.EventMoveError, s.nextEvent(c).Event)
	s.Empty(c.PlayerID())
}

func (s *GatewaySuite) TestJoinGameUnknownRoomUnicastsError() {
	c := s.newConn()

	s.dispatch(c, model.EventJoinGame, model.JoinGamePayload{RoomID: "nope", PlayerID: "A"})

	env := s.nextEvent(c)
	s.Equal(model.EventMoveError, env.Event)
	var moveErr model.MoveErrorPayload
	s.Require().NoError(json.Unmarshal(env.Payload, &moveErr))
	s.Equal(model.ErrRoomNotFound.Error(), moveErr.Message)
}

// player-move

// joinBoth wires two connections into R1 as players A and B and drains
// their join traffic
func (s *GatewaySuite) joinBoth() (*Client, *Client) {
	a := s.newConn()
	b := s.newConn()
	s.dispatch(a, model.EventJoinGame, model.JoinGamePayload{RoomID: "R1", PlayerID: "A", Username: "alice"})
	s.nextEvents(a, 2)
	s.dispatch(b, model.EventJoinGame, model.JoinGamePayload{RoomID: "R1", PlayerID: "B", Username: "bob"})
	s.nextEvents(a, 2) // A sees B's join broadcast
	s.nextEvents(b, 2)
	return a, b
}

func (s *GatewaySuite) TestPlayerMoveBroadcastsNewState() {
	s.createRoom()
	a, b := s.joinBoth()

	s.dispatch(a, model.EventPlayerMove, model.PlayerMovePayload{RoomID: "R1", PlayerID: "A", SelectedNumber: 10})

	for _, c := range []*Client{a, b} {
		room := s.decodeRoom(s.nextEvent(c))
		s.Equal(int64(3), room.Version)
		s.Equal(10, room.Players[0].Score)
		s.Equal(1, room.CurrentTurn)
	}
}

func (s *GatewaySuite) TestPlayerMoveOutOfTurnErrorIsUnicast() {
	s.createRoom()
	a, b := s.joinBoth()

	s.dispatch(b, model.EventPlayerMove, model.PlayerMovePayload{RoomID: "R1", PlayerID: "B", SelectedNumber: 10})

	env := s.nextEvent(b)
	s.Equal(model.EventMoveError, env.Event)
	var moveErr model.MoveErrorPayload
	s.Require().NoError(json.Unmarshal(env.Payload, &moveErr))
	s.Equal(model.ErrNotYourTurn.Error(), moveErr.Message)

	// The rejection never reaches the other connection
	s.assertNoEvent(a)
}

// get-state

func (s *GatewaySuite) TestGetStateUnicastsSnapshot() {
	s.createRoom()
	c := s.newConn()

	s.dispatch(c, model.EventGetState, model.GetStatePayload{RoomID: "R1"})

	room := s.decodeRoom(s.nextEvent(c))
	s.Equal(model.RoomID("R1"), room.ID)
}

func (s *GatewaySuite) TestGetStateUnknownRoomErrors() {
	c := s.newConn()

	s.dispatch(c, model.EventGetState, model.GetStatePayload{RoomID: "nope"})

	s.Equal(model.EventMoveError, s.nextEvent(c).Event)
}

// leave-room

func (s *GatewaySuite) TestLeaveRoomBroadcastsPlayerLeft() {
	s.createRoom()
	a, b := s.joinBoth()

	s.dispatch(a, model.EventLeaveRoom, model.LeaveRoomPayload{RoomID: "R1", PlayerID: "A"})

	for _, c := range []*Client{a, b} {
		byType := s.nextEvents(c, 2)
		s.Require().Len(byType[model.EventPlayerLeft], 1)
		var left model.PlayerLeftPayload
		s.Require().NoError(json.Unmarshal(byType[model.EventPlayerLeft][0].Payload, &left))
		s.Equal(model.PlayerID("A"), left.PlayerID)

		s.Require().Len(byType[model.EventStateUpdated], 1)
		room := s.decodeRoom(byType[model.EventStateUpdated][0])
		s.Len(room.Players, 1)
	}

	s.Empty(a.PlayerID(), "an explicit leave drops the player binding")
}

func (s *GatewaySuite) TestLeaveRoomFallsBackToConnectionPlayer() {
	s.createRoom()
	a, _ := s.joinBoth()

	s.dispatch(a, model.EventLeaveRoom, model.LeaveRoomPayload{RoomID: "R1"})

	byType := s.nextEvents(a, 2)
	var left model.PlayerLeftPayload
	s.Require().NoError(json.Unmarshal(byType[model.EventPlayerLeft][0].Payload, &left))
	s.Equal(model.PlayerID("A"), left.PlayerID)
}

// disconnect cleanup

func (s *GatewaySuite) TestDisconnectRemovesPlayerExactlyOnce() {
	s.createRoom()
	a, b := s.joinBoth()

	s.gateway.handleDisconnect(a)
	s.gateway.handleDisconnect(a)

	room, ok := s.coordinator.GetRoom("R1")
	s.Require().True(ok)
	s.Require().Len(room.Players, 1)
	s.Equal(model.PlayerID("B"), room.Players[0].ID)
	s.Equal(int64(3), room.Version, "a second disconnect must not mutate the room again")

	byType := s.nextEvents(b, 2)
	s.Len(byType[model.EventPlayerLeft], 1)
	s.Len(byType[model.EventStateUpdated], 1)
	s.assertNoEvent(b)
}

func (s *GatewaySuite) TestDisconnectAfterExplicitLeaveIsQuiet() {
	s.createRoom()
	a, b := s.joinBoth()

	s.dispatch(a, model.EventLeaveRoom, model.LeaveRoomPayload{RoomID: "R1"})
	s.nextEvents(a, 2)
	s.nextEvents(b, 2)

	s.gateway.handleDisconnect(a)

	room, _ := s.coordinator.GetRoom("R1")
	s.Len(room.Players, 1)
	s.assertNoEvent(b)
}

// start-game

func (s *GatewaySuite) TestStartGameBroadcastsGameStarted() {
	s.createRoom()
	a := s.newConn()
	b := s.newConn()
	s.dispatch(a, model.EventJoinRoom, model.JoinRoomPayload{RoomID: "R1"})
	s.dispatch(b, model.EventJoinRoom, model.JoinRoomPayload{RoomID: "R1"})
	s.nextEvent(a)
	s.nextEvent(b)

	s.dispatch(a, model.EventStartGame, model.StartGamePayload{RoomID: "R1"})

	// The waiting to active transition broadcasts a snapshot followed
	// by the start announcement
	for _, c := range []*Client{a, b} {
		byType := s.nextEvents(c, 2)
		s.Require().Len(byType[model.EventGameStarted], 1)
		var started model.GameStartedPayload
		s.Require().NoError(json.Unmarshal(byType[model.EventGameStarted][0].Payload, &started))
		s.Equal(model.RoomID("R1"), started.RoomID)

		s.Require().Len(byType[model.EventStateUpdated], 1)
		room := s.decodeRoom(byType[model.EventStateUpdated][0])
		s.Equal(model.RoomStatusActive, room.Status)
	}
}

// malformed traffic

func (s *GatewaySuite) TestMalformedJSONUnicastsError() {
	c := s.newConn()

	s.gateway.handleMessage(c, []byte("{not json"))

	s.Equal(model.EventMoveError, s.nextEvent(c).Event)
}

func (s *GatewaySuite) TestUnknownEventUnicastsError() {
	c := s.newConn()

	s.gateway.handleMessage(c, []byte(`{"event":"self-destruct"}`))

	s.Equal(model.EventMoveError, s.nextEvent(c).Event)
}

// turn deadline

func (s *GatewaySuite) TestTurnDeadlineForcesIncorrectMove() {
	gw := New(s.coordinator, s.hubs, 30*time.Millisecond, testutil.NopLogger())
	s.coordinator.AddSink(gw)
	defer gw.Shutdown()

	s.createRoom()
	_, err := s.coordinator.Join("R1", model.Player{ID: "A", Username: "alice"})
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		room, ok := s.coordinator.GetRoom("R1")
		return ok && room.Version >= 2
	}, time.Second, 5*time.Millisecond, "the deadline should resolve the idle turn")

	room, _ := s.coordinator.GetRoom("R1")
	s.Require().NotNil(room.LastMoveCorrect)
	s.False(*room.LastMoveCorrect)
	s.Equal(0, room.Players[0].Score)
	s.Equal(1, room.Stats.TotalMoves)
}

func (s *GatewaySuite) TestShutdownStopsDeadlines() {
	gw := New(s.coordinator, s.hubs, 30*time.Millisecond, testutil.NopLogger())
	s.coordinator.AddSink(gw)

	s.createRoom()
	_, err := s.coordinator.Join("R1", model.Player{ID: "A"})
	s.Require().NoError(err)

	gw.Shutdown()
	time.Sleep(80 * time.Millisecond)

	room, _ := s.coordinator.GetRoom("R1")
	s.Equal(int64(1), room.Version)
}

// full websocket round trip

func (s *GatewaySuite) TestWebsocketRoundTrip() {
	s.createRoom()

	server := httptest.NewServer(http.HandlerFunc(s.gateway.HandleWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	read := func() Envelope {
		s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err)
		var env Envelope
		s.Require().NoError(json.Unmarshal(data, &env))
		return env
	}

	join, err := encodeEvent(model.EventJoinRoom, model.JoinRoomPayload{RoomID: "R1"})
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, join))

	room := s.decodeRoom(read())
	s.Equal(model.RoomID("R1"), room.ID)

	move, err := encodeEvent(model.EventJoinGame, model.JoinGamePayload{RoomID: "R1", PlayerID: "A", Username: "alice"})
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, move))

	// Already subscribed via join-room, so the connection sees the
	// broadcast snapshot, the join announcement, and its own unicast
	// snapshot
	byType := make(map[model.EventType]int)
	for i := 0; i < 3; i++ {
		byType[read().Event]++
	}
	s.Equal(1, byType[model.EventPlayerJoined])
	s.Equal(2, byType[model.EventStateUpdated])
}

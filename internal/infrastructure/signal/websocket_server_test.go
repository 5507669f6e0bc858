package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"townhall/internal/core/domain"
	"townhall/internal/core/ports"
	"townhall/internal/core/services"
	"townhall/internal/infrastructure/monitoring"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixedVideoClient struct{}

func (fixedVideoClient) GetTokenForTown(ctx context.Context, townID domain.TownID, playerID domain.PlayerID) (string, error) {
	return "video-token", nil
}

type testHarness struct {
	registry *services.TownsRegistry
	server   *httptest.Server
	wsURL    string
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	registry := services.NewTownsRegistry(fixedVideoClient{}, services.RegistryOptions{}, zaptest.NewLogger(t).Sugar())
	ws := NewWebSocketServer(registry, zaptest.NewLogger(t).Sugar())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.HandleWebSocket)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testHarness{
		registry: registry,
		server:   server,
		wsURL:    "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
	}
}

func (h *testHarness) join(t *testing.T, town ports.Town, userName string) *domain.PlayerSession {
	t.Helper()
	session, err := town.AddPlayer(context.Background(), userName)
	require.NoError(t, err)
	return session
}

func (h *testHarness) dial(t *testing.T, townID domain.TownID, token domain.SessionToken) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(
		h.wsURL+"?townID="+string(townID)+"&token="+string(token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) PushMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg PushMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitForOccupancy(t *testing.T, town ports.Town, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if town.Occupancy() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("town occupancy never reached %d, have %d", want, town.Occupancy())
}

func TestSubscriptionRejectedForUnknownSession(t *testing.T) {
	h := newHarness(t)
	town := h.registry.CreateTown("test town", true)

	conn, _, err := websocket.DefaultDialer.Dial(
		h.wsURL+"?townID="+string(town.ID())+"&token=bogus", nil)
	// The upgrade may succeed before the server validates and closes.
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestSubscriberReceivesNewPlayerEvent(t *testing.T) {
	h := newHarness(t)
	town := h.registry.CreateTown("test town", true)
	alice := h.join(t, town, "alice")

	conn := h.dial(t, town.ID(), alice.Token)
	waitForOccupancy(t, town, 1)

	bob := h.join(t, town, "bob")

	msg := readEvent(t, conn)
	assert.Equal(t, EventNewPlayer, msg.Type)

	var joined domain.Player
	require.NoError(t, json.Unmarshal(msg.Payload, &joined))
	assert.Equal(t, bob.Player.ID, joined.ID)
	assert.Equal(t, "bob", joined.UserName)
}

func TestPlayerMovementIsBroadcast(t *testing.T) {
	h := newHarness(t)
	town := h.registry.CreateTown("test town", true)
	alice := h.join(t, town, "alice")
	bob := h.join(t, town, "bob")

	aliceConn := h.dial(t, town.ID(), alice.Token)
	waitForOccupancy(t, town, 1)
	bobConn := h.dial(t, town.ID(), bob.Token)
	waitForOccupancy(t, town, 2)

	location := domain.UserLocation{X: 10, Y: 20, Rotation: domain.DirectionRight, Moving: true}
	payload, err := json.Marshal(location)
	require.NoError(t, err)
	require.NoError(t, bobConn.WriteJSON(PushMessage{
		Type:    MessageTypePlayerMovement,
		Payload: payload,
	}))

	// Both subscribers see the movement, including the mover.
	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		msg := readEvent(t, conn)
		assert.Equal(t, EventPlayerMoved, msg.Type)

		var moved domain.Player
		require.NoError(t, json.Unmarshal(msg.Payload, &moved))
		assert.Equal(t, bob.Player.ID, moved.ID)
		assert.Equal(t, location, moved.Location)
	}
}

func TestPlaceableEventsReachSubscribers(t *testing.T) {
	h := newHarness(t)
	town := h.registry.CreateTown("test town", true)
	alice := h.join(t, town, "alice")

	conn := h.dial(t, town.ID(), alice.Token)
	waitForOccupancy(t, town, 1)

	cell := domain.PlaceableLocation{XIndex: 1, YIndex: 2}
	require.NoError(t, h.registry.AddPlaceable(town.ID(), town.UpdatePassword(), "", "tree", cell, nil))

	msg := readEvent(t, conn)
	assert.Equal(t, EventPlaceableAdded, msg.Type)

	var added domain.PlaceableInfo
	require.NoError(t, json.Unmarshal(msg.Payload, &added))
	assert.Equal(t, "tree", added.PlaceableID)
	assert.Equal(t, cell, added.Location)

	require.NoError(t, h.registry.DeletePlaceable(town.ID(), town.UpdatePassword(), "", cell))

	msg = readEvent(t, conn)
	assert.Equal(t, EventPlaceableDeleted, msg.Type)

	var deleted domain.PlaceableInfo
	require.NoError(t, json.Unmarshal(msg.Payload, &deleted))
	assert.Equal(t, domain.EmptyPlaceableID, deleted.PlaceableID)
}

func TestTownDeletionSendsTownClosing(t *testing.T) {
	h := newHarness(t)
	town := h.registry.CreateTown("test town", true)
	alice := h.join(t, town, "alice")

	conn := h.dial(t, town.ID(), alice.Token)
	waitForOccupancy(t, town, 1)

	require.True(t, h.registry.DeleteTown(town.ID(), town.UpdatePassword()))

	msg := readEvent(t, conn)
	assert.Equal(t, EventTownClosing, msg.Type)

	// The server severs the connection after the final event.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestDisconnectDestroysSession(t *testing.T) {
	h := newHarness(t)
	town := h.registry.CreateTown("test town", true)
	alice := h.join(t, town, "alice")

	conn := h.dial(t, town.ID(), alice.Token)
	waitForOccupancy(t, town, 1)

	conn.Close()
	waitForOccupancy(t, town, 0)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := town.SessionByToken(alice.Token); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session still live after disconnect")
}

func TestLeaverDoesNotReceiveOwnDisconnect(t *testing.T) {
	h := newHarness(t)
	town := h.registry.CreateTown("test town", true)
	alice := h.join(t, town, "alice")
	bob := h.join(t, town, "bob")

	aliceConn := h.dial(t, town.ID(), alice.Token)
	waitForOccupancy(t, town, 1)
	bobConn := h.dial(t, town.ID(), bob.Token)
	waitForOccupancy(t, town, 2)

	bobConn.Close()
	waitForOccupancy(t, town, 1)

	msg := readEvent(t, aliceConn)
	assert.Equal(t, EventPlayerDisconnect, msg.Type)

	var gone domain.Player
	require.NoError(t, json.Unmarshal(msg.Payload, &gone))
	assert.Equal(t, bob.Player.ID, gone.ID)
}

func TestReconnectReplacesOldSubscription(t *testing.T) {
	h := newHarness(t)
	town := h.registry.CreateTown("test town", true)
	alice := h.join(t, town, "alice")

	oldConn := h.dial(t, town.ID(), alice.Token)
	waitForOccupancy(t, town, 1)

	newConn := h.dial(t, town.ID(), alice.Token)

	// The old socket is severed by the replacement.
	oldConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := oldConn.ReadMessage()
	assert.Error(t, err)

	// The replaced socket must not tear down the session it handed over.
	_, ok := town.SessionByToken(alice.Token)
	assert.True(t, ok)

	// The new subscription still receives events.
	h.join(t, town, "bob")
	msg := readEvent(t, newConn)
	assert.Equal(t, EventNewPlayer, msg.Type)
}

func severedCount(t *testing.T) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "townhall_severed_subscribers_total" {
			continue
		}
		var total float64
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func TestEnqueueSeversSlowSubscriber(t *testing.T) {
	upgraded := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		upgraded <- conn
	}))
	t.Cleanup(server.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	serverConn := <-upgraded

	collector := monitoring.NewPrometheusCollector()
	session := &domain.PlayerSession{Token: "tok", Player: &domain.Player{ID: "p1", UserName: "alice"}}

	// No write loop drains this subscriber, so the second event finds the
	// queue full.
	sub := newSubscriber(serverConn, session, 1, collector)

	sub.OnPlayerMoved(session.Player)
	select {
	case <-sub.done:
		t.Fatal("subscriber severed while its queue had room")
	default:
	}

	sub.OnPlayerMoved(session.Player)
	select {
	case <-sub.done:
	default:
		t.Fatal("subscriber was not severed on a full queue")
	}
	assert.Equal(t, 1.0, severedCount(t))
}

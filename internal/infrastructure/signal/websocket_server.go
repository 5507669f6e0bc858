package signal

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"townhall/internal/core/domain"
	"townhall/internal/core/ports"
	"townhall/internal/infrastructure/monitoring"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Event names carried in the Type field of outbound messages.
const (
	EventNewPlayer        = "newPlayer"
	EventPlayerMoved      = "playerMoved"
	EventPlayerDisconnect = "playerDisconnect"
	EventTownClosing      = "townClosing"
	EventPlaceableAdded   = "placeableAdded"
	EventPlaceableDeleted = "placeableDeleted"
)

// MessageTypePlayerMovement is the only inbound message type.
const MessageTypePlayerMovement = "playerMovement"

type PushMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WebSocketServer struct {
	towns ports.TownsService

	subscribers map[domain.SessionToken]*subscriber
	mu          sync.Mutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration
	queueSize    int

	metrics *monitoring.PrometheusCollector
	logger  *zap.SugaredLogger
}

func NewWebSocketServer(towns ports.TownsService, logger *zap.SugaredLogger) *WebSocketServer {
	return &WebSocketServer{
		towns:        towns,
		subscribers:  make(map[domain.SessionToken]*subscriber),
		pingInterval: 30 * time.Second,
		pongTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		queueSize:    256,
		logger:       logger,
	}
}

// SetPingInterval sets the ping interval for WebSocket connections
func (s *WebSocketServer) SetPingInterval(interval time.Duration) {
	s.pingInterval = interval
}

// SetPongTimeout sets the pong timeout for WebSocket connections
func (s *WebSocketServer) SetPongTimeout(timeout time.Duration) {
	s.pongTimeout = timeout
}

// SetWriteTimeout sets the per-message write deadline
func (s *WebSocketServer) SetWriteTimeout(timeout time.Duration) {
	s.writeTimeout = timeout
}

// SetOutboundQueueSize sets the buffered event queue size per subscriber. A
// subscriber whose queue fills up is severed rather than allowed to stall the
// town's mutation path.
func (s *WebSocketServer) SetOutboundQueueSize(size int) {
	s.queueSize = size
}

// SetMetricsCollector attaches an optional metrics collector.
func (s *WebSocketServer) SetMetricsCollector(metrics *monitoring.PrometheusCollector) {
	s.metrics = metrics
}

// HandleWebSocket upgrades the connection and subscribes it to town events.
// The client identifies itself with townID and token query parameters; an
// unknown town or session closes the socket immediately.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	townID := domain.TownID(r.URL.Query().Get("townID"))
	token := domain.SessionToken(r.URL.Query().Get("token"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	town, ok := s.towns.ControllerForTown(townID)
	if !ok {
		s.logger.Warnw("subscription rejected for unknown town", "town_id", townID)
		conn.Close()
		return
	}

	session, ok := town.SessionByToken(token)
	if !ok {
		s.logger.Warnw("subscription rejected for unknown session", "town_id", townID)
		conn.Close()
		return
	}

	sub := newSubscriber(conn, session, s.queueSize, s.metrics)

	// A reconnect with the same session token replaces the previous socket.
	s.mu.Lock()
	if old, isReconnect := s.subscribers[token]; isReconnect {
		old.sever()
		town.RemoveTownListener(old)
		s.logger.Infow("closing old connection for reconnecting session",
			"town_id", townID,
			"player_id", session.Player.ID,
		)
	}
	s.subscribers[token] = sub
	s.mu.Unlock()

	town.AddTownListener(sub)
	if s.metrics != nil {
		s.metrics.RecordSubscribed(townID)
	}

	s.logger.Infow("player subscribed",
		"town_id", townID,
		"player_id", session.Player.ID,
		"user_name", session.Player.UserName,
	)

	go s.writeLoop(sub)
	s.readLoop(town, sub)

	// Read loop is done: unsubscribe before tearing down the session so this
	// subscriber does not receive its own disconnect event.
	town.RemoveTownListener(sub)
	sub.sever()

	// If a reconnect already replaced this subscriber, the session now belongs
	// to the new socket and must stay alive.
	s.mu.Lock()
	replaced := true
	if current, ok := s.subscribers[token]; ok && current == sub {
		delete(s.subscribers, token)
		replaced = false
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordUnsubscribed(townID)
	}
	if replaced {
		return
	}

	town.DestroySession(session)
	if s.metrics != nil {
		s.metrics.RecordPlayerLeft()
	}

	s.logger.Infow("player disconnected",
		"town_id", townID,
		"player_id", session.Player.ID,
	)
}

// readLoop consumes inbound messages until the socket errors or is severed.
func (s *WebSocketServer) readLoop(town ports.Town, sub *subscriber) {
	conn := sub.conn
	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	for {
		var msg PushMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Infow("error reading from subscriber",
					"player_id", sub.session.Player.ID,
					"error", err,
				)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))

		if err := s.handleMessage(town, sub, msg); err != nil {
			s.logger.Infow("error handling subscriber message",
				"player_id", sub.session.Player.ID,
				"type", msg.Type,
				"error", err,
			)
		}
	}
}

func (s *WebSocketServer) handleMessage(town ports.Town, sub *subscriber, msg PushMessage) error {
	switch msg.Type {
	case MessageTypePlayerMovement:
		var location domain.UserLocation
		if err := json.Unmarshal(msg.Payload, &location); err != nil {
			return err
		}
		town.UpdatePlayerLocation(sub.session.Player, location)
		return nil
	default:
		return &unknownMessageError{msgType: msg.Type}
	}
}

type unknownMessageError struct {
	msgType string
}

func (e *unknownMessageError) Error() string {
	return "unknown message type: " + e.msgType
}

// writeLoop drains the subscriber's queue onto the socket and keeps the
// connection alive with pings.
func (s *WebSocketServer) writeLoop(sub *subscriber) {
	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()
	defer sub.conn.Close()

	for {
		select {
		case msg, ok := <-sub.outbound:
			if !ok {
				return
			}
			sub.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := sub.conn.WriteJSON(msg); err != nil {
				s.logger.Infow("error writing to subscriber",
					"player_id", sub.session.Player.ID,
					"error", err,
				)
				return
			}
			if s.metrics != nil {
				s.metrics.RecordBroadcast(msg.Type)
			}
			// townClosing is the last event a subscriber sees.
			if msg.Type == EventTownClosing {
				sub.sever()
				return
			}

		case <-pingTicker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-sub.done:
			return
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (s *WebSocketServer) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// subscriber adapts one WebSocket connection to the TownListener interface.
// Callbacks run under the town's mutation lock, so they only enqueue; the
// write loop delivers in enqueue order. If the queue is full the subscriber is
// severed instead of blocking the caller.
type subscriber struct {
	conn     *websocket.Conn
	session  *domain.PlayerSession
	outbound chan PushMessage
	metrics  *monitoring.PrometheusCollector

	done      chan struct{}
	closeOnce sync.Once
}

func newSubscriber(conn *websocket.Conn, session *domain.PlayerSession, queueSize int, metrics *monitoring.PrometheusCollector) *subscriber {
	return &subscriber{
		conn:     conn,
		session:  session,
		outbound: make(chan PushMessage, queueSize),
		metrics:  metrics,
		done:     make(chan struct{}),
	}
}

func (sub *subscriber) sever() {
	sub.closeOnce.Do(func() {
		close(sub.done)
		sub.conn.Close()
	})
}

func (sub *subscriber) enqueue(eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	select {
	case sub.outbound <- PushMessage{Type: eventType, Payload: data}:
	case <-sub.done:
	default:
		// Queue full: this subscriber cannot keep up.
		sub.sever()
		if sub.metrics != nil {
			sub.metrics.RecordSubscriberSevered()
		}
	}
}

func (sub *subscriber) OnPlayerJoined(player *domain.Player) {
	sub.enqueue(EventNewPlayer, player)
}

func (sub *subscriber) OnPlayerMoved(player *domain.Player) {
	sub.enqueue(EventPlayerMoved, player)
}

func (sub *subscriber) OnPlayerDisconnected(player *domain.Player) {
	sub.enqueue(EventPlayerDisconnect, player)
}

func (sub *subscriber) OnTownDestroyed() {
	sub.enqueue(EventTownClosing, nil)
}

func (sub *subscriber) OnPlaceableAdded(placeable domain.PlaceableInfo) {
	sub.enqueue(EventPlaceableAdded, placeable)
}

func (sub *subscriber) OnPlaceableDeleted(placeable domain.PlaceableInfo) {
	sub.enqueue(EventPlaceableDeleted, placeable)
}

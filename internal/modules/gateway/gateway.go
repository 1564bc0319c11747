package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"

	pkgredis "github.com/threadsync/core/internal/pkg/redis"
)

const (
	namespaceMain = "/"
	redisChannel  = "threadsync:gateway:events"
)

// Message is the envelope used by hub broadcasts and Redis fan-out. Room
// names a conversation room ("conversation:<itemType>:<itemId>"); an empty
// room broadcasts to everyone.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Room    string      `json:"room,omitempty"`
}

type gatewayPayload struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type joinRequest struct {
	ItemType string `json:"itemType"`
	ItemID   string `json:"itemId"`
}

// Hub manages socket.io clients, conversation rooms and cluster fan-out.
// Clients authenticate with a JWT on connect and then join the rooms of
// the conversations they have open.
type Hub struct {
	mu        sync.RWMutex
	roomCount map[string]int
	sidRooms  map[string]map[string]struct{}

	broadcast chan Message

	rc             *pkgredis.Client
	logger         *zap.Logger
	sio            *socketio.Server
	tokenValidator func(string) bool
}

func NewHub(rc *pkgredis.Client, logger *zap.Logger, tokenValidator func(string) bool) *Hub {
	h := &Hub{
		roomCount:      make(map[string]int),
		sidRooms:       make(map[string]map[string]struct{}),
		broadcast:      make(chan Message, 256),
		rc:             rc,
		logger:         logger,
		sio:            socketio.NewServer(nil, nil),
		tokenValidator: tokenValidator,
	}
	h.registerNamespace()
	return h
}

func (h *Hub) registerNamespace() {
	ns := h.sio.Of(namespaceMain, nil)
	_ = ns.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}

		token := normalizeToken(extractToken(client))
		if token == "" || h.tokenValidator == nil || !h.tokenValidator(token) {
			_ = client.Emit("message", gatewayPayload{Type: "AUTH_FAILED", Data: "auth failed"})
			client.Disconnect(true)
			return
		}

		sid := string(client.Id())
		_ = client.Emit("message", gatewayPayload{Type: "GATEWAY_CONNECT", Data: "WebSocket connected"})

		_ = client.On("join", func(data ...any) {
			room := roomFromArgs(data)
			if room == "" {
				return
			}
			client.Join(socketio.Room(room))
			h.trackJoin(sid, room)
		})

		_ = client.On("leave", func(data ...any) {
			room := roomFromArgs(data)
			if room == "" {
				return
			}
			client.Leave(socketio.Room(room))
			h.trackLeave(sid, room)
		})

		_ = client.On("disconnect", func(_ ...any) {
			h.dropClient(sid)
		})
	})
}

func roomFromArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return ""
	}
	var req joinRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ""
	}
	if req.ItemType == "" || req.ItemID == "" {
		return ""
	}
	return "conversation:" + req.ItemType + ":" + req.ItemID
}

func extractToken(client *socketio.Socket) string {
	handshake := client.Handshake()
	if handshake == nil {
		return ""
	}
	if token := firstValueFromMultiMap(handshake.Query, "token"); token != "" {
		return token
	}
	return firstValueFromMultiMap(handshake.Headers, "authorization")
}

func firstValueFromMultiMap(values map[string][]string, key string) string {
	for k, list := range values {
		if !strings.EqualFold(strings.TrimSpace(k), key) || len(list) == 0 {
			continue
		}
		if v := strings.TrimSpace(list[0]); v != "" {
			return v
		}
	}
	return ""
}

func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// Run starts the hub loop and Redis subscriber.
func (h *Hub) Run(ctx context.Context) {
	if h.rc != nil {
		go h.subscribeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case msg := <-h.broadcast:
			h.deliver(msg)

			if h.rc == nil {
				continue
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := h.rc.Publish(ctx, redisChannel, string(data)); err != nil && h.logger != nil {
				h.logger.Warn("gateway publish failed", zap.Error(err))
			}
		}
	}
}

func (h *Hub) trackJoin(sid, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms := h.sidRooms[sid]
	if rooms == nil {
		rooms = make(map[string]struct{})
		h.sidRooms[sid] = rooms
	}
	if _, ok := rooms[room]; ok {
		return
	}
	rooms[room] = struct{}{}
	h.roomCount[room]++
}

func (h *Hub) trackLeave(sid, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms := h.sidRooms[sid]
	if _, ok := rooms[room]; !ok {
		return
	}
	delete(rooms, room)
	if h.roomCount[room] > 0 {
		h.roomCount[room]--
	}
}

func (h *Hub) dropClient(sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.sidRooms[sid] {
		if h.roomCount[room] > 0 {
			h.roomCount[room]--
		}
	}
	delete(h.sidRooms, sid)
}

func (h *Hub) deliver(msg Message) {
	ns := h.sio.Of(namespaceMain, nil)
	payload := gatewayPayload{Type: msg.Event, Data: msg.Payload}
	if msg.Room == "" {
		ns.Emit("message", payload)
		return
	}
	ns.To(socketio.Room(msg.Room)).Emit("message", payload)
}

// subscribeRedis listens for broadcasts from other server instances.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				continue
			}
			h.deliver(msg)
		}
	}
}

// Broadcast sends an event to all clients in the given room (or all if
// room is empty).
func (h *Hub) Broadcast(event string, payload interface{}, room string) {
	h.broadcast <- Message{Event: event, Payload: payload, Room: room}
}

// ClientCount returns the number of clients in a room, or the total number
// of tracked clients when room is empty.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room == "" {
		return len(h.sidRooms)
	}
	return h.roomCount[room]
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}

// RegisterRoutes mounts socket.io and the stats endpoint.
func RegisterRoutes(rg *gin.RouterGroup, hub *Hub) {
	handler := gin.WrapH(hub.Handler())
	rg.Any("/socket.io", handler)
	rg.Any("/socket.io/*any", handler)

	rg.GET("/gateway/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"clients": hub.ClientCount(""),
		})
	})
}

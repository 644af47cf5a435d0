package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"studyhall-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientKey identifies one connected user: students and class managers get
// separate pub/sub channels even when their numeric ids collide.
type clientKey struct {
	role   string
	userID int64
}

func (k clientKey) channel() string {
	if k.role == middleware.RoleClassManager {
		return fmt.Sprintf("manager_updates:%d", k.userID)
	}
	return fmt.Sprintf("student_updates:%d", k.userID)
}

type Hub struct {
	mu          sync.RWMutex
	connections map[clientKey][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancelFuncs map[clientKey]context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[clientKey][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[clientKey]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	role, _ := claims["role"].(string)
	if role != middleware.RoleStudent && role != middleware.RoleClassManager {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	key := clientKey{role: role, userID: int64(userIDFloat)}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(key, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(key, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(key clientKey, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[key] = append(h.connections[key], conn)

	// Start pub/sub subscription if this is the first connection for this user
	if len(h.connections[key]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[key] = cancel
		go h.subscribeToPubSub(ctx, key)
	}

	log.Printf("WebSocket connected: %s %d (total: %d)", key.role, key.userID, len(h.connections[key]))
}

func (h *Hub) unregisterConnection(key clientKey, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[key]
	for i, c := range conns {
		if c == conn {
			h.connections[key] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[key]) == 0 {
		delete(h.connections, key)
		if cancel, ok := h.cancelFuncs[key]; ok {
			cancel()
			delete(h.cancelFuncs, key)
		}
	}

	log.Printf("WebSocket disconnected: %s %d", key.role, key.userID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, key clientKey) {
	pubsub := h.redisClient.Subscribe(ctx, key.channel())
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(key, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(key clientKey, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[key] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// SendToStudent sends a message directly to a student (for use outside pub/sub)
func (h *Hub) SendToStudent(studentID int64, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(clientKey{role: middleware.RoleStudent, userID: studentID}, data)
}

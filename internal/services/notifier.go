package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"studyhall-backend/internal/models"
)

// Notifier pushes live session updates to connected clients. Delivery is
// best-effort; lifecycle operations never fail on a lost notification.
type Notifier interface {
	NotifyStudent(ctx context.Context, studentID int64, msg models.WSMessage)
	NotifyManager(ctx context.Context, managerID int64, msg models.WSMessage)
}

// RedisNotifier publishes updates on per-user Redis pub/sub channels; the
// websocket hub fans them out to connected clients.
type RedisNotifier struct {
	redis *redis.Client
}

func NewRedisNotifier(redisClient *redis.Client) *RedisNotifier {
	return &RedisNotifier{redis: redisClient}
}

func (n *RedisNotifier) NotifyStudent(ctx context.Context, studentID int64, msg models.WSMessage) {
	n.publish(ctx, fmt.Sprintf("student_updates:%d", studentID), msg)
}

func (n *RedisNotifier) NotifyManager(ctx context.Context, managerID int64, msg models.WSMessage) {
	n.publish(ctx, fmt.Sprintf("manager_updates:%d", managerID), msg)
}

func (n *RedisNotifier) publish(ctx context.Context, channel string, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	if err := n.redis.Publish(ctx, channel, string(data)).Err(); err != nil {
		log.Printf("notifier: failed to publish on %s: %v", channel, err)
	}
}

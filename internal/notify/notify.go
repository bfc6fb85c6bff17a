// Package notify carries admin notifications over Redis Pub/Sub. The API websocket
// handler subscribes to Channel and forwards every payload verbatim.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel 是管理端通知使用的 Redis 频道。
const Channel = "admin_notify"

// 通知类型。
const (
	TypeContactMessage = "contact_message"
	TypeEmailDelivery  = "email_delivery"
	TypeResumeRender   = "resume_render"
	TypeStorageCleanup = "storage_cleanup"
)

// Message 是推送给前端的统一消息结构，字段名与前端解析保持一致。
type Message struct {
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	ResourceID    string    `json:"resource_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	ErrorCode     int       `json:"error_code"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Publisher 发布管理端通知。
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher 基于 go-redis 的 Publisher 实现。
type RedisPublisher struct {
	client redisPublisher
	now    func() time.Time
}

// NewRedisPublisher wraps a go-redis client (or anything with the same Publish signature).
func NewRedisPublisher(client redisPublisher) *RedisPublisher {
	return &RedisPublisher{client: client, now: time.Now}
}

// Publish 序列化消息并发布到 Channel。
func (p *RedisPublisher) Publish(ctx context.Context, msg Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = p.now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", Channel, err)
	}
	return nil
}

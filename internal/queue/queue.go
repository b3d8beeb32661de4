package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckInMessage is the work item the worker consumes: a freshly created
// attendance record whose check-in leg still needs face verification.
type CheckInMessage struct {
	RecordID string    `json:"record_id"`
	UserID   string    `json:"user_id"`
	EventID  string    `json:"event_id,omitempty"`
	ImageURL string    `json:"image_url,omitempty"`
	At       time.Time `json:"at"`
}

// Encode marshals the message for transport.
func (m CheckInMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeCheckIn unmarshals a transported message.
func DecodeCheckIn(data []byte) (CheckInMessage, error) {
	var m CheckInMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg CheckInMessage) error
	Consume(ctx context.Context) (<-chan CheckInMessage, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan CheckInMessage
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan CheckInMessage, size)}
}

// Publish enqueues a message.
func (q *InMemory) Publish(ctx context.Context, msg CheckInMessage) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan CheckInMessage, error) {
	out := make(chan CheckInMessage)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				out <- msg
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "faceattend:checkins"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg CheckInMessage) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// Consume streams messages using BRPOP. Undecodable payloads are dropped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan CheckInMessage, error) {
	out := make(chan CheckInMessage)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				if msg, err := DecodeCheckIn([]byte(res[1])); err == nil {
					out <- msg
				}
			}
		}
	}()
	return out, nil
}

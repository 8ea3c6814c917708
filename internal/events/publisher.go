// Package events publishes engagement activity to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	k "github.com/segmentio/kafka-go"
)

// Activity types
const (
	PostLiked     = "post.liked"
	PostUnliked   = "post.unliked"
	CommentPosted = "comment.posted"
	PostViewed    = "post.viewed"
)

// Activity is one engagement event. PostID is used as the message key.
type Activity struct {
	Type   string    `json:"type"`
	PostID string    `json:"post_id"`
	UserID string    `json:"user_id,omitempty"`
	Count  int64     `json:"count"`
	At     time.Time `json:"at"`
}

// Publisher sends activity somewhere
type Publisher interface {
	Publish(ctx context.Context, a Activity) error
}

// Nop drops every activity. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Activity) error { return nil }

// KafkaWriter publishes activity asynchronously to a single topic
type KafkaWriter struct {
	w *k.Writer
}

func NewKafkaWriter(brokers []string, topic string) *KafkaWriter {
	return &KafkaWriter{w: &k.Writer{
		Addr:         k.TCP(brokers...),
		Topic:        topic,
		Balancer:     &k.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: k.RequireOne,
		Async:        true,
	}}
}

func (w *KafkaWriter) Close() error { return w.w.Close() }

func (w *KafkaWriter) Publish(ctx context.Context, a Activity) error {
	msg, err := message(a)
	if err != nil {
		return err
	}
	return w.w.WriteMessages(ctx, msg)
}

// message keys activity by post so one post's events stay ordered within a partition
func message(a Activity) (k.Message, error) {
	value, err := json.Marshal(a)
	if err != nil {
		return k.Message{}, err
	}
	return k.Message{Key: []byte(a.PostID), Value: value, Time: a.At}, nil
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Relay forwards events between API instances so a user connected to any
// instance receives them.
type Relay interface {
	Publish(ctx context.Context, userID uint, event Event) error
	Run(ctx context.Context)
}

// Preferred returns the first configured relay. An instance runs at most one
// relay: with two, every peer would receive each event twice.
func Preferred(candidates ...Relay) Relay {
	for _, candidate := range candidates {
		if candidate != nil {
			return candidate
		}
	}
	return nil
}

type envelope struct {
	Source string    `json:"source"`
	UserID uint      `json:"user_id"`
	Event  Event     `json:"event"`
	SentAt time.Time `json:"sent_at"`
}

type relayNode struct {
	nodeID    string
	directory Directory
	logger    zerolog.Logger
}

func newRelayNode(directory Directory, logger zerolog.Logger, component string) relayNode {
	return relayNode{
		nodeID:    uuid.NewString(),
		directory: directory,
		logger:    logger.With().Str("component", component).Logger(),
	}
}

func (n relayNode) encode(userID uint, event Event) ([]byte, error) {
	return json.Marshal(envelope{
		Source: n.nodeID,
		UserID: userID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
}

func (n relayNode) handle(payload []byte) {
	var message envelope
	if err := json.Unmarshal(payload, &message); err != nil {
		n.logger.Warn().Err(err).Msg("invalid realtime relay payload")
		return
	}

	if message.Source == n.nodeID || message.UserID == 0 {
		return
	}

	n.directory.Deliver(message.UserID, message.Event)
}

// RedisRelay relays events over a Redis pub/sub channel.
type RedisRelay struct {
	relayNode
	client  *redis.Client
	channel string
}

// NewRedisRelay constructs a relay publishing on "<base>:notifications".
func NewRedisRelay(client *redis.Client, base string, directory Directory, logger zerolog.Logger) *RedisRelay {
	return &RedisRelay{
		relayNode: newRelayNode(directory, logger, "redis_relay"),
		client:    client,
		channel:   base + ":notifications",
	}
}

// Publish sends event to every other instance.
func (r *RedisRelay) Publish(ctx context.Context, userID uint, event Event) error {
	payload, err := r.encode(userID, event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Run consumes the channel until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error().Err(err).Msg("realtime redis subscription failed")
		}
		return
	}

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			r.logger.Error().Err(err).Msg("realtime redis subscription closed")
			return
		}
		r.handle([]byte(msg.Payload))
	}
}

// NATSRelay relays events over a NATS subject. Every instance subscribes
// without a queue group so each one receives every event.
type NATSRelay struct {
	relayNode
	conn    *nats.Conn
	subject string
}

// NewNATSRelay constructs a relay publishing on "<base>.notifications".
func NewNATSRelay(conn *nats.Conn, base string, directory Directory, logger zerolog.Logger) *NATSRelay {
	return &NATSRelay{
		relayNode: newRelayNode(directory, logger, "nats_relay"),
		conn:      conn,
		subject:   strings.ReplaceAll(base, ":", ".") + ".notifications",
	}
}

// Publish sends event to every other instance.
func (r *NATSRelay) Publish(_ context.Context, userID uint, event Event) error {
	payload, err := r.encode(userID, event)
	if err != nil {
		return err
	}
	return r.conn.Publish(r.subject, payload)
}

// Run subscribes to the subject and drains the subscription when ctx is cancelled.
func (r *NATSRelay) Run(ctx context.Context) {
	sub, err := r.conn.Subscribe(r.subject, func(msg *nats.Msg) {
		r.handle(msg.Data)
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to subscribe to realtime nats subject")
		return
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		r.logger.Warn().Err(err).Msg("failed to drain realtime nats subscription")
	}
}

package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type envelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// RedisBridge fans events out across instances over a Redis pub/sub
// channel. Each instance ignores its own messages.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	if channel == "" {
		channel = "campusconecto:relay"
	}
	return &RedisBridge{client: client, channel: channel, hub: hub}
}

func (b *RedisBridge) Publish(ctx context.Context, room, event string, data json.RawMessage) error {
	msg, err := json.Marshal(envelope{Origin: b.hub.InstanceID(), Room: room, Event: event, Data: data})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, msg).Err()
}

// Start subscribes, attaches the bridge to the hub and forwards remote
// events until ctx is done. The subscription is confirmed before Start
// returns.
func (b *RedisBridge) Start(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.hub.SetPublisher(b)
	log.Infof("fan-out subscribed to %s as %s", b.channel, b.hub.InstanceID())

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				b.handle(m.Payload)
			}
		}
	}()
	return nil
}

func (b *RedisBridge) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Warnf("bad fan-out message: %v", err)
		return
	}
	if env.Origin == b.hub.InstanceID() || env.Room == "" || env.Event == "" {
		return
	}
	b.hub.deliverRemote(env.Room, env.Event, env.Data)
}

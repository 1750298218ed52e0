/*
DESCRIPTION
  Cloud Pub/Sub backed taskbus.Bus.

AUTHORS
  Alan Noble <alan@ausocean.org>
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

// Package pubsubbus implements taskbus.Bus on top of Cloud Pub/Sub.
package pubsubbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/chatwatch/cloud/taskbus"
)

// Bus publishes to and subscribes from a single Pub/Sub topic carrying
// Task Bus control messages.
type Bus struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
}

// New returns a Bus bound to topicID for publishing and subID for
// receiving; either may be empty if this Bus is used for only one
// direction.
func New(ctx context.Context, projectID, topicID, subID string) (*Bus, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsubbus: new client: %w", err)
	}

	b := &Bus{client: client}
	if topicID != "" {
		b.topic = client.Topic(topicID)
	}
	if subID != "" {
		b.sub = client.Subscription(subID)
	}
	return b, nil
}

type wireMessage struct {
	Action    taskbus.Action `json:"action"`
	VideoID   string         `json:"video_id"`
	ChannelID string         `json:"channel_id"`
	Timestamp string         `json:"timestamp"`
}

// Send publishes msg to the configured topic and waits for the publish
// result.
func (b *Bus) Send(ctx context.Context, msg taskbus.Message) error {
	if b.topic == nil {
		return fmt.Errorf("pubsubbus: no topic configured")
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	data, err := json.Marshal(wireMessage{
		Action:    msg.Action,
		VideoID:   msg.VideoID,
		ChannelID: msg.ChannelID,
		Timestamp: ts.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("pubsubbus: marshal message: %w", err)
	}

	result := b.topic.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("pubsubbus: publish: %w", err)
	}
	return nil
}

// Receive pulls messages from the configured subscription until ctx is
// cancelled or handle returns an error.
func (b *Bus) Receive(ctx context.Context, handle func(context.Context, taskbus.Delivery) error) error {
	if b.sub == nil {
		return fmt.Errorf("pubsubbus: no subscription configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		once      sync.Once
		handleErr error
	)
	err := b.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		var wm wireMessage
		if err := json.Unmarshal(m.Data, &wm); err != nil {
			m.Nack()
			return
		}
		ts, _ := time.Parse(time.RFC3339, wm.Timestamp)

		d := taskbus.Delivery{
			Message: taskbus.Message{
				Action:    wm.Action,
				VideoID:   wm.VideoID,
				ChannelID: wm.ChannelID,
				Timestamp: ts,
			},
			Ack:  m.Ack,
			Nack: m.Nack,
		}
		if err := handle(ctx, d); err != nil {
			m.Nack()
			once.Do(func() {
				handleErr = err
				cancel()
			})
			return
		}
	})
	if handleErr != nil {
		return handleErr
	}
	return err
}

// Close releases the underlying Pub/Sub client.
func (b *Bus) Close() error {
	return b.client.Close()
}

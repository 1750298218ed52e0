/*
DESCRIPTION
  Message type and functions.

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

package model

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chatwatch/cloud/store"
)

// typeMessage is the store kind for Message.
const typeMessage = "Message"

// Message is a single chat message, append-only and written only by
// the worker owning its broadcast.
type Message struct {
	MessageID       string // video_id#platform_message_id, primary key.
	VideoID         string
	ChannelID       string
	AuthorName      string
	AuthorChannelID string
	Body            string
	ReceivedAt      time.Time
	PlatformTime    time.Time
	IsOwner         bool
	IsModerator     bool
	IsVerified      bool
	CreatedAt       time.Time
}

// MessageID builds the canonical primary key for a message belonging
// to videoID with platform id platformMessageID (spec §3).
func MessageID(videoID, platformMessageID string) string {
	return videoID + "#" + platformMessageID
}

// Encode serializes a Message into JSON.
func (m *Message) Encode() []byte {
	b, _ := json.Marshal(m)
	return b
}

// Decode deserializes a Message from JSON.
func (m *Message) Decode(b []byte) error {
	return json.Unmarshal(b, m)
}

// Copy copies m to dst, or returns a copy of m when dst is nil.
func (m *Message) Copy(dst store.Entity) (store.Entity, error) {
	var d *Message
	if dst == nil {
		d = new(Message)
	} else {
		var ok bool
		d, ok = dst.(*Message)
		if !ok {
			return nil, store.ErrWrongType
		}
	}
	*d = *m
	return d, nil
}

// GetCache returns nil: Messages are append-only and high-volume, so
// caching individual rows gives no benefit.
func (m *Message) GetCache() store.Cache {
	return nil
}

func messageKey(s store.Store, messageID string) *store.Key {
	return s.NameKey(typeMessage, messageID)
}

// PutMessages batch-writes msgs in chunks of store.MaxBatchSize,
// retrying each chunk's failed subset once; it returns an error at the
// first chunk that still has failures, leaving later chunks unwritten
// (spec §4.4's batch-write guarantee).
func PutMessages(ctx context.Context, s store.Store, msgs []*Message) error {
	for start := 0; start < len(msgs); start += store.MaxBatchSize {
		end := start + store.MaxBatchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		if err := putBatch(ctx, s, msgs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func putBatch(ctx context.Context, s store.Store, batch []*Message) error {
	keys := make([]*store.Key, len(batch))
	entities := make([]store.Entity, len(batch))
	for i, m := range batch {
		keys[i] = messageKey(s, m.MessageID)
		entities[i] = m
	}

	errs := s.BatchPut(ctx, keys, entities)
	var failedKeys []*store.Key
	var failedEntities []store.Entity
	var firstErr error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failedKeys = append(failedKeys, keys[i])
		failedEntities = append(failedEntities, entities[i])
		firstErr = err
	}
	if len(failedKeys) == 0 {
		return nil
	}

	retryErrs := s.BatchPut(ctx, failedKeys, failedEntities)
	for _, err := range retryErrs {
		if err != nil {
			return firstErr
		}
	}
	return nil
}

// GetMessagesByVideo returns every message for videoID in chronological
// order, using the (video_id, timestamp) index (spec §6.5).
func GetMessagesByVideo(ctx context.Context, s store.Store, videoID string) ([]Message, error) {
	q := s.NewQuery(typeMessage, false)
	q.Filter("VideoID=", videoID)
	q.Order("ReceivedAt")
	var msgs []Message
	_, err := s.GetAll(ctx, q, &msgs)
	return msgs, err
}

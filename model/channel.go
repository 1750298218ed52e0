/*
DESCRIPTION
  Channel type and functions.

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

// typeChannel is the store kind for Channel.
const typeChannel = "Channel"

// Channel is a watched YouTube channel. Channels are never hard
// deleted; IsActive=false is the only form of "deletion" and preserves
// the row so that historical Broadcasts still resolve.
type Channel struct {
	ChannelID       string // opaque platform id; also the Name key.
	DisplayName     string
	Description     string
	IsActive        bool
	SubscriberCount int64
	VideoCount      int64
	ViewCount       int64
	ThumbnailURL    string
	APIRetrievedAt  time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Encode serializes a Channel into JSON.
func (c *Channel) Encode() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Decode deserializes a Channel from JSON.
func (c *Channel) Decode(b []byte) error {
	return json.Unmarshal(b, c)
}

// Copy copies c to dst, or returns a copy of c when dst is nil.
func (c *Channel) Copy(dst store.Entity) (store.Entity, error) {
	var d *Channel
	if dst == nil {
		d = new(Channel)
	} else {
		var ok bool
		d, ok = dst.(*Channel)
		if !ok {
			return nil, store.ErrWrongType
		}
	}
	*d = *c
	return d, nil
}

var channelCache store.Cache = store.NewEntityCache()

// GetCache returns the Channel cache.
func (c *Channel) GetCache() store.Cache {
	return channelCache
}

func channelKey(s store.Store, channelID string) *store.Key {
	return s.NameKey(typeChannel, channelID)
}

// PutChannel creates or updates a channel.
func PutChannel(ctx context.Context, s store.Store, c *Channel) error {
	_, err := s.Put(ctx, channelKey(s, c.ChannelID), c)
	return err
}

// CreateChannel creates a channel, or returns store.ErrEntityExists if
// one with the same ChannelID already exists.
func CreateChannel(ctx context.Context, s store.Store, c *Channel) error {
	return s.Create(ctx, channelKey(s, c.ChannelID), c)
}

// GetChannel returns the channel with the given id.
func GetChannel(ctx context.Context, s store.Store, channelID string) (*Channel, error) {
	var c Channel
	if err := s.Get(ctx, channelKey(s, channelID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetActiveChannels returns every channel with IsActive=true. The
// Scanner and State Monitor must only ever operate on this set.
func GetActiveChannels(ctx context.Context, s store.Store) ([]Channel, error) {
	q := s.NewQuery(typeChannel, false)
	q.Filter("IsActive=", true)
	var channels []Channel
	_, err := s.GetAll(ctx, q, &channels)
	return channels, err
}

// GetAllChannels returns every channel, active or not.
func GetAllChannels(ctx context.Context, s store.Store) ([]Channel, error) {
	q := s.NewQuery(typeChannel, false)
	var channels []Channel
	_, err := s.GetAll(ctx, q, &channels)
	return channels, err
}

// SetChannelActive toggles IsActive, the only mutation a channel ever
// receives besides refreshing its cached statistics.
func SetChannelActive(ctx context.Context, s store.Store, channelID string, active bool) error {
	var dst Channel
	return s.Update(ctx, channelKey(s, channelID), func(e store.Entity) {
		ch := e.(*Channel)
		ch.IsActive = active
		ch.UpdatedAt = time.Now().UTC()
	}, &dst)
}

// RefreshChannelStats updates the cached platform statistics and
// ApiRetrievedAt timestamp, leaving everything else untouched.
func RefreshChannelStats(ctx context.Context, s store.Store, channelID string, subs, videos, views int64, thumb string) error {
	var dst Channel
	return s.Update(ctx, channelKey(s, channelID), func(e store.Entity) {
		ch := e.(*Channel)
		ch.SubscriberCount = subs
		ch.VideoCount = videos
		ch.ViewCount = views
		if thumb != "" {
			ch.ThumbnailURL = thumb
		}
		ch.APIRetrievedAt = time.Now().UTC()
		ch.UpdatedAt = ch.APIRetrievedAt
	}, &dst)
}

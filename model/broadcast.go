/*
DESCRIPTION
  Broadcast type and functions.

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

// typeBroadcast is the store kind for Broadcast.
const typeBroadcast = "Broadcast"

// Broadcast status values, forming the state machine of spec §8
// invariant 2: detected -> {upcoming,live,not_live,ended,unknown},
// upcoming -> {live,ended,not_live}, live -> ended. No transition out
// of Ended.
const (
	StatusDetected = "detected"
	StatusUpcoming = "upcoming"
	StatusLive     = "live"
	StatusEnded    = "ended"
	StatusNotLive  = "not_live"
	StatusUnknown  = "unknown"
)

// Broadcast is a single live-video session.
type Broadcast struct {
	VideoID           string // primary key.
	ChannelID         string
	Title             string
	Description       string
	Status            string
	ScheduledStart    time.Time
	ActualStart       time.Time
	ActualEnd         time.Time
	ConcurrentViewers int64
	PrivacyStatus     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsTerminal reports whether b's status excludes it from further
// State-Monitor polling (spec §4.2 selection rule).
func (b *Broadcast) IsTerminal() bool {
	switch b.Status {
	case StatusEnded, StatusNotLive, StatusUnknown:
		return true
	default:
		return false
	}
}

// Encode serializes a Broadcast into JSON.
func (b *Broadcast) Encode() []byte {
	bytes, _ := json.Marshal(b)
	return bytes
}

// Decode deserializes a Broadcast from JSON.
func (b *Broadcast) Decode(data []byte) error {
	return json.Unmarshal(data, b)
}

// Copy copies b to dst, or returns a copy of b when dst is nil.
func (b *Broadcast) Copy(dst store.Entity) (store.Entity, error) {
	var d *Broadcast
	if dst == nil {
		d = new(Broadcast)
	} else {
		var ok bool
		d, ok = dst.(*Broadcast)
		if !ok {
			return nil, store.ErrWrongType
		}
	}
	*d = *b
	return d, nil
}

var broadcastCache store.Cache = store.NewEntityCache()

// GetCache returns the Broadcast cache.
func (b *Broadcast) GetCache() store.Cache {
	return broadcastCache
}

func broadcastKey(s store.Store, videoID string) *store.Key {
	return s.NameKey(typeBroadcast, videoID)
}

// CreateBroadcast inserts a new Broadcast, or returns
// store.ErrEntityExists if video_id is already present — the
// conditional write the Scanner relies on for idempotent detection.
func CreateBroadcast(ctx context.Context, s store.Store, b *Broadcast) error {
	return s.Create(ctx, broadcastKey(s, b.VideoID), b)
}

// GetBroadcast returns the broadcast with the given video id.
func GetBroadcast(ctx context.Context, s store.Store, videoID string) (*Broadcast, error) {
	var b Broadcast
	if err := s.Get(ctx, broadcastKey(s, videoID), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetNonTerminalBroadcasts returns every Broadcast whose status is in
// {detected, upcoming, live} — the State Monitor's polling set
// (spec §4.2).
func GetNonTerminalBroadcasts(ctx context.Context, s store.Store) ([]Broadcast, error) {
	var out []Broadcast
	for _, status := range []string{StatusDetected, StatusUpcoming, StatusLive} {
		q := s.NewQuery(typeBroadcast, false)
		q.Filter("Status=", status)
		var batch []Broadcast
		if _, err := s.GetAll(ctx, q, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// GetBroadcastsByChannel returns every broadcast belonging to
// channelID, most recently created first.
func GetBroadcastsByChannel(ctx context.Context, s store.Store, channelID string) ([]Broadcast, error) {
	q := s.NewQuery(typeBroadcast, false)
	q.Filter("ChannelID=", channelID)
	q.Order("-CreatedAt")
	var broadcasts []Broadcast
	_, err := s.GetAll(ctx, q, &broadcasts)
	return broadcasts, err
}

// BroadcastUpdate carries the fields the State Monitor observed on one
// poll; zero-value fields are left untouched (never overwrite with
// empty, per spec §4.2).
type BroadcastUpdate struct {
	Status            string
	Title             string
	Description       string
	ConcurrentViewers int64
	PrivacyStatus     string
	ScheduledStart    time.Time
	ActualStart       time.Time
	ActualEnd         time.Time
}

// ApplyBroadcastUpdate transitions a Broadcast's status and refreshes
// its observed fields transactionally, leaving any zero-valued field
// in upd untouched on the stored record.
func ApplyBroadcastUpdate(ctx context.Context, s store.Store, videoID string, upd BroadcastUpdate) (*Broadcast, error) {
	var dst Broadcast
	err := s.Update(ctx, broadcastKey(s, videoID), func(e store.Entity) {
		b := e.(*Broadcast)
		if upd.Status != "" {
			b.Status = upd.Status
		}
		if upd.Title != "" {
			b.Title = upd.Title
		}
		if upd.Description != "" {
			b.Description = upd.Description
		}
		if upd.ConcurrentViewers != 0 {
			b.ConcurrentViewers = upd.ConcurrentViewers
		}
		if upd.PrivacyStatus != "" {
			b.PrivacyStatus = upd.PrivacyStatus
		}
		if !upd.ScheduledStart.IsZero() {
			b.ScheduledStart = upd.ScheduledStart
		}
		if !upd.ActualStart.IsZero() {
			b.ActualStart = upd.ActualStart
		}
		if !upd.ActualEnd.IsZero() {
			b.ActualEnd = upd.ActualEnd
		}
		b.UpdatedAt = time.Now().UTC()
	}, &dst)
	if err != nil {
		return nil, err
	}
	return &dst, nil
}

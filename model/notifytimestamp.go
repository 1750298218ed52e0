/*
DESCRIPTION
  NotifyTimestamp type and functions, used to throttle operator
  notifications (see notify.TimeStore).

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

// typeNotifyTimestamp is the store kind for NotifyTimestamp.
const typeNotifyTimestamp = "NotifyTimestamp"

// NotifyTimestamp records the last time a given notification kind was
// sent for a given id (typically a video_id), so callers can throttle
// repeat paging.
type NotifyTimestamp struct {
	NotifyKey string // kind + "." + id, primary key.
	SentAt    time.Time
}

func (n *NotifyTimestamp) Encode() []byte {
	b, _ := json.Marshal(n)
	return b
}

func (n *NotifyTimestamp) Decode(b []byte) error {
	return json.Unmarshal(b, n)
}

func (n *NotifyTimestamp) Copy(dst store.Entity) (store.Entity, error) {
	var d *NotifyTimestamp
	if dst == nil {
		d = new(NotifyTimestamp)
	} else {
		var ok bool
		d, ok = dst.(*NotifyTimestamp)
		if !ok {
			return nil, store.ErrWrongType
		}
	}
	*d = *n
	return d, nil
}

// GetCache returns nil: notification dedup state is read at most once
// per notify call, so caching buys nothing.
func (n *NotifyTimestamp) GetCache() store.Cache {
	return nil
}

func notifyTimestampKey(s store.Store, key string) *store.Key {
	return s.NameKey(typeNotifyTimestamp, key)
}

// GetNotifyTimestamp returns the NotifyTimestamp for key, or
// store.ErrNoSuchEntity if one was never written.
func GetNotifyTimestamp(ctx context.Context, s store.Store, key string) (*NotifyTimestamp, error) {
	var n NotifyTimestamp
	if err := s.Get(ctx, notifyTimestampKey(s, key), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// PutNotifyTimestamp records that a notification for key was sent at t.
func PutNotifyTimestamp(ctx context.Context, s store.Store, key string, t time.Time) error {
	n := &NotifyTimestamp{NotifyKey: key, SentAt: t}
	_, err := s.Put(ctx, notifyTimestampKey(s, key), n)
	return err
}

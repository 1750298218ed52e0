/*
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

package notify

import (
	"context"
	"errors"
	"time"

	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/store"
)

// storeTimeStore implements TimeStore backed by a store.Store,
// persisting send times as model.NotifyTimestamp rows so throttling
// survives across separately-scheduled control-loop invocations.
type storeTimeStore struct {
	store store.Store
}

// NewStore returns a TimeStore that persists notification send times
// in s.
func NewStore(s store.Store) TimeStore {
	return &storeTimeStore{store: s}
}

func (ts *storeTimeStore) Sendable(ctx context.Context, id string, period time.Duration, kind Kind) (bool, error) {
	n, err := model.GetNotifyTimestamp(ctx, ts.store, string(kind)+"."+id)
	switch {
	case err == nil:
		return time.Since(n.SentAt) >= period, nil
	case errors.Is(err, store.ErrNoSuchEntity):
		return true, nil
	default:
		return true, err
	}
}

func (ts *storeTimeStore) Sent(ctx context.Context, id string, kind Kind) error {
	return model.PutNotifyTimestamp(ctx, ts.store, string(kind)+"."+id, time.Now().UTC())
}

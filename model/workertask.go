/*
DESCRIPTION
  WorkerTask type and functions.

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

// typeWorkerTask is the store kind for WorkerTask.
const typeWorkerTask = "WorkerTask"

// WorkerTask status values.
const (
	TaskRunning    = "running"
	TaskCollecting = "collecting"
	TaskStopped    = "stopped"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// IsLive reports whether status denotes a worker that should have a
// live process in the Worker Runtime.
func IsLive(status string) bool {
	return status == TaskRunning || status == TaskCollecting
}

// WorkerTask tracks the collector process for one broadcast. At most
// one row exists per VideoID.
type WorkerTask struct {
	VideoID      string // primary key.
	ChannelID    string
	Status       string
	TaskHandle   string
	MessageCount int64
	StartedAt    time.Time
	UpdatedAt    time.Time
	StoppedAt    time.Time
	FinishedAt   time.Time
}

// Encode serializes a WorkerTask into JSON.
func (t *WorkerTask) Encode() []byte {
	b, _ := json.Marshal(t)
	return b
}

// Decode deserializes a WorkerTask from JSON.
func (t *WorkerTask) Decode(b []byte) error {
	return json.Unmarshal(b, t)
}

// Copy copies t to dst, or returns a copy of t when dst is nil.
func (t *WorkerTask) Copy(dst store.Entity) (store.Entity, error) {
	var d *WorkerTask
	if dst == nil {
		d = new(WorkerTask)
	} else {
		var ok bool
		d, ok = dst.(*WorkerTask)
		if !ok {
			return nil, store.ErrWrongType
		}
	}
	*d = *t
	return d, nil
}

var workerTaskCache store.Cache = store.NewEntityCache()

// GetCache returns the WorkerTask cache.
func (t *WorkerTask) GetCache() store.Cache {
	return workerTaskCache
}

func workerTaskKey(s store.Store, videoID string) *store.Key {
	return s.NameKey(typeWorkerTask, videoID)
}

// GetWorkerTask returns the WorkerTask for videoID, or
// store.ErrNoSuchEntity if none has ever been created.
func GetWorkerTask(ctx context.Context, s store.Store, videoID string) (*WorkerTask, error) {
	var t WorkerTask
	if err := s.Get(ctx, workerTaskKey(s, videoID), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// PutWorkerTask creates or overwrites a WorkerTask unconditionally.
func PutWorkerTask(ctx context.Context, s store.Store, t *WorkerTask) error {
	_, err := s.Put(ctx, workerTaskKey(s, t.VideoID), t)
	return err
}

// UpdateWorkerTask applies fn to the current (or zero-value, if absent)
// WorkerTask for videoID and writes the result back. Unlike
// store.Store.Update, this tolerates a missing row so the Dispatcher
// can upsert on first start without a separate existence check.
func UpdateWorkerTask(ctx context.Context, s store.Store, videoID string, fn func(*WorkerTask)) (*WorkerTask, error) {
	var dst WorkerTask
	err := s.Update(ctx, workerTaskKey(s, videoID), func(e store.Entity) {
		fn(e.(*WorkerTask))
	}, &dst)
	if err == store.ErrNoSuchEntity {
		dst = WorkerTask{VideoID: videoID}
		fn(&dst)
		if err := PutWorkerTask(ctx, s, &dst); err != nil {
			return nil, err
		}
		return &dst, nil
	}
	if err != nil {
		return nil, err
	}
	return &dst, nil
}

// IsWorkerHealthy reconciles the recorded WorkerTask against the set of
// task handles the Worker Runtime currently reports as running. It
// returns false (not healthy) if the task is absent, not in a live
// status, or its handle is not among runningHandles.
func IsWorkerHealthy(t *WorkerTask, runningHandles map[string]bool) bool {
	if t == nil || !IsLive(t.Status) {
		return false
	}
	return t.TaskHandle != "" && runningHandles[t.TaskHandle]
}

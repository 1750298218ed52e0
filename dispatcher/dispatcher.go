/*
DESCRIPTION
  Dispatcher business logic (spec §4.3, component C6): consumes Task
  Bus control messages and idempotently starts or stops Chat Collector
  Workers, double-checking the Worker Runtime before launching a
  duplicate.

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

// Package dispatcher implements the Dispatcher: it turns Task Bus
// control messages into Worker Runtime launch/stop calls.
package dispatcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/runtime"
	"github.com/chatwatch/cloud/store"
	"github.com/chatwatch/cloud/taskbus"
)

// Dispatcher turns Task Bus control messages into Worker Runtime calls.
// Environment is stamped into every launched worker's TaskSpec.
type Dispatcher struct {
	Store       store.Store
	Runtime     runtime.Runtime
	Environment string
	Now         func() time.Time
}

// New returns a Dispatcher wired to live dependencies.
func New(s store.Store, rt runtime.Runtime, environment string) *Dispatcher {
	return &Dispatcher{Store: s, Runtime: rt, Environment: environment, Now: time.Now}
}

// Handle processes a single Task Bus delivery, per spec §4.3. It never
// returns an error for a condition the spec calls a no-op; Task-Bus
// redelivery handles errors by simply retrying the same message.
func (d *Dispatcher) Handle(ctx context.Context, msg taskbus.Message) error {
	switch msg.Action {
	case taskbus.StartCollection:
		return d.start(ctx, msg.VideoID, msg.ChannelID)
	case taskbus.StopCollection:
		return d.stop(ctx, msg.VideoID)
	default:
		return fmt.Errorf("dispatcher: unknown action %q", msg.Action)
	}
}

func (d *Dispatcher) start(ctx context.Context, videoID, channelID string) error {
	t, err := model.GetWorkerTask(ctx, d.Store, videoID)
	if err != nil && err != store.ErrNoSuchEntity {
		return err
	}
	if err == nil && model.IsLive(t.Status) {
		return nil // already running; idempotent no-op.
	}

	tasks, err := d.Runtime.List(ctx)
	if err != nil {
		return err
	}
	for _, rt := range tasks {
		if rt.Running && rt.VideoID == videoID {
			_, err := model.UpdateWorkerTask(ctx, d.Store, videoID, func(wt *model.WorkerTask) {
				wt.ChannelID = channelID
				wt.Status = model.TaskCollecting
				wt.TaskHandle = rt.Handle
				wt.UpdatedAt = d.now()
			})
			return err
		}
	}

	launched, err := d.Runtime.Launch(ctx, runtime.TaskSpec{
		VideoID:     videoID,
		ChannelID:   channelID,
		Environment: d.Environment,
		Tags:        map[string]string{"VideoId": videoID, "ChannelId": channelID},
	})
	if err != nil {
		log.Printf("dispatcher: launch failed for %s: %v", videoID, err)
		return err
	}

	_, err = model.UpdateWorkerTask(ctx, d.Store, videoID, func(wt *model.WorkerTask) {
		wt.ChannelID = channelID
		wt.Status = model.TaskRunning
		wt.TaskHandle = launched.Handle
		wt.StartedAt = d.now()
		wt.UpdatedAt = d.now()
	})
	return err
}

func (d *Dispatcher) stop(ctx context.Context, videoID string) error {
	t, err := model.GetWorkerTask(ctx, d.Store, videoID)
	if err == store.ErrNoSuchEntity {
		return nil
	}
	if err != nil {
		return err
	}
	if !model.IsLive(t.Status) {
		return nil // already stopped/completed/failed; idempotent no-op.
	}

	if t.TaskHandle != "" {
		if err := d.Runtime.Stop(ctx, t.TaskHandle); err != nil {
			log.Printf("dispatcher: stop failed for %s: %v", videoID, err)
			return err
		}
	}

	_, err = model.UpdateWorkerTask(ctx, d.Store, videoID, func(wt *model.WorkerTask) {
		wt.Status = model.TaskStopped
		wt.StoppedAt = d.now()
		wt.UpdatedAt = d.now()
	})
	return err
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

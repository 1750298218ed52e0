/*
DESCRIPTION
  State Monitor business logic (spec §4.2, component C5): the
  authoritative owner of Broadcast.status. Polls non-terminal
  broadcasts against the video-platform control API, applies status
  transitions, reconciles WorkerTask state against the Worker Runtime,
  and emits Task Bus control messages on start/stop transitions.

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

// Package statemon implements the State Monitor: it owns Broadcast
// status transitions and drives worker start/stop via the Task Bus.
package statemon

import (
	"context"
	"log"
	"time"

	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/runtime"
	"github.com/chatwatch/cloud/store"
	"github.com/chatwatch/cloud/taskbus"
	"github.com/chatwatch/cloud/youtubeapi"
)

// StatusGetter is the subset of youtubeapi.Client the State Monitor
// needs, narrowed so tests can substitute a fake.
type StatusGetter interface {
	GetVideoStatus(ctx context.Context, videoID string) (*youtubeapi.VideoStatus, error)
}

// Monitor runs one tick of the State Monitor.
type Monitor struct {
	Store   store.Store
	Client  StatusGetter
	Runtime runtime.Runtime
	Bus     taskbus.Bus
	Now     func() time.Time
}

// New returns a Monitor wired to live dependencies.
func New(s store.Store, c *youtubeapi.Client, rt runtime.Runtime, bus taskbus.Bus) *Monitor {
	return &Monitor{Store: s, Client: c, Runtime: rt, Bus: bus, Now: time.Now}
}

// Result summarizes one Tick.
type Result struct {
	Polled  int
	Started int
	Stopped int
}

// Tick polls every non-terminal broadcast on an active channel and
// applies spec §4.2's status-transition, reconciliation and dispatch
// logic. Per-broadcast failures are logged and skipped.
func (m *Monitor) Tick(ctx context.Context) (Result, error) {
	channels, err := model.GetActiveChannels(ctx, m.Store)
	if err != nil {
		return Result{}, err
	}
	active := make(map[string]bool, len(channels))
	for _, ch := range channels {
		active[ch.ChannelID] = true
	}

	broadcasts, err := model.GetNonTerminalBroadcasts(ctx, m.Store)
	if err != nil {
		return Result{}, err
	}

	runningHandles, err := m.runningHandles(ctx)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, b := range broadcasts {
		if !active[b.ChannelID] {
			continue
		}
		res.Polled++
		started, stopped, err := m.pollOne(ctx, b, runningHandles)
		if err != nil {
			log.Printf("statemon: broadcast %s: %v", b.VideoID, err)
			continue
		}
		if started {
			res.Started++
		}
		if stopped {
			res.Stopped++
		}
	}
	return res, nil
}

func (m *Monitor) runningHandles(ctx context.Context) (map[string]bool, error) {
	tasks, err := m.Runtime.List(ctx)
	if err != nil {
		return nil, err
	}
	handles := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.Running {
			handles[t.Handle] = true
		}
	}
	return handles, nil
}

// pollOne applies one broadcast's per-tick step: fetch status, apply
// the transition, reconcile its worker, and dispatch start/stop.
func (m *Monitor) pollOne(ctx context.Context, b model.Broadcast, runningHandles map[string]bool) (started, stopped bool, err error) {
	status, err := m.Client.GetVideoStatus(ctx, b.VideoID)
	if err != nil {
		return false, false, err
	}

	prevStatus := b.Status
	newStatus := status.ClassifyStatus()

	updated, err := model.ApplyBroadcastUpdate(ctx, m.Store, b.VideoID, model.BroadcastUpdate{
		Status:            newStatus,
		Title:             status.Title,
		ConcurrentViewers: status.ConcurrentViewers,
		PrivacyStatus:     status.PrivacyStatus,
		ScheduledStart:    status.ScheduledStartTime,
		ActualStart:       status.ActualStartTime,
		ActualEnd:         status.ActualEndTime,
	})
	if err != nil {
		return false, false, err
	}

	healthy, err := m.reconcile(ctx, updated.VideoID, runningHandles)
	if err != nil {
		return false, false, err
	}

	if updated.Status == model.StatusLive && !healthy {
		if err := m.Bus.Send(ctx, taskbus.Message{
			Action:    taskbus.StartCollection,
			VideoID:   updated.VideoID,
			ChannelID: updated.ChannelID,
			Timestamp: m.now(),
		}); err != nil {
			return false, false, err
		}
		started = true
	}

	if prevStatus == model.StatusLive && updated.Status == model.StatusEnded {
		if err := m.Bus.Send(ctx, taskbus.Message{
			Action:    taskbus.StopCollection,
			VideoID:   updated.VideoID,
			ChannelID: updated.ChannelID,
			Timestamp: m.now(),
		}); err != nil {
			return false, false, err
		}
		stopped = true
	}

	return started, stopped, nil
}

// reconcile implements spec §4.2's per-tick reconciliation: a
// WorkerTask claiming to be live is only trusted if the Worker Runtime
// confirms its handle is actually running; otherwise it is marked
// stopped so the next step treats the broadcast as workerless.
func (m *Monitor) reconcile(ctx context.Context, videoID string, runningHandles map[string]bool) (healthy bool, err error) {
	t, err := model.GetWorkerTask(ctx, m.Store, videoID)
	if err == store.ErrNoSuchEntity {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if model.IsWorkerHealthy(t, runningHandles) {
		return true, nil
	}

	if model.IsLive(t.Status) {
		if _, err := model.UpdateWorkerTask(ctx, m.Store, videoID, func(wt *model.WorkerTask) {
			wt.Status = model.TaskStopped
			wt.StoppedAt = m.now()
			wt.UpdatedAt = m.now()
		}); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

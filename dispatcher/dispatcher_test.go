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

package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/runtime/memrt"
	"github.com/chatwatch/cloud/store/memstore"
	"github.com/chatwatch/cloud/taskbus"
)

func TestStartLaunchesNewWorker(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rt := memrt.New()
	d := New(s, rt, "dev")

	require.NoError(t, d.Handle(ctx, taskbus.Message{Action: taskbus.StartCollection, VideoID: "v1", ChannelID: "c1"}))

	wt, err := model.GetWorkerTask(ctx, s, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskRunning, wt.Status)
	assert.NotEmpty(t, wt.TaskHandle)

	tasks, err := rt.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestStartIsIdempotentWhenAlreadyRunning(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rt := memrt.New()
	d := New(s, rt, "dev")

	require.NoError(t, d.Handle(ctx, taskbus.Message{Action: taskbus.StartCollection, VideoID: "v1", ChannelID: "c1"}))
	require.NoError(t, d.Handle(ctx, taskbus.Message{Action: taskbus.StartCollection, VideoID: "v1", ChannelID: "c1"}))

	tasks, err := rt.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1) // second start must not launch a duplicate.
}

func TestStopStopsRunningWorker(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rt := memrt.New()
	d := New(s, rt, "dev")

	require.NoError(t, d.Handle(ctx, taskbus.Message{Action: taskbus.StartCollection, VideoID: "v1", ChannelID: "c1"}))
	require.NoError(t, d.Handle(ctx, taskbus.Message{Action: taskbus.StopCollection, VideoID: "v1", ChannelID: "c1"}))

	wt, err := model.GetWorkerTask(ctx, s, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStopped, wt.Status)

	tasks, err := rt.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Running)
}

func TestStopIsNoOpWhenNoWorkerTask(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rt := memrt.New()
	d := New(s, rt, "dev")

	assert.NoError(t, d.Handle(ctx, taskbus.Message{Action: taskbus.StopCollection, VideoID: "ghost", ChannelID: "c1"}))
}

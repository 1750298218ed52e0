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

package statemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/runtime"
	"github.com/chatwatch/cloud/runtime/memrt"
	"github.com/chatwatch/cloud/store/memstore"
	"github.com/chatwatch/cloud/taskbus"
	"github.com/chatwatch/cloud/taskbus/membus"
	"github.com/chatwatch/cloud/youtubeapi"
)

func init() { model.RegisterEntities() }

type fakeStatusGetter struct {
	status map[string]*youtubeapi.VideoStatus
}

func (f *fakeStatusGetter) GetVideoStatus(ctx context.Context, videoID string) (*youtubeapi.VideoStatus, error) {
	return f.status[videoID], nil
}

func rtSpec(videoID, channelID string) runtime.TaskSpec {
	return runtime.TaskSpec{VideoID: videoID, ChannelID: channelID}
}

func TestTickStartsNewlyLiveBroadcast(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rt := memrt.New()
	bus := membus.New(4)

	now := time.Now().UTC()
	require.NoError(t, model.CreateChannel(ctx, s, &model.Channel{ChannelID: "c1", IsActive: true}))
	require.NoError(t, model.CreateBroadcast(ctx, s, &model.Broadcast{
		VideoID: "v1", ChannelID: "c1", Status: model.StatusUpcoming,
	}))

	mon := &Monitor{
		Store:   s,
		Client:  &fakeStatusGetter{status: map[string]*youtubeapi.VideoStatus{"v1": {LiveBroadcastContent: "live"}}},
		Runtime: rt,
		Bus:     bus,
		Now:     func() time.Time { return now },
	}

	res, err := mon.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Polled)
	assert.Equal(t, 1, res.Started)

	b, err := model.GetBroadcast(ctx, s, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusLive, b.Status)

	received := make(chan taskbus.Message, 1)
	go bus.Receive(ctx, func(_ context.Context, d taskbus.Delivery) error {
		received <- d.Message
		return nil
	})
	select {
	case msg := <-received:
		assert.Equal(t, taskbus.StartCollection, msg.Action)
		assert.Equal(t, "v1", msg.VideoID)
	case <-time.After(time.Second):
		t.Fatal("expected a start_collection message")
	}
}

func TestTickDoesNotRestartHealthyWorker(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rt := memrt.New()
	bus := membus.New(4)

	require.NoError(t, model.CreateChannel(ctx, s, &model.Channel{ChannelID: "c1", IsActive: true}))
	require.NoError(t, model.CreateBroadcast(ctx, s, &model.Broadcast{
		VideoID: "v1", ChannelID: "c1", Status: model.StatusLive,
	}))

	mon := &Monitor{
		Store:   s,
		Client:  &fakeStatusGetter{status: map[string]*youtubeapi.VideoStatus{"v1": {LiveBroadcastContent: "live"}}},
		Runtime: rt,
		Bus:     bus,
		Now:     time.Now,
	}

	launched, err := rt.Launch(ctx, rtSpec("v1", "c1"))
	require.NoError(t, err)
	require.NoError(t, model.PutWorkerTask(ctx, s, &model.WorkerTask{
		VideoID: "v1", ChannelID: "c1", Status: model.TaskCollecting, TaskHandle: launched.Handle,
	}))

	res, err := mon.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Started)
}

func TestTickEmitsStopOnLiveToEnded(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rt := memrt.New()
	bus := membus.New(4)

	require.NoError(t, model.CreateChannel(ctx, s, &model.Channel{ChannelID: "c1", IsActive: true}))
	require.NoError(t, model.CreateBroadcast(ctx, s, &model.Broadcast{
		VideoID: "v1", ChannelID: "c1", Status: model.StatusLive,
	}))

	mon := &Monitor{
		Store:   s,
		Client:  &fakeStatusGetter{status: map[string]*youtubeapi.VideoStatus{"v1": {LiveBroadcastContent: "none", ActualEndTime: time.Now()}}},
		Runtime: rt,
		Bus:     bus,
		Now:     time.Now,
	}

	res, err := mon.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stopped)

	b, err := model.GetBroadcast(ctx, s, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnded, b.Status)
}

func TestTickSkipsBroadcastOnInactiveChannel(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rt := memrt.New()
	bus := membus.New(4)

	require.NoError(t, model.CreateChannel(ctx, s, &model.Channel{ChannelID: "c1", IsActive: false}))
	require.NoError(t, model.CreateBroadcast(ctx, s, &model.Broadcast{
		VideoID: "v1", ChannelID: "c1", Status: model.StatusUpcoming,
	}))

	mon := &Monitor{
		Store:   s,
		Client:  &fakeStatusGetter{status: map[string]*youtubeapi.VideoStatus{"v1": {LiveBroadcastContent: "live"}}},
		Runtime: rt,
		Bus:     bus,
		Now:     time.Now,
	}

	res, err := mon.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Polled)
	assert.Equal(t, 0, res.Started)

	b, err := model.GetBroadcast(ctx, s, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUpcoming, b.Status)
}

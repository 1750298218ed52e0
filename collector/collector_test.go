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

package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/store/memstore"
	"github.com/chatwatch/cloud/youtubeapi"
)

func init() { model.RegisterEntities() }

// fakeChatSource serves a fixed sequence of poll batches, then reports
// itself dead.
type fakeChatSource struct {
	mu         sync.Mutex
	batches    [][]youtubeapi.ChatMessage
	pollErr    error
	alive      bool
	terminated bool
}

func newFakeChatSource(batches [][]youtubeapi.ChatMessage) *fakeChatSource {
	return &fakeChatSource{batches: batches, alive: true}
}

func (f *fakeChatSource) IsAlive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeChatSource) Poll(ctx context.Context) ([]youtubeapi.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollErr != nil {
		err := f.pollErr
		f.pollErr = nil
		return nil, err
	}
	if len(f.batches) == 0 {
		f.alive = false
		return nil, nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	if len(f.batches) == 0 {
		f.alive = false
	}
	return next, nil
}

func (f *fakeChatSource) Terminate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = true
	f.alive = false
}

func noSleep(time.Duration) {}

func chatMsg(id, body string) youtubeapi.ChatMessage {
	return youtubeapi.ChatMessage{ID: id, Body: body, AuthorName: "alice", DateTime: "2026-07-31T00:00:00Z"}
}

func TestRunCollectsAndCompletesWorkerTask(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	w := New(s, "v1", "c1")
	w.Sleep = noSleep

	src := newFakeChatSource([][]youtubeapi.ChatMessage{
		{chatMsg("m1", "hello"), chatMsg("m2", "world")},
	})

	require.NoError(t, w.Run(ctx, src))

	msgs, err := model.GetMessagesByVideo(ctx, s, "v1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	wt, err := model.GetWorkerTask(ctx, s, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, wt.Status)
	assert.EqualValues(t, 2, wt.MessageCount)
	assert.True(t, src.terminated)
}

func TestRunFlushesOnBatchBoundary(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	w := New(s, "v1", "c1")
	w.Sleep = noSleep

	var batch []youtubeapi.ChatMessage
	for i := 0; i < BatchSize+3; i++ {
		batch = append(batch, chatMsg(string(rune('a'+i%26))+"-msg", "hi"))
	}

	src := newFakeChatSource([][]youtubeapi.ChatMessage{batch})
	require.NoError(t, w.Run(ctx, src))

	wt, err := model.GetWorkerTask(ctx, s, "v1")
	require.NoError(t, err)
	assert.EqualValues(t, BatchSize+3, wt.MessageCount)
}

func TestRunContinuesAfterPollError(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	w := New(s, "v1", "c1")
	w.Sleep = noSleep

	src := newFakeChatSource([][]youtubeapi.ChatMessage{
		{chatMsg("m1", "hello")},
	})
	src.pollErr = errors.New("transient network error")

	require.NoError(t, w.Run(ctx, src))

	wt, err := model.GetWorkerTask(ctx, s, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, wt.Status)
	assert.EqualValues(t, 1, wt.MessageCount)
}

func TestRunEmitsHeartbeat(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	w := New(s, "v1", "c1")
	w.Sleep = noSleep

	tick := 0
	w.Now = func() time.Time {
		tick++
		return time.Unix(0, 0).Add(time.Duration(tick) * HeartbeatInterval)
	}

	src := newFakeChatSource([][]youtubeapi.ChatMessage{
		{chatMsg("m1", "hello")},
		{chatMsg("m2", "world")},
	})

	require.NoError(t, w.Run(ctx, src))

	wt, err := model.GetWorkerTask(ctx, s, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, wt.Status)
	assert.EqualValues(t, 2, wt.MessageCount)
}

// fakeConnector fails the first n calls, then succeeds.
type fakeConnector struct {
	failures int
	calls    int
	src      youtubeapi.LiveChatSource
}

func (f *fakeConnector) Connect(ctx context.Context, videoID string) (youtubeapi.LiveChatSource, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("chat not yet available")
	}
	return f.src, nil
}

func TestConnectRetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	w := New(s, "v1", "c1")
	w.Sleep = noSleep

	conn := &fakeConnector{failures: 2, src: newFakeChatSource(nil)}
	src, err := w.Connect(ctx, conn)
	require.NoError(t, err)
	assert.NotNil(t, src)
	assert.Equal(t, 3, conn.calls)
}

func TestConnectMarksTaskFailedAfterExhaustingRetries(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	w := New(s, "v1", "c1")
	w.Sleep = noSleep

	conn := &fakeConnector{failures: MaxConnectAttempts}
	_, err := w.Connect(ctx, conn)
	require.Error(t, err)
	assert.Equal(t, MaxConnectAttempts, conn.calls)

	wt, err2 := model.GetWorkerTask(ctx, s, "v1")
	require.NoError(t, err2)
	assert.Equal(t, model.TaskFailed, wt.Status)
}

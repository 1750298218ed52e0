/*
DESCRIPTION
  Chat Collector Worker business logic (spec §4.4, component C7): a
  long-running process that connects to one broadcast's live chat,
  buffers and batch-writes messages, and maintains WorkerTask
  heartbeat/lifecycle state.

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

// Package collector implements the Chat Collector Worker: it owns one
// broadcast's live chat for the lifetime of the stream.
package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/store"
	"github.com/chatwatch/cloud/youtubeapi"
)

// Tunables from spec §4.4.
const (
	MaxConnectAttempts = 3
	ConnectBackoff     = 5 * time.Second
	BatchSize          = 25
	HeartbeatInterval  = 30 * time.Second
	MinPollInterval    = 1 * time.Second
	MaxPollInterval    = 2 * time.Second
)

// Connector resolves a broadcast's live chat, narrowed from
// youtubeapi.NewLiveChatSource so tests can substitute a fake.
type Connector interface {
	Connect(ctx context.Context, videoID string) (youtubeapi.LiveChatSource, error)
}

// clientConnector adapts a *youtubeapi.Client to Connector.
type clientConnector struct {
	client *youtubeapi.Client
}

func (c clientConnector) Connect(ctx context.Context, videoID string) (youtubeapi.LiveChatSource, error) {
	return youtubeapi.NewLiveChatSource(ctx, c.client, videoID)
}

// Worker runs the collection loop for one broadcast.
type Worker struct {
	Store     store.Store
	VideoID   string
	ChannelID string
	Now       func() time.Time
	Sleep     func(time.Duration)
}

// New returns a Worker for videoID/channelID against s.
func New(s store.Store, videoID, channelID string) *Worker {
	return &Worker{Store: s, VideoID: videoID, ChannelID: channelID, Now: time.Now, Sleep: time.Sleep}
}

// NewConnector adapts c into the Connector Connect expects.
func NewConnector(c *youtubeapi.Client) Connector {
	return clientConnector{client: c}
}

// Connect opens videoID's live chat, retrying up to MaxConnectAttempts
// times with ConnectBackoff between attempts (spec §4.4 step 1). On
// exhaustion it marks the WorkerTask failed and returns the last error.
func (w *Worker) Connect(ctx context.Context, conn Connector) (youtubeapi.LiveChatSource, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxConnectAttempts; attempt++ {
		src, err := conn.Connect(ctx, w.VideoID)
		if err == nil {
			return src, nil
		}
		lastErr = err
		log.Printf("collector: connect attempt %d/%d for %s: %v", attempt, MaxConnectAttempts, w.VideoID, err)
		if attempt < MaxConnectAttempts {
			w.sleep(ConnectBackoff)
		}
	}

	if _, err := model.UpdateWorkerTask(ctx, w.Store, w.VideoID, func(t *model.WorkerTask) {
		t.ChannelID = w.ChannelID
		t.Status = model.TaskFailed
		t.FinishedAt = w.now()
		t.UpdatedAt = w.now()
	}); err != nil {
		log.Printf("collector: record connect failure for %s: %v", w.VideoID, err)
	}
	return nil, fmt.Errorf("collector: exhausted %d connect attempts: %w", MaxConnectAttempts, lastErr)
}

// Run executes the full collection lifecycle against an already
// connected source: record start, poll until the source reports itself
// no longer alive, flush on batch/heartbeat boundaries, then shut down
// (spec §4.4 steps 2-4).
func (w *Worker) Run(ctx context.Context, src youtubeapi.LiveChatSource) error {
	if _, err := model.UpdateWorkerTask(ctx, w.Store, w.VideoID, func(t *model.WorkerTask) {
		t.ChannelID = w.ChannelID
		t.Status = model.TaskCollecting
		t.MessageCount = 0
		t.StartedAt = w.now()
		t.UpdatedAt = w.now()
	}); err != nil {
		return fmt.Errorf("collector: record start: %w", err)
	}

	var (
		buf           []*model.Message
		total         int64
		lastHeartbeat = w.now()
	)

	for src.IsAlive() {
		select {
		case <-ctx.Done():
			w.abort(context.Background(), buf, total)
			return ctx.Err()
		default:
		}

		msgs, err := src.Poll(ctx)
		if err != nil {
			log.Printf("collector: poll error for %s: %v", w.VideoID, err)
			w.sleep(MaxPollInterval)
			continue
		}

		for _, m := range msgs {
			buf = append(buf, w.toMessage(m))
			if len(buf) >= BatchSize {
				n, err := w.flush(ctx, buf)
				total += n
				buf = nil
				if err != nil {
					log.Printf("collector: flush error for %s: %v", w.VideoID, err)
				}
			}
		}

		if w.now().Sub(lastHeartbeat) >= HeartbeatInterval {
			if err := w.heartbeat(ctx, total); err != nil {
				log.Printf("collector: heartbeat error for %s: %v", w.VideoID, err)
			}
			lastHeartbeat = w.now()
		}

		w.sleep(MaxPollInterval)
	}

	src.Terminate()

	if len(buf) > 0 {
		n, err := w.flush(ctx, buf)
		total += n
		if err != nil {
			log.Printf("collector: final flush error for %s: %v", w.VideoID, err)
		}
	}

	_, err := model.UpdateWorkerTask(ctx, w.Store, w.VideoID, func(t *model.WorkerTask) {
		t.Status = model.TaskCompleted
		t.MessageCount = total
		t.FinishedAt = w.now()
		t.UpdatedAt = w.now()
	})
	return err
}

// abort is the best-effort shutdown path for a fatal/cancelled run: it
// flushes whatever is buffered and marks the WorkerTask failed without
// propagating a flush error (spec §4.4 step 5).
func (w *Worker) abort(ctx context.Context, buf []*model.Message, total int64) {
	if len(buf) > 0 {
		n, err := w.flush(ctx, buf)
		total += n
		if err != nil {
			log.Printf("collector: abort flush error for %s: %v", w.VideoID, err)
		}
	}
	if _, err := model.UpdateWorkerTask(ctx, w.Store, w.VideoID, func(t *model.WorkerTask) {
		t.Status = model.TaskFailed
		t.MessageCount = total
		t.FinishedAt = w.now()
		t.UpdatedAt = w.now()
	}); err != nil {
		log.Printf("collector: record abort for %s: %v", w.VideoID, err)
	}
}

// flush batch-writes buf and returns len(buf), or 0 with the error if
// any write fails, even when part of buf was written (model.PutMessages already retries the failed
// subset once internally, per spec §4.4's batch-write guarantee).
func (w *Worker) flush(ctx context.Context, buf []*model.Message) (int64, error) {
	if err := model.PutMessages(ctx, w.Store, buf); err != nil {
		return 0, err
	}
	return int64(len(buf)), nil
}

func (w *Worker) heartbeat(ctx context.Context, messageCount int64) error {
	_, err := model.UpdateWorkerTask(ctx, w.Store, w.VideoID, func(t *model.WorkerTask) {
		t.MessageCount = messageCount
		t.UpdatedAt = w.now()
	})
	return err
}

func (w *Worker) toMessage(cm youtubeapi.ChatMessage) *model.Message {
	platformTime, _ := time.Parse(time.RFC3339, cm.DateTime)
	return &model.Message{
		MessageID:       model.MessageID(w.VideoID, cm.ID),
		VideoID:         w.VideoID,
		ChannelID:       w.ChannelID,
		AuthorName:      cm.AuthorName,
		AuthorChannelID: cm.AuthorChannelID,
		Body:            cm.Body,
		ReceivedAt:      w.now(),
		PlatformTime:    platformTime,
		IsOwner:         cm.IsOwner,
		IsModerator:     cm.IsModerator,
		IsVerified:      cm.IsVerified,
		CreatedAt:       w.now(),
	}
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) sleep(d time.Duration) {
	if w.Sleep != nil {
		w.Sleep(d)
		return
	}
	time.Sleep(d)
}

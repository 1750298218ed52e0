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

package membus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwatch/cloud/taskbus"
)

func TestSendReceive(t *testing.T) {
	b := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	want := taskbus.Message{Action: taskbus.StartCollection, VideoID: "v1", ChannelID: "c1"}
	require.NoError(t, b.Send(ctx, want))

	received := make(chan taskbus.Message, 1)
	go b.Receive(ctx, func(_ context.Context, d taskbus.Delivery) error {
		received <- d.Message
		cancel()
		return nil
	})

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestReceiveStopsOnHandlerError(t *testing.T) {
	b := New(4)
	ctx := context.Background()
	require.NoError(t, b.Send(ctx, taskbus.Message{VideoID: "v1"}))

	boom := errors.New("boom")
	err := b.Receive(ctx, func(context.Context, taskbus.Delivery) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestSendRespectsCancellation(t *testing.T) {
	b := New(1)
	ctx := context.Background()
	require.NoError(t, b.Send(ctx, taskbus.Message{VideoID: "v1"})) // fills the buffer

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Send(cctx, taskbus.Message{VideoID: "v2"})
	assert.ErrorIs(t, err, context.Canceled)
}

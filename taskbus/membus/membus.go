/*
DESCRIPTION
  In-memory taskbus.Bus fake, for tests and for single-process
  deployments that don't need a real Pub/Sub topic.

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

// Package membus implements taskbus.Bus with a buffered Go channel.
package membus

import (
	"context"

	"github.com/chatwatch/cloud/taskbus"
)

// DefaultCapacity is the buffer size used by New.
const DefaultCapacity = 64

// Bus is an in-memory, single-process taskbus.Bus.
type Bus struct {
	ch chan taskbus.Message
}

// New returns a Bus with the given channel capacity.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ch: make(chan taskbus.Message, capacity)}
}

// Send enqueues msg, blocking if the buffer is full until ctx is
// cancelled.
func (b *Bus) Send(ctx context.Context, msg taskbus.Message) error {
	select {
	case b.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive dequeues messages, invoking handle for each, until ctx is
// cancelled or handle returns an error. Ack/Nack are no-ops: a dropped
// message on this bus is simply lost, matching its best-effort,
// single-process use.
func (b *Bus) Receive(ctx context.Context, handle func(context.Context, taskbus.Delivery) error) error {
	for {
		select {
		case msg := <-b.ch:
			d := taskbus.Delivery{Message: msg, Ack: func() {}, Nack: func() {}}
			if err := handle(ctx, d); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

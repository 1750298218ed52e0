/*
DESCRIPTION
  Task Bus abstraction (spec §4.3, §6.4): the decoupling point between
  the State Monitor, which detects start/stop conditions, and the
  Dispatcher, which acts on them.

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

// Package taskbus defines the control-message queue carrying start/stop
// instructions from the State Monitor to the Dispatcher.
package taskbus

import (
	"context"
	"time"
)

// Action names the control instruction a Message carries.
type Action string

const (
	StartCollection Action = "start_collection"
	StopCollection  Action = "stop_collection"
)

// Message is one control instruction (spec §6.4's wire shape).
type Message struct {
	Action    Action
	VideoID   string
	ChannelID string
	Timestamp time.Time
}

// Delivery wraps a received Message with the bus-specific handle needed
// to acknowledge or reject it.
type Delivery struct {
	Message Message
	Ack     func()
	Nack    func()
}

// Bus is the narrow send/receive contract the State Monitor and
// Dispatcher depend on; concrete backends live in subpackages.
type Bus interface {
	// Send enqueues msg for delivery to Dispatcher consumers.
	Send(ctx context.Context, msg Message) error

	// Receive blocks, invoking handle for each delivered message, until
	// ctx is cancelled or handle returns a non-nil error.
	Receive(ctx context.Context, handle func(context.Context, Delivery) error) error
}

/*
DESCRIPTION
  Worker Runtime abstraction (spec §4.5, §9): launches, stops and lists
  the isolated collector-worker processes the Dispatcher manages.

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

// Package runtime defines the abstract worker-process control plane
// the Dispatcher uses to launch, stop and reconcile collector workers.
package runtime

import "context"

// TaskSpec describes a worker process to launch.
type TaskSpec struct {
	VideoID     string
	ChannelID   string
	Environment string
	Tags        map[string]string
}

// Task is a running (or recently running) worker process handle.
type Task struct {
	Handle    string // opaque runtime-specific identifier (ARN, container ID, ...)
	VideoID   string
	ChannelID string
	Running   bool
}

// Runtime is the narrow launch/stop/list contract the Dispatcher and
// State Monitor reconciliation depend on; concrete backends live in
// subpackages.
type Runtime interface {
	// Launch starts a worker process per spec and returns its handle.
	Launch(ctx context.Context, spec TaskSpec) (Task, error)

	// Stop terminates the worker process identified by handle.
	Stop(ctx context.Context, handle string) error

	// List returns every worker process this runtime knows about,
	// running or not (Task.Running tells which), for
	// Dispatcher/State-Monitor reconciliation against recorded
	// WorkerTask rows.
	List(ctx context.Context) ([]Task, error)
}

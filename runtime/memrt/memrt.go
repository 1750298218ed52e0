/*
DESCRIPTION
  In-memory runtime.Runtime fake, for dispatcher/state-monitor
  reconciliation tests that don't need a real container or task
  backend.

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

// Package memrt implements runtime.Runtime with an in-memory map.
package memrt

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/chatwatch/cloud/runtime"
)

// Runtime is an in-memory, single-process runtime.Runtime.
type Runtime struct {
	mu    sync.Mutex
	tasks map[string]runtime.Task
}

// New returns an empty Runtime.
func New() *Runtime {
	return &Runtime{tasks: make(map[string]runtime.Task)}
}

// Launch records a new Task under a generated handle.
func (r *Runtime) Launch(ctx context.Context, spec runtime.TaskSpec) (runtime.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := runtime.Task{
		Handle:    uuid.NewString(),
		VideoID:   spec.VideoID,
		ChannelID: spec.ChannelID,
		Running:   true,
	}
	r.tasks[t.Handle] = t
	return t, nil
}

// Stop marks the task as no longer running.
func (r *Runtime) Stop(ctx context.Context, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[handle]
	if !ok {
		return fmt.Errorf("memrt: unknown handle %q", handle)
	}
	t.Running = false
	r.tasks[handle] = t
	return nil
}

// List returns every task this runtime knows about, running or not.
func (r *Runtime) List(ctx context.Context) ([]runtime.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]runtime.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	return tasks, nil
}

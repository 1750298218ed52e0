/*
DESCRIPTION
  Docker-backed runtime.Runtime: launches collector-worker containers
  instead of ECS Fargate tasks, tagged with the video/channel id pair so
  List can reconcile against recorded WorkerTask rows.

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

// Package dockerrt implements runtime.Runtime by launching collector
// worker containers against a local or remote Docker daemon.
package dockerrt

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"

	"github.com/chatwatch/cloud/runtime"
)

// videoLabel tags a launched container with its video id so List can
// recover TaskSpec.VideoID without a side table.
const (
	videoLabel   = "cloud.chatwatch.video-id"
	channelLabel = "cloud.chatwatch.channel-id"
	taskLabel    = "cloud.chatwatch.managed"
)

// Config selects the image and resource limits used for launched
// containers.
type Config struct {
	Image     string
	MemoryMiB int64
	CPUShares int64
}

// Runtime launches collector workers as Docker containers.
type Runtime struct {
	cli *client.Client
	cfg Config
}

// New returns a Runtime using the Docker client configuration taken
// from the environment (DOCKER_HOST, DOCKER_CERT_PATH, ...).
func New(cfg Config) (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("dockerrt: new client: %w", err)
	}
	return &Runtime{cli: cli, cfg: cfg}, nil
}

// Launch starts a container running spec's collector worker.
func (r *Runtime) Launch(ctx context.Context, spec runtime.TaskSpec) (runtime.Task, error) {
	env := []string{
		"VIDEO_ID=" + spec.VideoID,
		"CHANNEL_ID=" + spec.ChannelID,
		"ENVIRONMENT=" + spec.Environment,
	}

	labels := map[string]string{
		taskLabel:    "true",
		videoLabel:   spec.VideoID,
		channelLabel: spec.ChannelID,
	}
	for k, v := range spec.Tags {
		labels[k] = v
	}

	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:    r.cfg.MemoryMiB * units.MiB,
			CPUShares: r.cfg.CPUShares,
		},
		AutoRemove: false,
	}

	resp, err := r.cli.ContainerCreate(ctx, &container.Config{
		Image:        r.cfg.Image,
		Env:          env,
		Labels:       labels,
		ExposedPorts: nat.PortSet{},
	}, hostCfg, nil, nil, "")
	if err != nil {
		return runtime.Task{}, fmt.Errorf("dockerrt: create container for %s: %w", spec.VideoID, err)
	}

	if err := r.cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return runtime.Task{}, fmt.Errorf("dockerrt: start container for %s: %w", spec.VideoID, err)
	}

	return runtime.Task{Handle: resp.ID, VideoID: spec.VideoID, ChannelID: spec.ChannelID, Running: true}, nil
}

// Stop stops and removes the container identified by handle.
func (r *Runtime) Stop(ctx context.Context, handle string) error {
	timeout := 10
	if err := r.cli.ContainerStop(ctx, handle, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("dockerrt: stop container %s: %w", handle, err)
	}
	if err := r.cli.ContainerRemove(ctx, handle, types.ContainerRemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("dockerrt: remove container %s: %w", handle, err)
	}
	return nil
}

// List returns every container this runtime manages, labelled taskLabel.
func (r *Runtime) List(ctx context.Context) ([]runtime.Task, error) {
	f := filters.NewArgs(filters.Arg("label", taskLabel+"=true"))
	containers, err := r.cli.ContainerList(ctx, types.ContainerListOptions{All: true, Filters: f})
	if err != nil {
		return nil, fmt.Errorf("dockerrt: list containers: %w", err)
	}

	tasks := make([]runtime.Task, 0, len(containers))
	for _, c := range containers {
		tasks = append(tasks, runtime.Task{
			Handle:    c.ID,
			VideoID:   c.Labels[videoLabel],
			ChannelID: c.Labels[channelLabel],
			Running:   c.State == "running",
		})
	}
	return tasks, nil
}

// Close releases the underlying Docker client connection.
func (r *Runtime) Close() error {
	return r.cli.Close()
}

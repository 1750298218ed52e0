/*
DESCRIPTION
  Per-process environment configuration (spec §6.6), shared by every
  cmd/* binary.

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

// Package config reads the environment variables spec §6.6 names into a
// single Config per process.
package config

import (
	"fmt"
	"os"
)

// Config is the per-process environment, read directly from os.Getenv
// (teacher idiom; no config file or flag library involved).
type Config struct {
	// Environment prefixes table names, e.g. "{env}-Channels".
	Environment string

	// VideoID, ChannelID parameterise a single Chat Collector Worker.
	VideoID   string
	ChannelID string

	// TaskControlQueueURL is the Task Bus endpoint.
	TaskControlQueueURL string

	// YouTubeAPIKeyParam is the path to the YouTube API key secret in
	// the parameter store (gauth.GetSecret's key argument).
	YouTubeAPIKeyParam string

	// WorkerCluster, WorkerTaskDefinition, WorkerSubnets and
	// WorkerSecurityGroups place new Worker Runtime tasks.
	WorkerCluster        string
	WorkerTaskDefinition string
	WorkerSubnets        string
	WorkerSecurityGroups string
}

// Load reads Config from the environment. required lists the field
// names (matching the struct field, e.g. "Environment") that must be
// non-empty.
func Load(required ...string) (*Config, error) {
	c := &Config{
		Environment:          os.Getenv("ENVIRONMENT"),
		VideoID:              os.Getenv("VIDEO_ID"),
		ChannelID:            os.Getenv("CHANNEL_ID"),
		TaskControlQueueURL:  os.Getenv("TASK_CONTROL_QUEUE_URL"),
		YouTubeAPIKeyParam:   os.Getenv("YOUTUBE_API_KEY_PARAM"),
		WorkerCluster:        os.Getenv("WORKER_CLUSTER"),
		WorkerTaskDefinition: os.Getenv("WORKER_TASK_DEFINITION"),
		WorkerSubnets:        os.Getenv("WORKER_SUBNETS"),
		WorkerSecurityGroups: os.Getenv("WORKER_SECURITY_GROUPS"),
	}

	fields := map[string]string{
		"Environment":          c.Environment,
		"VideoID":              c.VideoID,
		"ChannelID":            c.ChannelID,
		"TaskControlQueueURL":  c.TaskControlQueueURL,
		"YouTubeAPIKeyParam":   c.YouTubeAPIKeyParam,
		"WorkerCluster":        c.WorkerCluster,
		"WorkerTaskDefinition": c.WorkerTaskDefinition,
		"WorkerSubnets":        c.WorkerSubnets,
		"WorkerSecurityGroups": c.WorkerSecurityGroups,
	}
	for _, name := range required {
		if fields[name] == "" {
			return nil, fmt.Errorf("config: required environment variable for %s is not set", name)
		}
	}
	return c, nil
}

/*
DESCRIPTION
  Chat Collector Worker process: owns a single broadcast's live chat
  for its lifetime. One instance is launched per broadcast by the
  Dispatcher via the Worker Runtime.

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

// Chat Collector Worker is parameterised by VIDEO_ID and CHANNEL_ID
// (spec §6.6) and exits 0 on clean end-of-broadcast, non-zero on fatal
// error (spec §4.4).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chatwatch/cloud/collector"
	"github.com/chatwatch/cloud/config"
	"github.com/chatwatch/cloud/gauth"
	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/store"
	"github.com/chatwatch/cloud/store/clouddatastore"
	"github.com/chatwatch/cloud/store/memstore"
	"github.com/chatwatch/cloud/youtubeapi"
)

func main() {
	var standalone bool
	flag.BoolVar(&standalone, "standalone", false, "Use an in-memory store instead of Cloud Datastore.")
	flag.Parse()

	ctx := context.Background()
	if err := run(ctx, standalone); err != nil {
		log.Printf("collector: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, standalone bool) error {
	cfg, err := config.Load("Environment", "VideoID", "ChannelID", "YouTubeAPIKeyParam")
	if err != nil {
		return err
	}

	var st store.Store
	if standalone {
		st = memstore.New()
	} else {
		st, err = clouddatastore.New(ctx, cfg.Environment, "")
		if err != nil {
			return fmt.Errorf("could not set up datastore: %w", err)
		}
	}
	model.RegisterEntities()

	apiKey, err := gauth.GetSecret(ctx, cfg.Environment, cfg.YouTubeAPIKeyParam)
	if err != nil {
		return fmt.Errorf("could not get YouTube API key: %w", err)
	}
	client, err := youtubeapi.NewClient(ctx, apiKey)
	if err != nil {
		return fmt.Errorf("could not create YouTube client: %w", err)
	}

	w := collector.New(st, cfg.VideoID, cfg.ChannelID)
	src, err := w.Connect(ctx, collector.NewConnector(client))
	if err != nil {
		return fmt.Errorf("could not connect to live chat: %w", err)
	}

	log.Printf("collector: connected to live chat for video %s", cfg.VideoID)
	return w.Run(ctx, src)
}

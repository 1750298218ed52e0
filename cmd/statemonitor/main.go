/*
DESCRIPTION
  State Monitor service: runs the statemon package on a cron schedule,
  the authoritative owner of Broadcast.status.

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

// State Monitor is a cloud service that polls non-terminal broadcasts
// against the video-platform control API and drives worker start/stop
// via the Task Bus (spec §4.2).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"

	cron "github.com/robfig/cron/v3"

	"github.com/chatwatch/cloud/config"
	"github.com/chatwatch/cloud/gauth"
	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/runtime"
	"github.com/chatwatch/cloud/runtime/dockerrt"
	"github.com/chatwatch/cloud/runtime/memrt"
	"github.com/chatwatch/cloud/statemon"
	"github.com/chatwatch/cloud/store"
	"github.com/chatwatch/cloud/store/clouddatastore"
	"github.com/chatwatch/cloud/store/memstore"
	"github.com/chatwatch/cloud/taskbus"
	"github.com/chatwatch/cloud/taskbus/membus"
	"github.com/chatwatch/cloud/taskbus/pubsubbus"
	"github.com/chatwatch/cloud/utils"
	"github.com/chatwatch/cloud/youtubeapi"
)

// defaultTickSpec polls once a minute; overridden by STATE_POLL_CRON.
const defaultTickSpec = "@every 1m"

var (
	setupMutex sync.Mutex
	mon        *statemon.Monitor
	debug      bool
	standalone bool
)

func main() {
	defaultPort := 8083
	if v := os.Getenv("PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			defaultPort = i
		}
	}

	var host string
	var port int
	flag.BoolVar(&debug, "debug", false, "Run in debug mode.")
	flag.BoolVar(&standalone, "standalone", false, "Use in-memory store, bus and runtime instead of cloud backends.")
	flag.StringVar(&host, "host", "localhost", "Host to listen on in standalone mode.")
	flag.IntVar(&port, "port", defaultPort, "Port to listen on in standalone mode.")
	flag.Parse()

	ctx := context.Background()
	if err := setup(ctx); err != nil {
		log.Fatalf("statemonitor: setup failed: %v", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(tickSpec(), runTick); err != nil {
		log.Fatalf("statemonitor: could not schedule tick: %v", err)
	}
	c.Start()

	mux := utils.NewRecoverableServeMux(utils.NewConfigurableRecoveryHandler(
		utils.WithHttpError(http.StatusInternalServerError),
		utils.WithHandledConditions(utils.HandledConditions{HandledOnLog: true}),
	))
	mux.HandleFunc("/_ah/warmup", healthHandler)
	mux.HandleFunc("/", healthHandler)

	log.Printf("statemonitor: listening on %s:%d", host, port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf("%s:%d", host, port), mux))
}

func tickSpec() string {
	if v := os.Getenv("STATE_POLL_CRON"); v != "" {
		return v
	}
	return defaultTickSpec
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func setup(ctx context.Context) error {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	if mon != nil {
		return nil
	}

	cfg, err := config.Load("Environment", "YouTubeAPIKeyParam")
	if err != nil {
		return err
	}

	var st store.Store
	var rt runtime.Runtime
	var bus taskbus.Bus
	if standalone {
		log.Printf("statemonitor: running with in-memory backends")
		st = memstore.New()
		rt = memrt.New()
		bus = membus.New(membus.DefaultCapacity)
	} else {
		st, err = clouddatastore.New(ctx, cfg.Environment, "")
		if err != nil {
			return fmt.Errorf("could not set up datastore: %w", err)
		}
		rt, err = dockerrt.New(dockerrt.Config{Image: os.Getenv("WORKER_IMAGE")})
		if err != nil {
			return fmt.Errorf("could not set up worker runtime: %w", err)
		}
		pb, err := pubsubbus.New(ctx, cfg.Environment, cfg.TaskControlQueueURL, "")
		if err != nil {
			return fmt.Errorf("could not set up task bus: %w", err)
		}
		bus = pb
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

	mon = statemon.New(st, client, rt, bus)
	return nil
}

// runTick executes one State Monitor poll. Errors are logged, never
// fatal, matching spec §6.6's control-loop exit policy.
func runTick() {
	res, err := mon.Tick(context.Background())
	if err != nil {
		log.Printf("statemonitor: tick failed: %v", err)
		return
	}
	log.Printf("statemonitor: polled %d broadcasts, started %d, stopped %d", res.Polled, res.Started, res.Stopped)
}

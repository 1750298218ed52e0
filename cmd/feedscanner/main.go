/*
DESCRIPTION
  Feed Scanner service: runs the scanner package on a cron schedule and
  exposes a warmup/health endpoint.

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

// Feed Scanner is a cloud service that discovers newly published live
// broadcasts on watched channels (spec §4.1).
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
	"github.com/chatwatch/cloud/scanner"
	"github.com/chatwatch/cloud/store"
	"github.com/chatwatch/cloud/store/clouddatastore"
	"github.com/chatwatch/cloud/store/memstore"
	"github.com/chatwatch/cloud/utils"
	"github.com/chatwatch/cloud/youtubeapi"
)

// defaultScanSpec runs the scanner every five minutes; overridden by
// FEED_SCAN_CRON for deployments scanning many channels.
const defaultScanSpec = "@every 5m"

var (
	setupMutex sync.Mutex
	s          *scanner.Scanner
	debug      bool
	standalone bool
)

func main() {
	defaultPort := 8082
	if v := os.Getenv("PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			defaultPort = i
		}
	}

	var host string
	var port int
	flag.BoolVar(&debug, "debug", false, "Run in debug mode.")
	flag.BoolVar(&standalone, "standalone", false, "Use an in-memory store instead of Cloud Datastore.")
	flag.StringVar(&host, "host", "localhost", "Host to listen on in standalone mode.")
	flag.IntVar(&port, "port", defaultPort, "Port to listen on in standalone mode.")
	flag.Parse()

	ctx := context.Background()
	if err := setup(ctx); err != nil {
		log.Fatalf("feedscanner: setup failed: %v", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(scanSpec(), runScan); err != nil {
		log.Fatalf("feedscanner: could not schedule scan: %v", err)
	}
	c.Start()

	mux := utils.NewRecoverableServeMux(utils.NewConfigurableRecoveryHandler(
		utils.WithHttpError(http.StatusInternalServerError),
		utils.WithHandledConditions(utils.HandledConditions{HandledOnLog: true}),
	))
	mux.HandleFunc("/_ah/warmup", healthHandler)
	mux.HandleFunc("/", healthHandler)

	log.Printf("feedscanner: listening on %s:%d", host, port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf("%s:%d", host, port), mux))
}

func scanSpec() string {
	if v := os.Getenv("FEED_SCAN_CRON"); v != "" {
		return v
	}
	return defaultScanSpec
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// setup performs one-time wiring of the store and YouTube client. It is
// idempotent so tests and warmup requests can call it repeatedly.
func setup(ctx context.Context) error {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	if s != nil {
		return nil
	}

	cfg, err := config.Load("Environment", "YouTubeAPIKeyParam")
	if err != nil {
		return err
	}

	var st store.Store
	if standalone {
		log.Printf("feedscanner: running with an in-memory store")
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

	s = scanner.New(st, client)
	return nil
}

// runScan executes one Feed Scanner pass. Errors are logged, never
// fatal, matching spec §6.6's "control-loop tasks exit 0 always" rule.
func runScan() {
	res, err := s.Run(context.Background())
	if err != nil {
		log.Printf("feedscanner: run failed: %v", err)
		return
	}
	log.Printf("feedscanner: scanned %d channels, detected %d broadcasts", res.ChannelsScanned, res.Detected)
}

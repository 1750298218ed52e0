/*
DESCRIPTION
  Dispatcher service: pulls Task Bus control messages and turns them
  into Worker Runtime launch/stop calls.

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

// Dispatcher is a cloud service that consumes Task Bus control messages
// and idempotently starts or stops Chat Collector Workers (spec §4.3).
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

	"github.com/chatwatch/cloud/config"
	"github.com/chatwatch/cloud/dispatcher"
	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/runtime"
	"github.com/chatwatch/cloud/runtime/dockerrt"
	"github.com/chatwatch/cloud/runtime/memrt"
	"github.com/chatwatch/cloud/store"
	"github.com/chatwatch/cloud/store/clouddatastore"
	"github.com/chatwatch/cloud/store/memstore"
	"github.com/chatwatch/cloud/taskbus"
	"github.com/chatwatch/cloud/taskbus/membus"
	"github.com/chatwatch/cloud/taskbus/pubsubbus"
	"github.com/chatwatch/cloud/utils"
)

var (
	setupMutex sync.Mutex
	d          *dispatcher.Dispatcher
	bus        taskbus.Bus
	debug      bool
	standalone bool
)

func main() {
	defaultPort := 8084
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
		log.Fatalf("dispatcher: setup failed: %v", err)
	}

	go func() {
		if err := bus.Receive(ctx, handleDelivery); err != nil {
			log.Fatalf("dispatcher: receive loop exited: %v", err)
		}
	}()

	mux := utils.NewRecoverableServeMux(utils.NewConfigurableRecoveryHandler(
		utils.WithHttpError(http.StatusInternalServerError),
		utils.WithHandledConditions(utils.HandledConditions{HandledOnLog: true}),
	))
	mux.HandleFunc("/_ah/warmup", healthHandler)
	mux.HandleFunc("/", healthHandler)

	log.Printf("dispatcher: listening on %s:%d", host, port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf("%s:%d", host, port), mux))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func setup(ctx context.Context) error {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	if d != nil {
		return nil
	}

	cfg, err := config.Load("Environment")
	if err != nil {
		return err
	}

	var st store.Store
	var rt runtime.Runtime
	if standalone {
		log.Printf("dispatcher: running with in-memory backends")
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
		bus, err = pubsubbus.New(ctx, cfg.Environment, "", cfg.TaskControlQueueURL)
		if err != nil {
			return fmt.Errorf("could not set up task bus: %w", err)
		}
	}
	model.RegisterEntities()

	d = dispatcher.New(st, rt, cfg.Environment)
	return nil
}

// handleDelivery adapts a taskbus.Delivery to dispatcher.Handle,
// acknowledging on success and rejecting for at-least-once redelivery
// on failure (spec §6.4's delivery contract).
func handleDelivery(ctx context.Context, del taskbus.Delivery) error {
	if err := d.Handle(ctx, del.Message); err != nil {
		log.Printf("dispatcher: handle %s for %s: %v", del.Message.Action, del.Message.VideoID, err)
		del.Nack()
		return nil
	}
	del.Ack()
	return nil
}

/*
DESCRIPTION
  Notifier type and functions, used to page an operator when a
  WorkerTask fails or a control loop hits a hard error.

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

// Package notify sends operator-visible email notifications, and
// throttles repeats of the same kind of notification for the same
// subject via an optional TimeStore.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	mailjet "github.com/mailjet/mailjet-apiv3-go"

	"github.com/chatwatch/cloud/gauth"
)

const defaultOpsPeriod = 60 // minutes

// Kind identifies the category of a notification, e.g. "worker_failed",
// "dispatch_error", "scan_error".
type Kind string

// TimeStore tracks when a notification of a given kind was last sent
// for a given subject id, so Notifier can throttle repeats.
type TimeStore interface {
	Sendable(ctx context.Context, id string, period time.Duration, kind Kind) (bool, error)
	Sent(ctx context.Context, id string, kind Kind) error
}

// Notifier sends email notifications via MailJet.
type Notifier struct {
	mutex       sync.Mutex
	initialized bool
	sender      string
	recipients  []string
	lookup      Lookup
	filters     map[Kind]bool
	store       TimeStore
	publicKey   string
	privateKey  string
}

// Init initializes a notifier for use with the given project. It looks
// up MailJet secrets from either a file or a Google Storage bucket
// specified by the <PROJECTID>_SECRETS environment variable (see
// gauth.GetSecrets), unless WithSecrets was already applied by opts.
// For testing, projectID may be empty, in which case no secrets lookup
// is attempted and Notify becomes a throttle-and-log no-op.
func (n *Notifier) Init(ctx context.Context, projectID string, opts ...Option) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if n.initialized {
		return nil
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return err
		}
	}

	if n.publicKey == "" && projectID != "" {
		secrets, err := gauth.GetSecrets(ctx, projectID, nil)
		if err != nil {
			return fmt.Errorf("could not get secrets: %w", err)
		}
		var ok bool
		n.publicKey, ok = secrets["mailjetPublicKey"]
		if !ok {
			return errors.New("mailjetPublicKey secret not found")
		}
		n.privateKey, ok = secrets["mailjetPrivateKey"]
		if !ok {
			return errors.New("mailjetPrivateKey secret not found")
		}
	}

	n.initialized = true
	return nil
}

// SendOps sends kind's message to the OPS_EMAIL address (GetOpsEnvVars),
// throttled to at most once per OPS_PERIOD minutes per (id, kind).
func (n *Notifier) SendOps(ctx context.Context, id string, kind Kind, msg string) error {
	email, period := GetOpsEnvVars()
	return n.send(ctx, id, kind, []string{email}, msg, period)
}

// Notify sends msg to the configured recipients (the static recipient
// list, plus whatever the recipient-lookup function returns for id and
// kind), unless kind was excluded by WithFilter or the same kind was
// recently sent for id.
func (n *Notifier) Notify(ctx context.Context, id string, kind Kind, msg string) error {
	if n.filters != nil && !n.filters[kind] {
		return nil
	}
	recipients := append([]string{}, n.recipients...)
	if n.lookup != nil {
		recipients = append(recipients, n.lookup(id, kind)...)
	}
	return n.send(ctx, id, kind, recipients, msg, defaultOpsPeriod*time.Minute)
}

func (n *Notifier) send(ctx context.Context, id string, kind Kind, recipients []string, msg string, period time.Duration) error {
	if len(recipients) == 0 {
		return errors.New("notify: no recipients configured")
	}

	if n.store != nil {
		ok, err := n.store.Sendable(ctx, id, period, kind)
		if err != nil {
			log.Printf("notify: error checking throttle for %s/%s: %v", id, kind, err)
		} else if !ok {
			log.Printf("notify: too soon to send %s again for %s", kind, id)
			return nil
		}
	}

	log.Printf("notify: sending %s notification for %s to %v", kind, id, recipients)

	if n.sender != "" {
		clt := mailjet.NewMailjetClient(n.publicKey, n.privateKey)
		to := make(mailjet.RecipientsV31, len(recipients))
		for i, r := range recipients {
			to[i] = mailjet.RecipientV31{Email: r}
		}
		info := []mailjet.InfoMessagesV31{{
			From:     &mailjet.RecipientV31{Email: n.sender},
			To:       &to,
			Subject:  strings.Title(string(kind)) + " notification",
			TextPart: msg,
		}}
		_, err := clt.SendMailV31(&mailjet.MessagesV31{Info: info})
		if err != nil {
			return fmt.Errorf("could not send mail: %w", err)
		}
	}

	if n.store != nil {
		if err := n.store.Sent(ctx, id, kind); err != nil {
			log.Printf("notify: error recording send time for %s/%s: %v", id, kind, err)
		}
	}
	return nil
}

// GetOpsEnvVars returns the OPS_EMAIL and OPS_PERIOD env vars, or their
// defaults.
func GetOpsEnvVars() (string, time.Duration) {
	const (
		defaultEmail = "ops@chatwatch.cloud"
	)

	email := os.Getenv("OPS_EMAIL")
	if email == "" {
		email = defaultEmail
	}

	period := defaultOpsPeriod
	if v := os.Getenv("OPS_PERIOD"); v != "" {
		if m, err := strconv.Atoi(v); err != nil {
			log.Printf("notify: could not parse OPS_PERIOD %q: %v", v, err)
		} else {
			period = m
		}
	}
	return email, time.Duration(period) * time.Minute
}

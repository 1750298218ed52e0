/*
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

package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKind  Kind = "test"
	recipient      = "vidgrindservice@gmail.com"
	message        = "This is a test."
)

// fakeTimeStore alternates between "too soon" and "sendable", so tests
// can exercise the throttle path deterministically.
type fakeTimeStore struct {
	calls int
	sent  int
}

func (ts *fakeTimeStore) Sendable(ctx context.Context, id string, period time.Duration, kind Kind) (bool, error) {
	ts.calls++
	return ts.calls%2 == 1, nil
}

func (ts *fakeTimeStore) Sent(ctx context.Context, id string, kind Kind) error {
	ts.sent++
	return nil
}

func TestNotifyThrottles(t *testing.T) {
	ctx := context.Background()
	ts := &fakeTimeStore{}

	n := Notifier{}
	err := n.Init(ctx, "", WithRecipient(recipient), WithStore(ts))
	require.NoError(t, err)

	require.NoError(t, n.Notify(ctx, "v1", testKind, message))
	require.NoError(t, n.Notify(ctx, "v1", testKind, message))
	require.NoError(t, n.Notify(ctx, "v1", testKind, message))

	// Sendable alternates true/false/true: two sends should have
	// gone through the throttle gate and recorded Sent.
	assert.Equal(t, 2, ts.sent)
}

func TestNotifyFilter(t *testing.T) {
	ctx := context.Background()
	n := Notifier{}
	err := n.Init(ctx, "", WithRecipient(recipient), WithFilter("allowed"))
	require.NoError(t, err)

	assert.NoError(t, n.Notify(ctx, "v1", "blocked", message))
	assert.NoError(t, n.Notify(ctx, "v1", "allowed", message))
}

func TestNotifyNoRecipients(t *testing.T) {
	ctx := context.Background()
	n := Notifier{}
	require.NoError(t, n.Init(ctx, ""))
	assert.Error(t, n.Notify(ctx, "v1", testKind, message))
}

// TestSend sends an actual email; skipped unless TEST_SECRETS is set,
// matching the teacher's pattern for tests that hit live MailJet.
func TestSend(t *testing.T) {
	if os.Getenv("TEST_SECRETS") == "" {
		t.Skip("TEST_SECRETS required for TestSend")
	}

	ctx := context.Background()
	n := Notifier{}
	err := n.Init(ctx, "chatwatch-cloud", WithSender(recipient), WithRecipient(recipient))
	require.NoError(t, err)
	require.NoError(t, n.Notify(ctx, "v1", testKind, message))
}

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

package youtubeapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsLiveBroadcastCandidate(t *testing.T) {
	cases := []struct {
		name string
		vs   VideoStatus
		want bool
	}{
		{"live", VideoStatus{LiveBroadcastContent: "live"}, true},
		{"upcoming", VideoStatus{LiveBroadcastContent: "upcoming"}, true},
		{"none with details", VideoStatus{LiveBroadcastContent: "none", ActualStartTime: time.Now()}, true},
		{"none without details", VideoStatus{LiveBroadcastContent: "none"}, false},
		{"empty", VideoStatus{}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.vs.IsLiveBroadcastCandidate())
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		vs   VideoStatus
		want string
	}{
		{"live", VideoStatus{LiveBroadcastContent: "live"}, "live"},
		{"upcoming", VideoStatus{LiveBroadcastContent: "upcoming"}, "upcoming"},
		{"ended", VideoStatus{LiveBroadcastContent: "none", ActualEndTime: now}, "ended"},
		{"not live", VideoStatus{LiveBroadcastContent: "none"}, "not_live"},
		{"unknown", VideoStatus{LiveBroadcastContent: "garbage"}, "unknown"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.vs.ClassifyStatus())
		})
	}
}

func TestHasLiveStreamingDetails(t *testing.T) {
	assert.False(t, (&VideoStatus{}).HasLiveStreamingDetails())
	assert.True(t, (&VideoStatus{ConcurrentViewers: 3}).HasLiveStreamingDetails())
	assert.True(t, (&VideoStatus{ScheduledStartTime: time.Now()}).HasLiveStreamingDetails())
}

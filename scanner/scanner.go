/*
DESCRIPTION
  Feed Scanner business logic (spec §4.1, component C4): polls active
  channels' public video feeds, verifies candidates against the
  video-platform control API, and records newly detected broadcasts.

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

// Package scanner implements the Feed Scanner: it discovers newly
// published live broadcasts on watched channels and records them.
package scanner

import (
	"context"
	"log"
	"time"

	"github.com/chatwatch/cloud/feed"
	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/store"
	"github.com/chatwatch/cloud/youtubeapi"
)

// MaxEntriesPerChannel caps how many of a channel's most recent feed
// entries are examined per run (spec §4.1).
const MaxEntriesPerChannel = 5

// FreshnessWindow rejects feed entries older than this (spec §4.1 step 1).
const FreshnessWindow = 24 * time.Hour

// StatusGetter is the subset of youtubeapi.Client the Scanner needs,
// narrowed so tests can substitute a fake without a real API client.
type StatusGetter interface {
	GetVideoStatus(ctx context.Context, videoID string) (*youtubeapi.VideoStatus, error)
}

// FeedFetcher is the subset of feed.Fetcher the Scanner needs, narrowed
// so tests can substitute a fake feed source.
type FeedFetcher interface {
	Fetch(ctx context.Context, channelID string) ([]feed.Entry, error)
}

// Scanner runs one pass over every active channel.
type Scanner struct {
	Store   store.Store
	Fetcher FeedFetcher
	Client  StatusGetter
	Now     func() time.Time
}

// New returns a Scanner wired to live dependencies.
func New(s store.Store, c *youtubeapi.Client) *Scanner {
	return &Scanner{Store: s, Fetcher: feed.NewFetcher(), Client: c, Now: time.Now}
}

// Result summarizes one Run.
type Result struct {
	ChannelsScanned int
	Detected        int
}

// Run scans every active channel's feed and records any newly detected
// broadcasts. Per-channel failures are logged and skipped; they never
// abort the loop (spec §4.1's failure policy).
func (s *Scanner) Run(ctx context.Context) (Result, error) {
	channels, err := model.GetActiveChannels(ctx, s.Store)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, ch := range channels {
		res.ChannelsScanned++
		n, err := s.scanChannel(ctx, ch)
		if err != nil {
			log.Printf("scanner: channel %s: %v", ch.ChannelID, err)
			continue
		}
		res.Detected += n
	}
	return res, nil
}

func (s *Scanner) scanChannel(ctx context.Context, ch model.Channel) (int, error) {
	entries, err := s.Fetcher.Fetch(ctx, ch.ChannelID)
	if err != nil {
		return 0, err
	}
	if len(entries) > MaxEntriesPerChannel {
		entries = entries[:MaxEntriesPerChannel]
	}

	now := s.now()
	entries = feed.Recent(entries, now, FreshnessWindow)

	var detected int
	for _, e := range entries {
		ok, err := s.considerEntry(ctx, ch.ChannelID, e, now)
		if err != nil {
			log.Printf("scanner: channel %s entry %s: %v", ch.ChannelID, e.VideoID, err)
			continue
		}
		if ok {
			detected++
		}
	}
	return detected, nil
}

// considerEntry applies steps 2-4 of spec §4.1 to a single feed entry.
func (s *Scanner) considerEntry(ctx context.Context, channelID string, e feed.Entry, now time.Time) (bool, error) {
	if _, err := model.GetBroadcast(ctx, s.Store, e.VideoID); err == nil {
		return false, nil // already known; step 2.
	} else if err != store.ErrNoSuchEntity {
		return false, err
	}

	status, err := s.Client.GetVideoStatus(ctx, e.VideoID)
	if err != nil {
		return false, err
	}
	if !status.IsLiveBroadcastCandidate() {
		return false, nil
	}

	b := &model.Broadcast{
		VideoID:        e.VideoID,
		ChannelID:      channelID,
		Title:          e.Title,
		Status:         model.StatusDetected,
		ScheduledStart: e.Published,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = model.CreateBroadcast(ctx, s.Store, b)
	if err == store.ErrEntityExists {
		// Lost a race with another Scanner pass or the State Monitor;
		// the conditional insert already makes this idempotent.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

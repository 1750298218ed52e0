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

package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwatch/cloud/feed"
	"github.com/chatwatch/cloud/model"
	"github.com/chatwatch/cloud/store/memstore"
	"github.com/chatwatch/cloud/youtubeapi"
)

func init() { model.RegisterEntities() }

type fakeFetcher struct {
	entries map[string][]feed.Entry
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, channelID string) ([]feed.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[channelID], nil
}

type fakeStatusGetter struct {
	candidates map[string]bool
}

func (f *fakeStatusGetter) GetVideoStatus(ctx context.Context, videoID string) (*youtubeapi.VideoStatus, error) {
	vs := &youtubeapi.VideoStatus{VideoID: videoID}
	if f.candidates[videoID] {
		vs.LiveBroadcastContent = "live"
	} else {
		vs.LiveBroadcastContent = "none"
	}
	return vs, nil
}

func TestRunDetectsNewLiveBroadcast(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, model.CreateChannel(ctx, s, &model.Channel{ChannelID: "c1", IsActive: true}))
	require.NoError(t, model.CreateChannel(ctx, s, &model.Channel{ChannelID: "c2", IsActive: false}))

	now := time.Now().UTC()
	scan := &Scanner{
		Store: s,
		Fetcher: &fakeFetcher{entries: map[string][]feed.Entry{
			"c1": {
				{VideoID: "v1", ChannelID: "c1", Title: "Live now", Published: now.Add(-time.Hour)},
				{VideoID: "v2", ChannelID: "c1", Title: "Not live", Published: now.Add(-time.Hour)},
				{VideoID: "v3", ChannelID: "c1", Title: "Too old", Published: now.Add(-48 * time.Hour)},
			},
		}},
		Client: &fakeStatusGetter{candidates: map[string]bool{"v1": true}},
		Now:    func() time.Time { return now },
	}

	res, err := scan.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChannelsScanned) // only the active channel.
	assert.Equal(t, 1, res.Detected)

	b, err := model.GetBroadcast(ctx, s, "v1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDetected, b.Status)

	_, err = model.GetBroadcast(ctx, s, "v2")
	assert.Error(t, err)
}

func TestRunSkipsAlreadyKnownVideo(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, model.CreateChannel(ctx, s, &model.Channel{ChannelID: "c1", IsActive: true}))
	require.NoError(t, model.CreateBroadcast(ctx, s, &model.Broadcast{VideoID: "v1", ChannelID: "c1"}))

	now := time.Now().UTC()
	scan := &Scanner{
		Store: s,
		Fetcher: &fakeFetcher{entries: map[string][]feed.Entry{
			"c1": {{VideoID: "v1", ChannelID: "c1", Published: now}},
		}},
		Client: &fakeStatusGetter{candidates: map[string]bool{"v1": true}},
		Now:    func() time.Time { return now },
	}

	res, err := scan.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Detected)
}

func TestRunContinuesAfterChannelFailure(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, model.CreateChannel(ctx, s, &model.Channel{ChannelID: "bad", IsActive: true}))
	require.NoError(t, model.CreateChannel(ctx, s, &model.Channel{ChannelID: "good", IsActive: true}))

	now := time.Now().UTC()
	scan := &Scanner{
		Store: s,
		Fetcher: &perChannelFetcher{
			good: []feed.Entry{{VideoID: "v1", ChannelID: "good", Published: now}},
		},
		Client: &fakeStatusGetter{candidates: map[string]bool{"v1": true}},
		Now:    func() time.Time { return now },
	}

	res, err := scan.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ChannelsScanned)
	assert.Equal(t, 1, res.Detected)
}

type perChannelFetcher struct {
	good []feed.Entry
}

func (f *perChannelFetcher) Fetch(ctx context.Context, channelID string) ([]feed.Entry, error) {
	if channelID == "bad" {
		return nil, assertError{}
	}
	return f.good, nil
}

type assertError struct{}

func (assertError) Error() string { return "feed fetch failed" }

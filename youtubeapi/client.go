/*
DESCRIPTION
  Read-only video-platform control API client, grounded on the
  teacher's cmd/oceantv/broadcast service construction but simplified
  to the API-key auth the control loops use for public metadata reads
  (spec §6.2) rather than the OAuth flow a broadcast-scheduling
  component would need.

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

// Package youtubeapi wraps the subset of the YouTube Data API v3 the
// State Monitor and Feed Scanner need: video status lookups and
// channel metadata hydration.
package youtubeapi

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Client is a thin, context-timeout-bounded wrapper around
// *youtube.Service.
type Client struct {
	svc     *youtube.Service
	timeout time.Duration
}

// DefaultTimeout is the upstream HTTP call timeout spec §5 requires
// (10-15 seconds).
const DefaultTimeout = 12 * time.Second

// NewClient returns a Client authorized with apiKey, suitable for
// read-only public video/channel lookups.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: could not create service: %w", err)
	}
	return &Client{svc: svc, timeout: DefaultTimeout}, nil
}

// VideoStatus is the subset of a video's platform state the control
// loops consume (spec §6.2).
type VideoStatus struct {
	VideoID             string
	LiveBroadcastContent string
	Title               string
	Description         string
	PrivacyStatus       string
	ScheduledStartTime  time.Time
	ActualStartTime     time.Time
	ActualEndTime       time.Time
	ConcurrentViewers   int64
}

// GetVideoStatus calls videos.list for videoID with
// part=liveStreamingDetails,snippet,status.
func (c *Client) GetVideoStatus(ctx context.Context, videoID string) (*VideoStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call := c.svc.Videos.List([]string{"liveStreamingDetails", "snippet", "status"}).
		Id(videoID).Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: videos.list %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("youtubeapi: video %s not found", videoID)
	}
	item := resp.Items[0]

	vs := &VideoStatus{VideoID: videoID}
	if item.Snippet != nil {
		vs.LiveBroadcastContent = item.Snippet.LiveBroadcastContent
		vs.Title = item.Snippet.Title
		vs.Description = item.Snippet.Description
	}
	if item.Status != nil {
		vs.PrivacyStatus = item.Status.PrivacyStatus
	}
	if d := item.LiveStreamingDetails; d != nil {
		vs.ScheduledStartTime = parseRFC3339(d.ScheduledStartTime)
		vs.ActualStartTime = parseRFC3339(d.ActualStartTime)
		vs.ActualEndTime = parseRFC3339(d.ActualEndTime)
		vs.ConcurrentViewers = int64(d.ConcurrentViewers)
	}
	return vs, nil
}

// HasLiveStreamingDetails reports whether the upstream response carried
// any live-streaming detail at all — the tiebreak discriminator spec
// §9's "Source ambiguity" note falls back to.
func (vs *VideoStatus) HasLiveStreamingDetails() bool {
	return !vs.ScheduledStartTime.IsZero() || !vs.ActualStartTime.IsZero() || !vs.ActualEndTime.IsZero() || vs.ConcurrentViewers != 0
}

// ChannelMetadata is the subset of a channel's platform state used to
// hydrate cached statistics (spec §6.2's channels.list call).
type ChannelMetadata struct {
	ChannelID       string
	Title           string
	Description     string
	SubscriberCount int64
	VideoCount      int64
	ViewCount       int64
	ThumbnailURL    string
}

// GetChannelMetadata calls channels.list for channelID with
// part=snippet,statistics,brandingSettings.
func (c *Client) GetChannelMetadata(ctx context.Context, channelID string) (*ChannelMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call := c.svc.Channels.List([]string{"snippet", "statistics", "brandingSettings"}).
		Id(channelID).Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: channels.list %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("youtubeapi: channel %s not found", channelID)
	}
	item := resp.Items[0]

	md := &ChannelMetadata{ChannelID: channelID}
	if item.Snippet != nil {
		md.Title = item.Snippet.Title
		md.Description = item.Snippet.Description
		if t := item.Snippet.Thumbnails; t != nil && t.High != nil {
			md.ThumbnailURL = t.High.Url
		}
	}
	if item.Statistics != nil {
		md.SubscriberCount = int64(item.Statistics.SubscriberCount)
		md.VideoCount = int64(item.Statistics.VideoCount)
		md.ViewCount = int64(item.Statistics.ViewCount)
	}
	return md, nil
}

func parseRFC3339(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

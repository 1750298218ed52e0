/*
DESCRIPTION
  Live chat subscription (spec §6.3): an opaque per-broadcast chat
  source the Chat Collector Worker polls until it reports itself no
  longer alive.

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

package youtubeapi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

// ChatMessage is a single chat message read off a LiveChatSource.
type ChatMessage struct {
	ID              string
	AuthorName      string
	AuthorChannelID string
	Body            string
	DateTime        string // RFC3339; parsed by the caller.
	IsOwner         bool
	IsModerator     bool
	IsVerified      bool
}

// LiveChatSource is the collector worker's view of a broadcast's live
// chat. IsAlive, Poll and Terminate match spec §6.3 exactly.
type LiveChatSource interface {
	IsAlive() bool
	Poll(ctx context.Context) ([]ChatMessage, error)
	Terminate()
}

// liveChatSource implements LiveChatSource against the real YouTube
// Live Chat API.
type liveChatSource struct {
	svc    *youtube.Service
	mu     sync.Mutex
	liveID string
	token  string
	alive  bool
}

// ErrChatEnded is returned by Poll once the live chat has been marked
// ended by the platform (liveChatId no longer resolves) — the
// collector treats this identically to IsAlive() becoming false.
var ErrChatEnded = errors.New("youtubeapi: live chat ended")

// NewLiveChatSource resolves videoID's active live-chat id and returns
// a LiveChatSource for it.
func NewLiveChatSource(ctx context.Context, c *Client, videoID string) (LiveChatSource, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Videos.List([]string{"liveStreamingDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtubeapi: resolve live chat for %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].LiveStreamingDetails == nil {
		return nil, fmt.Errorf("youtubeapi: %s has no live streaming details", videoID)
	}
	liveID := resp.Items[0].LiveStreamingDetails.ActiveLiveChatId
	if liveID == "" {
		return nil, fmt.Errorf("youtubeapi: %s has no active live chat", videoID)
	}
	return &liveChatSource{svc: c.svc, liveID: liveID, alive: true}, nil
}

func (s *liveChatSource) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Poll fetches the next page of chat messages since the last call.
func (s *liveChatSource) Poll(ctx context.Context) ([]ChatMessage, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	call := s.svc.LiveChatMessages.List(s.liveID, []string{"snippet", "authorDetails"}).Context(ctx)
	if token != "" {
		call = call.PageToken(token)
	}
	resp, err := call.Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 404 {
			s.mu.Lock()
			s.alive = false
			s.mu.Unlock()
			return nil, ErrChatEnded
		}
		return nil, fmt.Errorf("youtubeapi: liveChatMessages.list: %w", err)
	}

	msgs := make([]ChatMessage, 0, len(resp.Items))
	for _, item := range resp.Items {
		m := ChatMessage{ID: item.Id}
		if item.Snippet != nil {
			m.Body = item.Snippet.DisplayMessage
			m.DateTime = item.Snippet.PublishedAt
		}
		if a := item.AuthorDetails; a != nil {
			m.AuthorName = a.DisplayName
			m.AuthorChannelID = a.ChannelId
			m.IsOwner = a.IsChatOwner
			m.IsModerator = a.IsChatModerator
			m.IsVerified = a.IsVerified
		}
		msgs = append(msgs, m)
	}

	s.mu.Lock()
	s.token = resp.NextPageToken
	s.mu.Unlock()
	return msgs, nil
}

func (s *liveChatSource) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = false
}

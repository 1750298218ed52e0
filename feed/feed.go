/*
DESCRIPTION
  Atom feed fetch and parse for the Feed Scanner's inbound interface
  (spec §6.1): GET https://www.youtube.com/feeds/videos.xml?channel_id={id}
  and pull out the yt:videoId/title/published fields of each entry.

  The upstream feed is Atom with the "yt" and "media" namespace
  extensions; encoding/xml's struct tags express that directly, so
  there is no case here for a third-party XML or feed-parsing library.

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

// Package feed fetches and parses the YouTube per-channel Atom feed
// the Feed Scanner polls for new uploads and live broadcasts.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the upstream HTTP fetch timeout (spec §5).
const DefaultTimeout = 10 * time.Second

// BaseURL is the feed endpoint template, parameterised by channel_id.
const BaseURL = "https://www.youtube.com/feeds/videos.xml"

// Entry is one <entry> of a channel's feed, parsed into Go types.
type Entry struct {
	VideoID   string
	ChannelID string
	Title     string
	Published time.Time
}

// feedXML mirrors the Atom document shape; field names are unexported
// since callers only see the parsed Entry slice.
type feedXML struct {
	XMLName xml.Name   `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []entryXML `xml:"http://www.w3.org/2005/Atom entry"`
}

type entryXML struct {
	VideoID   string `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string `xml:"http://www.w3.org/2005/Atom title"`
	Published string `xml:"http://www.w3.org/2005/Atom published"`
}

// Fetcher fetches and parses a channel's feed over HTTP.
type Fetcher struct {
	client  *http.Client
	baseURL string
}

// NewFetcher returns a Fetcher using http.DefaultClient's transport
// with DefaultTimeout applied per request.
func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: DefaultTimeout}, baseURL: BaseURL}
}

// Fetch retrieves and parses channelID's feed, returning its entries in
// feed order (most recent first, per the upstream convention).
func (f *Fetcher) Fetch(ctx context.Context, channelID string) ([]Entry, error) {
	u := f.baseURL + "?" + url.Values{"channel_id": {channelID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: new request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: fetch %s: %w", channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: fetch %s: unexpected status %d", channelID, resp.StatusCode)
	}

	var doc feedXML
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("feed: parse %s: %w", channelID, err)
	}

	entries := make([]Entry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		pub, _ := time.Parse(time.RFC3339, e.Published)
		entries = append(entries, Entry{
			VideoID:   e.VideoID,
			ChannelID: e.ChannelID,
			Title:     e.Title,
			Published: pub,
		})
	}
	return entries, nil
}

// Recent filters entries to those published within window of now,
// matching the Feed Scanner's 24-hour freshness check (spec §4.1).
func Recent(entries []Entry, now time.Time, window time.Duration) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Published.IsZero() {
			continue
		}
		if now.Sub(e.Published) < window {
			out = append(out, e)
		}
	}
	return out
}

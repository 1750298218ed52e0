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

package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>abc123</yt:videoId>
    <yt:channelId>UCxyz</yt:channelId>
    <title>First stream</title>
    <published>%s</published>
  </entry>
  <entry>
    <yt:videoId>def456</yt:videoId>
    <yt:channelId>UCxyz</yt:channelId>
    <title>Old upload</title>
    <published>2000-01-01T00:00:00+00:00</published>
  </entry>
</feed>`

func TestFetchParsesEntries(t *testing.T) {
	recent := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UCxyz", r.URL.Query().Get("channel_id"))
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(fmt.Sprintf(sampleFeed, recent)))
	}))
	defer srv.Close()

	f := NewFetcher()
	f.baseURL = srv.URL

	entries, err := f.Fetch(context.Background(), "UCxyz")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc123", entries[0].VideoID)
	assert.Equal(t, "First stream", entries[0].Title)
	assert.False(t, entries[0].Published.IsZero())
}

func TestRecentFiltersOldEntries(t *testing.T) {
	now := time.Now()
	entries := []Entry{
		{VideoID: "new", Published: now.Add(-time.Hour)},
		{VideoID: "old", Published: now.Add(-48 * time.Hour)},
		{VideoID: "nodate"},
	}
	got := Recent(entries, now, 24*time.Hour)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].VideoID)
}

func TestRecentRejectsEntryExactlyAtBoundary(t *testing.T) {
	now := time.Now()
	entries := []Entry{
		{VideoID: "boundary", Published: now.Add(-24 * time.Hour)},
	}
	got := Recent(entries, now, 24*time.Hour)
	assert.Len(t, got, 0)
}

func TestFetchRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher()
	f.baseURL = srv.URL

	_, err := f.Fetch(context.Background(), "UCxyz")
	assert.Error(t, err)
}

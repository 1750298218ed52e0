/*
DESCRIPTION
  Status discriminators shared by the Feed Scanner and State Monitor.

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

const (
	liveBroadcastLive     = "live"
	liveBroadcastUpcoming = "upcoming"
	liveBroadcastNone     = "none"
)

// IsLiveBroadcastCandidate reports whether vs describes an entry worth
// tracking as a Broadcast (Feed Scanner step 3). The source contained
// two conflicting discriminators for this check; liveBroadcastContent
// is authoritative, with presence of live-streaming details used only
// as a tiebreak when liveBroadcastContent is anything other than "live"
// or "upcoming" (absent, "none", or an unrecognised value).
func (vs *VideoStatus) IsLiveBroadcastCandidate() bool {
	switch vs.LiveBroadcastContent {
	case liveBroadcastLive, liveBroadcastUpcoming:
		return true
	}
	return vs.HasLiveStreamingDetails()
}

// ClassifyStatus maps platform fields to the internal Broadcast.status
// per the State Monitor's status table (spec §4.2). Callers should
// compare the result against model.Status* constants.
func (vs *VideoStatus) ClassifyStatus() string {
	switch vs.LiveBroadcastContent {
	case liveBroadcastLive:
		return "live"
	case liveBroadcastUpcoming:
		return "upcoming"
	case liveBroadcastNone:
		if !vs.ActualEndTime.IsZero() {
			return "ended"
		}
		return "not_live"
	default:
		return "unknown"
	}
}

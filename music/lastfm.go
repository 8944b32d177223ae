// Copyright (C) 2023 The Covers Authors.
//
// This file is part of Covers.
//
// Covers is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Covers is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Covers.  If not, see <https://www.gnu.org/licenses/>.

package music

import (
	"github.com/defsub/covers/lib/client"
	lfm "github.com/shkh/lastfm-go/lastfm"
)

// Last.fm is used for looking up artists not found by MusicBrainz to
// get their MBID.
func (m *Music) lastfmArtistSearch(name string) (string, string) {
	if m.config.LastFM.Key == "" {
		return "", ""
	}
	client.RateLimit("last.fm")
	api := lfm.New(m.config.LastFM.Key, m.config.LastFM.Secret)
	result, _ := api.Artist.Search(lfm.P{"artist": name})

	for index, match := range result.ArtistMatches {
		if index == 0 {
			return match.Name, match.Mbid
		}
	}
	return "", ""
}

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
	"math"
	"strings"

	"github.com/defsub/covers/config"
	"github.com/defsub/covers/lib/spotify"
	"github.com/defsub/covers/lib/str"
)

const (
	titleWeight      = 0.5
	performerWeight  = 0.3
	popularityWeight = 0.2

	// Neutral performer similarity when the query has no performer,
	// so absence neither penalizes nor rewards a candidate.
	neutralPerformerScore = 0.5
)

type matchKey struct {
	title  string
	artist string
}

// catalogSearcher is the track search surface of the external catalog.
type catalogSearcher interface {
	Search(title, artist string) ([]spotify.Track, error)
}

// Matcher selects the best catalog track for (title, performer)
// queries. Results are memoized for the matcher's lifetime; a repeated
// key returns the cached result without another search.
type Matcher struct {
	spotify catalogSearcher
	cache   map[matchKey]*Match
}

func NewMatcher(config *config.Config) *Matcher {
	return &Matcher{
		spotify: spotify.NewSpotify(config),
		cache:   make(map[matchKey]*Match),
	}
}

// LookupTrack searches the catalog and picks the highest scoring
// candidate. Zero candidates is a cached no-match, not an error.
func (x *Matcher) LookupTrack(title, artist string) (*Match, error) {
	if title == "" {
		return &Match{}, nil
	}

	key := matchKey{strings.ToLower(title), strings.ToLower(artist)}
	if match, ok := x.cache[key]; ok {
		return match, nil
	}

	tracks, err := x.spotify.Search(title, artist)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		match := &Match{}
		x.cache[key] = match
		return match, nil
	}

	best := tracks[0]
	bestScore := matchScore(title, artist, best)
	for _, t := range tracks[1:] {
		// ties keep the earlier candidate, the service order is
		// meaningful
		if score := matchScore(title, artist, t); score > bestScore {
			best, bestScore = t, score
		}
	}

	match := &Match{
		TrackID:     best.ID,
		TrackName:   best.Name,
		ArtistName:  best.JoinedArtists(),
		Popularity:  best.Popularity,
		AlbumName:   best.Album.Name,
		ReleaseDate: best.Album.ReleaseDate,
		DurationMs:  best.DurationMs,
		Explicit:    best.Explicit,
		ExternalURL: best.ExternalURL(),
		Score:       bestScore,
		Found:       true,
	}
	x.cache[key] = match
	return match, nil
}

// matchScore weighs title similarity, performer similarity and track
// popularity, rounded to four decimal places.
func matchScore(title, artist string, track spotify.Track) float64 {
	titleScore := str.Similarity(title, track.Name)
	artistScore := neutralPerformerScore
	if artist != "" {
		artistScore = str.Similarity(artist, track.JoinedArtists())
	}
	popularityScore := float64(track.Popularity) / 100.0

	score := titleWeight*titleScore +
		performerWeight*artistScore +
		popularityWeight*popularityScore
	return math.Round(score*10000) / 10000
}

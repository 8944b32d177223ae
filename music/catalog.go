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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/defsub/covers/lib/date"
	"github.com/defsub/covers/lib/log"
	"github.com/defsub/covers/lib/musicbrainz"
	"github.com/defsub/covers/lib/str"
	"github.com/google/uuid"
)

var ErrArtistNotFound = errors.New("artist not found")

// ResolveArtist finds the configured artist, database first, then the
// MusicBrainz search API, then Last.fm as a last resort. The numeric
// row id is only set on the database path; the API paths clear it so a
// stale value from a failed database lookup is never carried over.
func (m *Music) ResolveArtist() (*Artist, error) {
	name := m.config.MusicBrainz.Artist

	artist, err := m.lookupArtist(name)
	if err != nil {
		log.Printf("artist lookup via database failed, using web service: %s\n", err)
	} else if artist != nil {
		log.Printf("resolved artist %q to %s (row id %d) via database\n",
			name, artist.ARID, artist.RowID)
		return artist, nil
	}

	result, err := m.mbz.SearchArtist(name)
	if err != nil {
		return nil, err
	}
	if result != nil {
		log.Printf("resolved artist %q to %s via web service\n", name, result.ID)
		return &Artist{
			Name:     result.Name,
			SortName: result.SortName,
			ARID:     result.ID,
		}, nil
	}

	lfmName, mbid := m.lastfmArtistSearch(name)
	if mbid != "" {
		if _, err := uuid.Parse(mbid); err == nil {
			log.Printf("resolved artist %q to %s via last.fm\n", name, mbid)
			return &Artist{Name: lfmName, ARID: mbid}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrArtistNotFound, name)
}

// FetchWorks resolves the artist's works, database first. Any failure
// on the database path falls back to the web service for the entire
// work set - fallback is all-or-nothing, never mixed per work.
func (m *Music) FetchWorks(artist *Artist) ([]Work, error) {
	if artist.HasRowID {
		works, err := m.lookupWorks(artist)
		if err == nil {
			log.Printf("fetched %d works from database\n", len(works))
			return works, nil
		}
		log.Printf("work fetch via database failed, using web service: %s\n", err)
	}
	return m.worksFromAPI(artist.ARID)
}

func (m *Music) worksFromAPI(arid string) ([]Work, error) {
	results, err := m.mbz.ArtistWorks(arid)
	if err != nil {
		return nil, err
	}
	var works []Work
	for _, w := range results {
		works = append(works, Work{
			WorkID:         w.ID,
			Title:          w.Title,
			Type:           w.Type,
			Language:       w.Language,
			ISWC:           str.NormalizeList(w.ISWCs),
			Aliases:        str.NormalizeList(w.AliasNames()),
			Relations:      jsonList(w.Relations),
			Attributes:     jsonList(w.Attributes),
			Disambiguation: w.Disambiguation,
		})
	}
	log.Printf("fetched %d works via web service\n", len(works))
	return works, nil
}

func jsonList(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}

// FetchRecordings expands every work into its recordings through the
// web service, one row per (recording, release) pair, in work order. A
// failed fetch for any work halts the run rather than producing a
// partial table.
func (m *Music) FetchRecordings(artist *Artist, works []Work) ([]Recording, error) {
	var recordings []Recording
	for _, work := range works {
		results, err := m.mbz.WorkRecordings(work.WorkID)
		if err != nil {
			return nil, fmt.Errorf("recordings for work %s: %w", work.WorkID, err)
		}
		for _, r := range results {
			recordings = append(recordings, expandRecording(artist, work, r)...)
		}
	}
	log.Printf("fetched %d recordings\n", len(recordings))
	return recordings, nil
}

func expandRecording(artist *Artist, work Work, r musicbrainz.Recording) []Recording {
	row := Recording{
		WorkID:          work.WorkID,
		WorkTitle:       work.Title,
		RecordingID:     r.ID,
		RecordingTitle:  r.Title,
		Length:          r.Length,
		ArtistNames:     str.NormalizeList(r.CreditNames()),
		ArtistIDs:       str.NormalizeList(r.CreditIDs()),
		IsPrimaryArtist: r.CreditedTo(artist.ARID),
		ISRCs:           str.NormalizeList(r.ISRCs),
	}

	if len(r.Releases) == 0 {
		row.FirstReleaseDate = validDate(r.FirstReleaseDate)
		return []Recording{row}
	}

	var rows []Recording
	for _, release := range r.Releases {
		v := row
		v.ReleaseID = release.ID
		v.ReleaseTitle = release.Title
		v.FirstReleaseDate = validDate(release.Date)
		if v.FirstReleaseDate == "" {
			v.FirstReleaseDate = validDate(r.FirstReleaseDate)
		}
		rows = append(rows, v)
	}
	return rows
}

// validDate keeps yyyy, yyyy-mm and yyyy-mm-dd values; anything else
// the service sends becomes an empty field instead of garbage in the
// table.
func validDate(v string) string {
	if date.ParseDate(v).IsZero() {
		return ""
	}
	return v
}

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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/defsub/covers/lib/log"
)

const (
	WorksFile      = "works.csv"
	RecordingsFile = "recordings.csv"
	CoversFile     = "covers.csv"
	EnrichedFile   = "covers_with_popularity.csv"
)

var worksHeader = []string{
	"work_id", "title", "type", "language", "iswc",
	"aliases", "relations", "attributes", "disambiguation",
}

var recordingsHeader = []string{
	"work_id", "work_title", "recording_id", "recording_title",
	"recording_length_ms", "artist_names", "artist_ids", "is_bob_dylan",
	"release_id", "release_title", "first_release_date", "isrcs",
}

var coversHeader = append(append([]string{}, recordingsHeader...),
	"cover_artist_name", "cover_artist_ids")

var enrichedHeader = append(append([]string{}, coversHeader...),
	"spotify_track_id", "spotify_track_name", "spotify_artist_name",
	"spotify_popularity", "spotify_album_name", "spotify_release_date",
	"spotify_duration_ms", "spotify_is_explicit", "spotify_external_url",
	"spotify_match_score")

func (m *Music) dataPath(name string) string {
	return filepath.Join(m.config.DataDir, name)
}

func writeTable(path string, header []string, rows [][]string) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Write(header)
	for _, row := range rows {
		w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *Music) exportWorks(works []Work) error {
	var rows [][]string
	for _, w := range works {
		rows = append(rows, []string{
			w.WorkID, w.Title, w.Type, w.Language, w.ISWC,
			w.Aliases, w.Relations, w.Attributes, w.Disambiguation,
		})
	}
	path := m.dataPath(WorksFile)
	err := writeTable(path, worksHeader, rows)
	if err == nil {
		log.Printf("exported %d works to %s\n", len(rows), path)
	}
	return err
}

func recordingRow(r Recording) []string {
	return []string{
		r.WorkID, r.WorkTitle, r.RecordingID, r.RecordingTitle,
		formatInt(r.Length), r.ArtistNames, r.ArtistIDs,
		strconv.FormatBool(r.IsPrimaryArtist),
		r.ReleaseID, r.ReleaseTitle, r.FirstReleaseDate, r.ISRCs,
	}
}

func (m *Music) exportRecordings(recordings []Recording) error {
	var rows [][]string
	for _, r := range recordings {
		rows = append(rows, recordingRow(r))
	}
	path := m.dataPath(RecordingsFile)
	err := writeTable(path, recordingsHeader, rows)
	if err == nil {
		log.Printf("exported %d recordings to %s\n", len(rows), path)
	}
	return err
}

func coverRow(c Cover) []string {
	return append(recordingRow(c.Recording), c.CoverArtistName, c.CoverArtistIDs)
}

func (m *Music) exportCovers(covers []Cover) error {
	var rows [][]string
	for _, c := range covers {
		rows = append(rows, coverRow(c))
	}
	path := m.dataPath(CoversFile)
	err := writeTable(path, coversHeader, rows)
	if err == nil {
		log.Printf("exported %d covers to %s\n", len(rows), path)
	}
	return err
}

func (m *Music) exportEnriched(enriched []EnrichedCover) error {
	var rows [][]string
	for _, e := range enriched {
		row := coverRow(e.Cover)
		if e.Match.Found {
			row = append(row,
				e.Match.TrackID, e.Match.TrackName, e.Match.ArtistName,
				strconv.Itoa(e.Match.Popularity), e.Match.AlbumName,
				e.Match.ReleaseDate, formatInt(e.Match.DurationMs),
				strconv.FormatBool(e.Match.Explicit), e.Match.ExternalURL,
				strconv.FormatFloat(e.Match.Score, 'f', -1, 64))
		} else {
			row = append(row, "", "", "", "", "", "", "", "", "", "")
		}
		rows = append(rows, row)
	}
	path := m.dataPath(EnrichedFile)
	err := writeTable(path, enrichedHeader, rows)
	if err == nil {
		log.Printf("exported %d enriched covers to %s\n", len(rows), path)
	}
	return err
}

func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// readCovers loads a previously exported covers table, mapping columns
// by header name.
func (m *Music) readCovers() ([]Cover, error) {
	path := m.dataPath(CoversFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty covers table %s", path)
	}

	col := make(map[string]int)
	for i, name := range records[0] {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var covers []Cover
	for _, row := range records[1:] {
		length, _ := strconv.Atoi(field(row, "recording_length_ms"))
		primary, _ := strconv.ParseBool(field(row, "is_bob_dylan"))
		covers = append(covers, Cover{
			Recording: Recording{
				WorkID:           field(row, "work_id"),
				WorkTitle:        field(row, "work_title"),
				RecordingID:      field(row, "recording_id"),
				RecordingTitle:   field(row, "recording_title"),
				Length:           length,
				ArtistNames:      field(row, "artist_names"),
				ArtistIDs:        field(row, "artist_ids"),
				IsPrimaryArtist:  primary,
				ReleaseID:        field(row, "release_id"),
				ReleaseTitle:     field(row, "release_title"),
				FirstReleaseDate: field(row, "first_release_date"),
				ISRCs:            field(row, "isrcs"),
			},
			CoverArtistName: field(row, "cover_artist_name"),
			CoverArtistIDs:  field(row, "cover_artist_ids"),
		})
	}
	return covers, nil
}

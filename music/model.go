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

// Provenance marker for works resolved through the local database.
const SourceDatabase = "database"

// Artist identity resolved from the database or the web service. RowID
// is the internal numeric identifier and is only valid when resolution
// happened through the database; API resolution clears it.
type Artist struct {
	Name     string
	SortName string
	ARID     string
	RowID    int64
	HasRowID bool
}

// Work metadata for an artist composition.
type Work struct {
	WorkID         string
	Title          string
	Type           string
	Language       string
	ISWC           string
	Aliases        string
	Relations      string
	Attributes     string
	Disambiguation string
}

// Recording of a work, denormalized to one row per (recording, release)
// pair. A recording with no releases yields a single row with empty
// release fields. Length is in milliseconds, zero when unknown.
type Recording struct {
	WorkID           string
	WorkTitle        string
	RecordingID      string
	RecordingTitle   string
	Length           int
	ArtistNames      string
	ArtistIDs        string
	IsPrimaryArtist  bool
	ReleaseID        string
	ReleaseTitle     string
	FirstReleaseDate string
	ISRCs            string
}

// Cover is a recording performed by someone other than the resolved
// artist, with the performer credit duplicated for downstream use.
type Cover struct {
	Recording
	CoverArtistName string
	CoverArtistIDs  string
}

// Match is the selected track from the external catalog for one
// (title, performer) query, with the score that produced the selection.
type Match struct {
	TrackID     string
	TrackName   string
	ArtistName  string
	Popularity  int
	AlbumName   string
	ReleaseDate string
	DurationMs  int
	Explicit    bool
	ExternalURL string
	Score       float64
	Found       bool
}

// EnrichedCover is a cover row merged with its match result.
type EnrichedCover struct {
	Cover
	Match Match
}

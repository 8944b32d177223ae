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
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/defsub/covers/config"
	"github.com/defsub/covers/lib/client"
)

const dylanID = "72c536dc-7137-4477-a521-567eeb840fa8"

func noSleep(t *testing.T) {
	t.Helper()
	saved := client.Sleep
	client.Sleep = func(time.Duration) {}
	t.Cleanup(func() {
		client.Sleep = saved
	})
}

func testMusic(t *testing.T, serviceURL string) *Music {
	t.Helper()
	noSleep(t)
	var cfg config.Config
	cfg.DataDir = t.TempDir()
	cfg.Client.UserAgent = "covers-test"
	cfg.MusicBrainz.Artist = "Bob Dylan"
	cfg.MusicBrainz.ServiceURL = serviceURL
	cfg.MusicBrainz.PageLimit = 100
	m := NewMusic(&cfg)
	t.Cleanup(m.Close)
	return m
}

// seedDatabase opens a sqlite database with the subset of the imported
// MusicBrainz schema the lookups touch, seeded with Bob Dylan, two of
// his works and an unrelated performer credit.
func seedDatabase(t *testing.T, m *Music) {
	t.Helper()
	m.config.MusicBrainz.DB.Driver = "sqlite3"
	m.config.MusicBrainz.DB.Source = filepath.Join(t.TempDir(), "musicbrainz.db")
	if err := m.openDB(); err != nil {
		t.Fatalf("openDB: %s", err)
	}

	stmts := []string{
		`CREATE TABLE artist (id integer, gid text, name text, sort_name text, begin_date_year integer)`,
		`CREATE TABLE work (id integer, gid text, name text, type integer, comment text, iswc text, language text)`,
		`CREATE TABLE work_type (id integer, name text)`,
		`CREATE TABLE l_artist_work (entity0 integer, entity1 integer, link integer)`,
		`CREATE TABLE link (id integer, link_type integer)`,
		`CREATE TABLE link_type (id integer, name text)`,

		`INSERT INTO artist VALUES (42, '` + dylanID + `', 'Bob Dylan', 'Dylan, Bob', 1941)`,
		`INSERT INTO artist VALUES (43, '00000000-0000-0000-0000-000000000002', 'Bob Dylan', 'Dylan, Bob (tribute)', 1990)`,

		`INSERT INTO work_type VALUES (1, 'Song')`,
		`INSERT INTO work VALUES (100, 'w-blowin', 'Blowin'' in the Wind', 1, '', 'T-070.074.265-9', 'eng')`,
		`INSERT INTO work VALUES (101, 'w-hurricane', 'Hurricane', 1, '', '', 'eng')`,
		`INSERT INTO work VALUES (102, 'w-other', 'Not His Song', 1, '', '', 'eng')`,

		`INSERT INTO link_type VALUES (1, 'writer')`,
		`INSERT INTO link_type VALUES (2, 'performer')`,
		`INSERT INTO link VALUES (10, 1)`,
		`INSERT INTO link VALUES (11, 2)`,

		`INSERT INTO l_artist_work VALUES (42, 100, 10)`,
		`INSERT INTO l_artist_work VALUES (42, 101, 10)`,
		`INSERT INTO l_artist_work VALUES (42, 102, 11)`,
	}
	for _, s := range stmts {
		if err := m.db.Exec(s).Error; err != nil {
			t.Fatalf("seed: %s", err)
		}
	}
}

func TestResolveArtistFromDatabase(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
	defer server.Close()

	m := testMusic(t, server.URL)
	seedDatabase(t, m)

	// name matching is case insensitive
	m.config.MusicBrainz.Artist = "bob dylan"

	artist, err := m.ResolveArtist()
	if err != nil {
		t.Fatalf("ResolveArtist: %s", err)
	}
	if artist.ARID != dylanID {
		t.Errorf("expected the earliest begin year, got %s", artist.ARID)
	}
	if !artist.HasRowID || artist.RowID != 42 {
		t.Errorf("expected row id 42, got %d", artist.RowID)
	}
	if requests != 0 {
		t.Errorf("expected no web service requests, got %d", requests)
	}
}

func TestResolveArtistViaService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"count":1,"offset":0,"artists":[{"id":"`+dylanID+
				`","score":100,"name":"Bob Dylan","sort-name":"Dylan, Bob"}]}`)
		}))
	defer server.Close()

	m := testMusic(t, server.URL)

	artist, err := m.ResolveArtist()
	if err != nil {
		t.Fatalf("ResolveArtist: %s", err)
	}
	if artist.ARID != dylanID {
		t.Errorf("got %s", artist.ARID)
	}
	if artist.HasRowID || artist.RowID != 0 {
		t.Errorf("row id must be cleared on the service path, got %d", artist.RowID)
	}
}

func TestResolveArtistNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"count":0,"offset":0,"artists":[]}`)
		}))
	defer server.Close()

	m := testMusic(t, server.URL)
	m.config.MusicBrainz.Artist = "Nobody At All"

	_, err := m.ResolveArtist()
	if !errors.Is(err, ErrArtistNotFound) {
		t.Fatalf("expected ErrArtistNotFound, got %v", err)
	}
}

func TestFetchWorksFromDatabase(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
	defer server.Close()

	m := testMusic(t, server.URL)
	seedDatabase(t, m)

	artist, err := m.ResolveArtist()
	if err != nil {
		t.Fatalf("ResolveArtist: %s", err)
	}
	works, err := m.FetchWorks(artist)
	if err != nil {
		t.Fatalf("FetchWorks: %s", err)
	}

	// only writing credits, ordered by name
	if len(works) != 2 {
		t.Fatalf("expected 2 works, got %d", len(works))
	}
	if works[0].Title != "Blowin' in the Wind" || works[1].Title != "Hurricane" {
		t.Errorf("got %q, %q", works[0].Title, works[1].Title)
	}
	if works[0].Type != "Song" {
		t.Errorf("got type %q", works[0].Type)
	}
	for _, w := range works {
		if w.Relations != SourceDatabase {
			t.Errorf("work %s missing database provenance", w.WorkID)
		}
	}
	if requests != 0 {
		t.Errorf("expected no web service requests, got %d", requests)
	}
}

func TestFetchWorksFallbackIsComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"work-count":2,"work-offset":0,"works":[`+
				`{"id":"w1","title":"Blowin' in the Wind"},`+
				`{"id":"w2","title":"Hurricane"}]}`)
		}))
	defer server.Close()

	m := testMusic(t, server.URL)

	// a row id without a working database forces the fallback
	artist := &Artist{Name: "Bob Dylan", ARID: dylanID, RowID: 42, HasRowID: true}
	works, err := m.FetchWorks(artist)
	if err != nil {
		t.Fatalf("FetchWorks: %s", err)
	}
	if len(works) != 2 {
		t.Fatalf("expected 2 works, got %d", len(works))
	}
	// fallback is all or nothing, no row may carry database provenance
	for _, w := range works {
		if w.Relations == SourceDatabase {
			t.Errorf("work %s has database provenance after fallback", w.WorkID)
		}
	}
}

func TestFetchRecordingsExpansion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"recording-count":2,"recording-offset":0,"recordings":[`+
				`{"id":"r1","title":"Hurricane","length":516000,`+
				`"first-release-date":"1976-01-05",`+
				`"artist-credit":[{"name":"Bob Dylan","artist":{"id":"`+dylanID+`","name":"Bob Dylan"}}],`+
				`"releases":[{"id":"rel1","title":"Desire","date":"1976-01-05"},`+
				`{"id":"rel2","title":"Desire (reissue)","date":""}],`+
				`"isrcs":["USSM17600123"]},`+
				`{"id":"r2","title":"Hurricane",`+
				`"artist-credit":[{"name":"Bob Dylan","artist":{"id":"00000000-0000-0000-0000-000000000002","name":"Bob Dylan"}}],`+
				`"releases":[]}]}`)
		}))
	defer server.Close()

	m := testMusic(t, server.URL)
	artist := &Artist{Name: "Bob Dylan", ARID: dylanID}
	works := []Work{{WorkID: "w1", Title: "Hurricane"}}

	recordings, err := m.FetchRecordings(artist, works)
	if err != nil {
		t.Fatalf("FetchRecordings: %s", err)
	}

	// one row per release plus one row for the release-less recording
	if len(recordings) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(recordings))
	}

	first := recordings[0]
	if first.ReleaseID != "rel1" || first.FirstReleaseDate != "1976-01-05" {
		t.Errorf("got %+v", first)
	}
	if !first.IsPrimaryArtist {
		t.Error("credited recording must be primary")
	}

	// missing release date falls back to the recording date
	second := recordings[1]
	if second.ReleaseID != "rel2" || second.FirstReleaseDate != "1976-01-05" {
		t.Errorf("got %+v", second)
	}

	// same display name, different artist id, so not the primary artist
	third := recordings[2]
	if third.ReleaseID != "" || third.IsPrimaryArtist {
		t.Errorf("got %+v", third)
	}
	if third.WorkTitle != "Hurricane" {
		t.Errorf("got work title %q", third.WorkTitle)
	}
}

func TestFetchRecordingsDateValidation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"recording-count":2,"recording-offset":0,"recordings":[`+
				`{"id":"r1","title":"Hurricane",`+
				`"first-release-date":"1976-01-05",`+
				`"releases":[{"id":"rel1","title":"Desire","date":"not a date"}]},`+
				`{"id":"r2","title":"Hurricane",`+
				`"first-release-date":"????",`+
				`"releases":[]}]}`)
		}))
	defer server.Close()

	m := testMusic(t, server.URL)
	artist := &Artist{Name: "Bob Dylan", ARID: dylanID}
	works := []Work{{WorkID: "w1", Title: "Hurricane"}}

	recordings, err := m.FetchRecordings(artist, works)
	if err != nil {
		t.Fatalf("FetchRecordings: %s", err)
	}
	if len(recordings) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(recordings))
	}

	// a malformed release date falls through to the recording date
	if recordings[0].FirstReleaseDate != "1976-01-05" {
		t.Errorf("got %q", recordings[0].FirstReleaseDate)
	}
	// malformed with nothing to fall back to is dropped
	if recordings[1].FirstReleaseDate != "" {
		t.Errorf("got %q", recordings[1].FirstReleaseDate)
	}
}

func TestFetchRecordingsHaltsOnError(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
			if requests > 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `{"recording-count":0,"recording-offset":0,"recordings":[]}`)
		}))
	defer server.Close()

	m := testMusic(t, server.URL)
	artist := &Artist{Name: "Bob Dylan", ARID: dylanID}
	works := []Work{
		{WorkID: "w1", Title: "Hurricane"},
		{WorkID: "w2", Title: "Isis"},
		{WorkID: "w3", Title: "Mozambique"},
	}

	_, err := m.FetchRecordings(artist, works)
	if err == nil {
		t.Fatal("expected error")
	}
	if requests != 2 {
		t.Errorf("expected the failure to halt the run, got %d requests", requests)
	}
}

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

package musicbrainz

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/defsub/covers/config"
	"github.com/defsub/covers/lib/client"
	"github.com/google/uuid"
)

// MusicBrainz is used for:
// * getting the MBID for artists
// * browsing all works written by an artist
// * browsing all recordings of a work, with credits and releases
type MusicBrainz struct {
	client *client.Client
	base   string
	limit  int
}

func NewMusicBrainz(config *config.Config) *MusicBrainz {
	limit := config.MusicBrainz.PageLimit
	if limit <= 0 {
		limit = 100
	}
	return &MusicBrainz{
		client: client.NewClient(&config.Client),
		base:   config.MusicBrainz.ServiceURL,
		limit:  limit,
	}
}

type ArtistsPage struct {
	Artists []Artist `json:"artists"`
	Offset  int      `json:"offset"`
	Count   int      `json:"count"`
}

type Artist struct {
	ID             string `json:"id"`
	Score          int    `json:"score"`
	Name           string `json:"name"`
	SortName       string `json:"sort-name"`
	Disambiguation string `json:"disambiguation"`
	Type           string `json:"type"`
}

type ArtistCredit struct {
	Name   string `json:"name"`
	Join   string `json:"joinphrase"`
	Artist Artist `json:"artist"`
}

type Alias struct {
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
	Type     string `json:"type"`
}

type Relation struct {
	Type       string   `json:"type"`
	TargetType string   `json:"target-type"`
	Artist     Artist   `json:"artist"`
	Attributes []string `json:"attributes"`
}

type WorkAttribute struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Work struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Type           string          `json:"type"`
	Language       string          `json:"language"`
	ISWCs          []string        `json:"iswcs"`
	Aliases        []Alias         `json:"aliases"`
	Relations      []Relation      `json:"relations"`
	Attributes     []WorkAttribute `json:"attributes"`
	Disambiguation string          `json:"disambiguation"`
}

func (w Work) AliasNames() []string {
	var names []string
	for _, a := range w.Aliases {
		names = append(names, a.Name)
	}
	return names
}

type WorksPage struct {
	Works  []Work `json:"works"`
	Offset int    `json:"work-offset"`
	Count  int    `json:"work-count"`
}

type Release struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

type Recording struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Length           int            `json:"length"`
	ArtistCredit     []ArtistCredit `json:"artist-credit"`
	Releases         []Release      `json:"releases"`
	ISRCs            []string       `json:"isrcs"`
	FirstReleaseDate string         `json:"first-release-date"`
}

// CreditNames are the display names from the recording artist credit.
func (r Recording) CreditNames() []string {
	var names []string
	for _, c := range r.ArtistCredit {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return names
}

// CreditIDs are the artist MBIDs from the recording artist credit.
func (r Recording) CreditIDs() []string {
	var ids []string
	for _, c := range r.ArtistCredit {
		if c.Artist.ID != "" {
			ids = append(ids, c.Artist.ID)
		}
	}
	return ids
}

// CreditedTo reports whether the artist with the given MBID appears in
// the recording artist credit. The check is by identifier only, display
// names collide across different real-world artists.
func (r Recording) CreditedTo(arid string) bool {
	for _, c := range r.ArtistCredit {
		if c.Artist.ID == arid {
			return true
		}
	}
	return false
}

type RecordingsPage struct {
	Recordings []Recording `json:"recordings"`
	Offset     int         `json:"recording-offset"`
	Count      int         `json:"recording-count"`
}

// Search for an artist by name, returning the top ranked hit.
func (m *MusicBrainz) SearchArtist(name string) (*Artist, error) {
	var result ArtistsPage
	query := fmt.Sprintf(`artist:"%s"`, name)
	u := fmt.Sprintf(`%s/artist?fmt=json&query=%s&limit=1`,
		m.base, url.QueryEscape(query))
	err := m.client.GetJson(u, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Artists) == 0 {
		return nil, nil
	}
	artist := result.Artists[0]
	if _, err := uuid.Parse(artist.ID); err != nil {
		return nil, fmt.Errorf("bad artist mbid %q: %v", artist.ID, err)
	}
	return &artist, nil
}

// Get all works written by an artist from MusicBrainz.
func (m *MusicBrainz) ArtistWorks(arid string) ([]Work, error) {
	var works []Work
	offset := 0
	for {
		result, err := m.doArtistWorks(arid, m.limit, offset)
		if err != nil {
			return nil, err
		}
		works = append(works, result.Works...)
		if offset+m.limit >= result.Count {
			break
		}
		offset += m.limit
	}
	return works, nil
}

func (m *MusicBrainz) doArtistWorks(arid string, limit, offset int) (*WorksPage, error) {
	var result WorksPage
	inc := []string{"aliases", "artist-rels", "iswcs", "tags"}
	u := fmt.Sprintf("%s/work?fmt=json&artist=%s&inc=%s&limit=%d&offset=%d",
		m.base, arid, strings.Join(inc, "%2B"), limit, offset)
	err := m.client.GetJson(u, &result)
	return &result, err
}

// Get all recordings of a work from MusicBrainz. An empty result means
// the work has no recordings, not an error.
func (m *MusicBrainz) WorkRecordings(wid string) ([]Recording, error) {
	var recordings []Recording
	offset := 0
	for {
		result, err := m.doWorkRecordings(wid, m.limit, offset)
		if err != nil {
			return nil, err
		}
		recordings = append(recordings, result.Recordings...)
		if offset+m.limit >= result.Count {
			break
		}
		offset += m.limit
	}
	return recordings, nil
}

func (m *MusicBrainz) doWorkRecordings(wid string, limit, offset int) (*RecordingsPage, error) {
	var result RecordingsPage
	inc := []string{"artist-credits", "releases", "isrcs"}
	u := fmt.Sprintf("%s/recording?fmt=json&work=%s&inc=%s&limit=%d&offset=%d",
		m.base, wid, strings.Join(inc, "%2B"), limit, offset)
	err := m.client.GetJson(u, &result)
	return &result, err
}

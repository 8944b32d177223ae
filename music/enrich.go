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
	"os"

	"github.com/defsub/covers/lib/log"
)

var ErrNoCovers = errors.New("covers table not found")

// Enrich loads the exported covers table, looks up each cover in the
// external catalog and writes the merged table. The covers table must
// exist; that is checked before any network call is made.
func (m *Music) Enrich() error {
	path := m.dataPath(CoversFile)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s, run sync first", ErrNoCovers, path)
	}

	covers, err := m.readCovers()
	if err != nil {
		return err
	}

	matcher := NewMatcher(m.config)
	var enriched []EnrichedCover
	for _, c := range covers {
		title := c.RecordingTitle
		if title == "" {
			title = c.WorkTitle
		}
		artist := c.CoverArtistName
		if artist == "" {
			artist = c.ArtistNames
		}
		match, err := matcher.LookupTrack(title, artist)
		if err != nil {
			return err
		}
		enriched = append(enriched, EnrichedCover{Cover: c, Match: *match})
	}
	log.Printf("matched %d covers\n", len(enriched))

	return m.exportEnriched(enriched)
}

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
	"github.com/defsub/covers/config"
	"github.com/defsub/covers/lib/log"
	"github.com/defsub/covers/lib/musicbrainz"
	"gorm.io/gorm"
)

// Music builds the works, recordings and covers dataset for the
// configured artist, preferring the local database and falling back to
// the MusicBrainz web service.
type Music struct {
	config *config.Config
	db     *gorm.DB
	mbz    *musicbrainz.MusicBrainz
}

func NewMusic(config *config.Config) *Music {
	return &Music{
		config: config,
		mbz:    musicbrainz.NewMusicBrainz(config),
	}
}

// Open the local database. Failure is not fatal, the web service path
// covers everything the database would have provided.
func (m *Music) Open() {
	err := m.openDB()
	if err != nil {
		log.Printf("database unavailable, using web service only: %s\n", err)
	}
}

func (m *Music) Close() {
	m.closeDB()
}

// Sync builds and exports the works, recordings and covers tables.
// Each table is written as its stage completes so a later failure
// leaves earlier outputs intact.
func (m *Music) Sync() error {
	artist, err := m.ResolveArtist()
	if err != nil {
		return err
	}

	works, err := m.FetchWorks(artist)
	if err != nil {
		return err
	}
	err = m.exportWorks(works)
	if err != nil {
		return err
	}

	recordings, err := m.FetchRecordings(artist, works)
	if err != nil {
		return err
	}
	err = m.exportRecordings(recordings)
	if err != nil {
		return err
	}

	covers := m.IdentifyCovers(recordings)
	return m.exportCovers(covers)
}

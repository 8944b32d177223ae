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

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrDatabaseUnavailable = errors.New("database unavailable")

func (m *Music) openDB() (err error) {
	var glog logger.Interface
	if m.config.MusicBrainz.DB.LogMode == false {
		glog = logger.Discard
	} else {
		glog = logger.Default
	}
	cfg := &gorm.Config{
		Logger: glog,
	}

	switch m.config.MusicBrainz.DB.Driver {
	case "sqlite3":
		m.db, err = gorm.Open(sqlite.Open(m.config.MusicBrainz.DB.Source), cfg)
	case "postgres":
		m.db, err = gorm.Open(postgres.Open(m.config.MusicBrainz.DB.Source), cfg)
	default:
		err = errors.New("driver not supported")
	}
	if err != nil {
		m.db = nil
	}
	return
}

func (m *Music) closeDB() {
	if m.db == nil {
		return
	}
	conn, err := m.db.DB()
	if err != nil {
		return
	}
	conn.Close()
}

type artistRow struct {
	Gid      string
	ID       int64
	SortName string
}

// Find an artist in the imported MusicBrainz schema by exact
// case-insensitive name, preferring the earliest begin year then sort
// name. No match is not an error, the caller falls back to the API.
func (m *Music) lookupArtist(name string) (*Artist, error) {
	if m.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	var rows []artistRow
	err := m.db.Raw(
		`SELECT gid, id, sort_name`+
			` FROM artist`+
			` WHERE lower(name) = lower(?)`+
			` ORDER BY begin_date_year NULLS FIRST, sort_name`+
			` LIMIT 1`, name).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &Artist{
		Name:     name,
		SortName: rows[0].SortName,
		ARID:     rows[0].Gid,
		RowID:    rows[0].ID,
		HasRowID: true,
	}, nil
}

type workRow struct {
	WorkID   string
	Title    string
	Type     string
	Comment  string
	Iswc     string
	Language string
}

// Works written by the artist, joined through the artist-work
// relationship table and restricted to writing credits.
func (m *Music) lookupWorks(artist *Artist) ([]Work, error) {
	if m.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	if artist.HasRowID == false {
		return nil, ErrDatabaseUnavailable
	}

	var rows []workRow
	err := m.db.Raw(
		`SELECT DISTINCT`+
			` w.gid AS work_id,`+
			` w.name AS title,`+
			` wt.name AS type,`+
			` w.comment AS comment,`+
			` w.iswc AS iswc,`+
			` w.language AS language`+
			` FROM work w`+
			` LEFT JOIN work_type wt ON w.type = wt.id`+
			` JOIN l_artist_work law ON law.entity1 = w.id`+
			` JOIN link l ON l.id = law.link`+
			` JOIN link_type lt ON lt.id = l.link_type`+
			` WHERE law.entity0 = ? AND lt.name IN ('composer', 'writer', 'lyricist')`+
			` ORDER BY w.name`, artist.RowID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var works []Work
	for _, r := range rows {
		works = append(works, Work{
			WorkID:         r.WorkID,
			Title:          r.Title,
			Type:           r.Type,
			Language:       r.Language,
			ISWC:           r.Iswc,
			Aliases:        "",
			Relations:      SourceDatabase,
			Attributes:     "",
			Disambiguation: r.Comment,
		})
	}
	return works, nil
}

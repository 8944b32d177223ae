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
	"github.com/defsub/covers/lib/log"
)

// IdentifyCovers partitions the recordings table, keeping the rows not
// credited to the resolved artist. The performer credit is duplicated
// into cover columns so downstream consumers need not re-derive it.
func (m *Music) IdentifyCovers(recordings []Recording) []Cover {
	var covers []Cover
	for _, r := range recordings {
		if r.IsPrimaryArtist {
			continue
		}
		covers = append(covers, Cover{
			Recording:       r,
			CoverArtistName: r.ArtistNames,
			CoverArtistIDs:  r.ArtistIDs,
		})
	}
	log.Printf("identified %d cover recordings\n", len(covers))
	return covers
}

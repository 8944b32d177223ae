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

package main

import (
	"github.com/defsub/covers/lib/log"
	"github.com/defsub/covers/music"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "build the works, recordings and covers tables",
	Run: func(cmd *cobra.Command, args []string) {
		sync()
	},
}

var syncArtist string

func sync() {
	cfg := getConfig()
	if syncArtist != "" {
		cfg.MusicBrainz.Artist = syncArtist
	}

	m := music.NewMusic(cfg)
	m.Open()
	defer m.Close()
	log.CheckError(m.Sync())
}

func init() {
	syncCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	syncCmd.Flags().StringVarP(&syncArtist, "artist", "a", "", "artist to analyse")
	rootCmd.AddCommand(syncCmd)
}

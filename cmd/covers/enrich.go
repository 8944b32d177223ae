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
	"errors"

	"github.com/defsub/covers/lib/log"
	"github.com/defsub/covers/music"
	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "enrich the covers table with catalog popularity",
	Run: func(cmd *cobra.Command, args []string) {
		enrich()
	},
}

func enrich() {
	cfg := getConfig()
	if cfg.Spotify.ID == "" || cfg.Spotify.Secret == "" {
		log.CheckError(errors.New(
			"spotify client id/secret must be configured or set in the environment"))
	}

	m := music.NewMusic(cfg)
	log.CheckError(m.Enrich())
}

func init() {
	enrichCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.AddCommand(enrichCmd)
}

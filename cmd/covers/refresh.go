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
	"github.com/defsub/covers/lib/dump"
	"github.com/defsub/covers/lib/log"
	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "download and import the MusicBrainz database dump",
	Run: func(cmd *cobra.Command, args []string) {
		refresh()
	},
}

var (
	refreshOverwrite bool
	refreshNoVerify  bool
	refreshNoDocker  bool
)

func refresh() {
	cfg := getConfig()
	log.CheckError(dump.DownloadAndPrepare(cfg,
		!refreshNoVerify, refreshOverwrite, !refreshNoDocker))
}

func init() {
	refreshCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	refreshCmd.Flags().BoolVar(&refreshOverwrite, "overwrite", false,
		"re-download dump archives even if they exist")
	refreshCmd.Flags().BoolVar(&refreshNoVerify, "no-verify", false,
		"skip checksum verification")
	refreshCmd.Flags().BoolVar(&refreshNoDocker, "no-docker", false,
		"use a locally installed PostgreSQL instance")
	rootCmd.AddCommand(refreshCmd)
}

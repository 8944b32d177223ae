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
	"fmt"
	"os"

	"github.com/defsub/covers/config"
	"github.com/defsub/covers/lib/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "covers",
	Short: "Covers builds an artist's works, recordings and covers dataset",
	Long: `Covers resolves an artist against a local MusicBrainz import or the
public web service, expands their works into all known recordings,
extracts the cover versions and enriches them with catalog popularity.`,
}

var configFile string
var configPath string
var configName string

func getConfig() *config.Config {
	if configPath == "" {
		configPath = os.Getenv("COVERS_HOME")
	}
	if configName == "" {
		configName = os.Getenv("COVERS_CONFIG")
	}
	if configFile != "" {
		config.SetConfigFile(configFile)
	} else {
		if configPath == "" {
			configPath = "."
		}
		if configName == "" {
			configName = "covers"
		}
		config.AddConfigPath(configPath)
		config.SetConfigName(configName)
	}
	config, err := config.GetConfig()
	log.CheckError(err)
	return config
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

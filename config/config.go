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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/defsub/covers"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Driver  string
	Source  string
	LogMode bool
}

type ClientConfig struct {
	CacheDir  string
	MaxAge    time.Duration
	UseCache  bool
	UserAgent string
}

type MusicBrainzConfig struct {
	Artist     string
	DB         DatabaseConfig
	Mirror     string
	DumpFiles  []string
	PageLimit  int
	ServiceURL string
}

type SpotifyConfig struct {
	ID          string
	Secret      string
	Market      string
	SearchLimit int
}

type LastFMAPIConfig struct {
	Key    string
	Secret string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type Config struct {
	Client      ClientConfig
	DataDir     string
	LastFM      LastFMAPIConfig
	MusicBrainz MusicBrainzConfig
	Postgres    PostgresConfig
	Spotify     SpotifyConfig
}

func configDefaults(v *viper.Viper) {
	v.SetDefault("Client.CacheDir", ".httpcache")
	v.SetDefault("Client.MaxAge", "720h") // 30 days in hours
	v.SetDefault("Client.UseCache", "false")
	v.SetDefault("Client.UserAgent", userAgent())

	v.SetDefault("DataDir", "data")

	v.SetDefault("LastFM.Key", "")
	v.SetDefault("LastFM.Secret", "")

	v.SetDefault("MusicBrainz.Artist", "Bob Dylan")
	v.SetDefault("MusicBrainz.DB.Driver", "postgres")
	v.SetDefault("MusicBrainz.DB.Source",
		"host=localhost port=5432 user=musicbrainz password=musicbrainz dbname=musicbrainz")
	v.SetDefault("MusicBrainz.DB.LogMode", "false")
	v.SetDefault("MusicBrainz.Mirror",
		"https://ftp.musicbrainz.org/pub/musicbrainz/data/fullexport")
	v.SetDefault("MusicBrainz.DumpFiles", []string{
		"mbdump.tar.bz2",
		"mbdump-derived.tar.bz2",
		"mbdump-stats.tar.bz2",
	})
	v.SetDefault("MusicBrainz.PageLimit", "100")
	v.SetDefault("MusicBrainz.ServiceURL", "https://musicbrainz.org/ws/2")

	v.SetDefault("Postgres.Host", "localhost")
	v.SetDefault("Postgres.Port", "5432")
	v.SetDefault("Postgres.User", "musicbrainz")
	v.SetDefault("Postgres.Password", "musicbrainz")
	v.SetDefault("Postgres.Database", "musicbrainz")

	v.SetDefault("Spotify.ID", os.Getenv("SPOTIFY_CLIENT_ID"))
	v.SetDefault("Spotify.Secret", os.Getenv("SPOTIFY_CLIENT_SECRET"))
	v.SetDefault("Spotify.Market", "US")
	v.SetDefault("Spotify.SearchLimit", "5")
}

func userAgent() string {
	return covers.AppName + "/" + covers.Version + " ( " + covers.Contact + " ) "
}

func readConfig(v *viper.Viper) (*Config, error) {
	var config Config
	var pathRegexp = regexp.MustCompile(`(file|dir)$`)
	err := v.ReadInConfig()
	dir := filepath.Dir(v.ConfigFileUsed())
	for _, k := range v.AllKeys() {
		if pathRegexp.MatchString(k) {
			val := v.Get(k)
			s, ok := val.(string)
			if ok && s != "" && strings.HasPrefix(s, "/") == false {
				v.Set(k, fmt.Sprintf("%s/%s", dir, s))
			}
		}
	}
	if err == nil {
		err = v.Unmarshal(&config)
	}
	return &config, err
}

func TestConfig() (*Config, error) {
	testDir := os.Getenv("TEST_CONFIG")
	if testDir == "" {
		return nil, errors.New("missing test config")
	}
	v := viper.New()
	configDefaults(v)
	v.SetConfigFile(filepath.Join(testDir, "test.yaml"))
	v.SetDefault("MusicBrainz.DB.Driver", "sqlite3")
	v.SetDefault("MusicBrainz.DB.Source", filepath.Join(testDir, "musicbrainz.db"))
	v.SetDefault("DataDir", testDir)
	return readConfig(v)
}

var configFile, configPath, configName string

func SetConfigFile(path string) {
	configFile = path
}

func AddConfigPath(path string) {
	configPath = path
}

func SetConfigName(name string) {
	configName = name
}

func GetConfig() (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	if configName != "" {
		v.SetConfigName(configName)
	}
	configDefaults(v)
	return readConfig(v)
}

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
	"os"
	"path/filepath"
	"testing"
)

func setTestConfigDir(t *testing.T, dir string) {
	t.Helper()
	saved, had := os.LookupEnv("TEST_CONFIG")
	os.Setenv("TEST_CONFIG", dir)
	t.Cleanup(func() {
		if had {
			os.Setenv("TEST_CONFIG", saved)
		} else {
			os.Unsetenv("TEST_CONFIG")
		}
	})
}

func TestTestConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := "MusicBrainz:\n  Artist: Joan Baez\n"
	err := os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(yaml), 0644)
	if err != nil {
		t.Fatal(err)
	}
	setTestConfigDir(t, dir)

	cfg, err := TestConfig()
	if err != nil {
		t.Fatalf("TestConfig: %s", err)
	}
	if cfg.MusicBrainz.Artist != "Joan Baez" {
		t.Errorf("got artist %q", cfg.MusicBrainz.Artist)
	}
	if cfg.MusicBrainz.DB.Driver != "sqlite3" {
		t.Errorf("got driver %q", cfg.MusicBrainz.DB.Driver)
	}
	if cfg.DataDir != dir {
		t.Errorf("got data dir %q", cfg.DataDir)
	}
	// relative paths resolve against the config file location
	if cfg.Client.CacheDir != dir+"/.httpcache" {
		t.Errorf("got cache dir %q", cfg.Client.CacheDir)
	}
	if cfg.Client.UserAgent == "" {
		t.Error("expected a default user agent")
	}
}

func TestTestConfigRequiresEnv(t *testing.T) {
	saved, had := os.LookupEnv("TEST_CONFIG")
	os.Unsetenv("TEST_CONFIG")
	t.Cleanup(func() {
		if had {
			os.Setenv("TEST_CONFIG", saved)
		}
	})

	if _, err := TestConfig(); err == nil {
		t.Fatal("expected error without TEST_CONFIG")
	}
}

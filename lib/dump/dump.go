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

// Package dump downloads, verifies and imports the MusicBrainz
// database exports that back the local query path.
package dump

import (
	"archive/tar"
	"compress/bzip2"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cavaliercoder/grab"
	"github.com/defsub/covers/config"
	"github.com/defsub/covers/lib/client"
	"github.com/defsub/covers/lib/log"
)

type Downloader struct {
	config  *config.Config
	client  *client.Client
	release string
}

func NewDownloader(config *config.Config) *Downloader {
	return &Downloader{
		config: config,
		client: client.NewClient(&config.Client),
	}
}

func (d *Downloader) dumpDir() string {
	return filepath.Join(d.config.DataDir, "musicbrainz")
}

// ResolveRelease reads the LATEST marker from the mirror and caches it
// for the downloader's lifetime.
func (d *Downloader) ResolveRelease() (string, error) {
	if d.release != "" {
		return d.release, nil
	}
	url := d.config.MusicBrainz.Mirror + "/LATEST"
	_, body, err := d.client.Get(url)
	if err != nil {
		return "", err
	}
	release := strings.TrimSpace(string(body))
	if release == "" {
		return "", fmt.Errorf("unable to determine the latest release")
	}
	log.Printf("latest dump release is %s\n", release)
	d.release = release
	return release, nil
}

// Download fetches the configured dump archives, skipping files that
// are already present unless overwrite is set.
func (d *Downloader) Download(verify, overwrite bool) ([]string, error) {
	release, err := d.ResolveRelease()
	if err != nil {
		return nil, err
	}
	releaseDir := filepath.Join(d.dumpDir(), release)
	err = os.MkdirAll(releaseDir, 0755)
	if err != nil {
		return nil, err
	}

	var archives []string
	for _, name := range d.config.MusicBrainz.DumpFiles {
		target := filepath.Join(releaseDir, name)
		if _, err := os.Stat(target); err == nil && !overwrite {
			log.Printf("%s already present, skipping download\n", target)
			archives = append(archives, target)
			continue
		}

		url := fmt.Sprintf("%s/%s/%s", d.config.MusicBrainz.Mirror, release, name)
		log.Printf("downloading %s\n", url)
		resp, err := grab.Get(target, url)
		if err != nil {
			return nil, err
		}
		log.Printf("saved %s\n", resp.Filename)

		if verify {
			err = d.VerifyChecksum(target)
			if err != nil {
				return nil, err
			}
		}
		archives = append(archives, target)
	}
	return archives, nil
}

// VerifyChecksum compares an archive against the md5 published next to
// it on the mirror.
func (d *Downloader) VerifyChecksum(archive string) error {
	release, err := d.ResolveRelease()
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s/%s.md5",
		d.config.MusicBrainz.Mirror, release, filepath.Base(archive))
	_, body, err := d.client.Get(url)
	if err != nil {
		return err
	}
	fields := strings.Fields(string(body))
	if len(fields) == 0 {
		return fmt.Errorf("empty checksum file %s", url)
	}
	expected := fields[0]

	actual, err := Checksum(archive)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("checksum mismatch for %s: %s != %s",
			archive, actual, expected)
	}
	log.Printf("checksum verified for %s\n", archive)
	return nil
}

func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := md5.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// Extract unpacks a tar.bz2 archive next to itself and returns the
// destination directory. Entries that would escape the destination are
// rejected.
func (d *Downloader) Extract(archive string) (string, error) {
	dest := strings.TrimSuffix(archive, ".tar.bz2")
	err := os.MkdirAll(dest, 0755)
	if err != nil {
		return "", err
	}
	log.Printf("extracting %s -> %s\n", archive, dest)

	f, err := os.Open(archive)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader := tar.NewReader(bzip2.NewReader(f))
	for {
		hdr, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		target := filepath.Join(dest, hdr.Name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return "", fmt.Errorf("unsafe path in %s: %s", archive, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return "", err
			}
			out, err := os.Create(target)
			if err != nil {
				return "", err
			}
			_, err = io.Copy(out, reader)
			out.Close()
			if err != nil {
				return "", err
			}
		}
	}
	return dest, nil
}

func (d *Downloader) psqlEnv() []string {
	pg := d.config.Postgres
	return append(os.Environ(),
		"PGHOST="+pg.Host,
		"PGPORT="+strconv.Itoa(pg.Port),
		"PGUSER="+pg.User,
		"PGPASSWORD="+pg.Password,
		"PGDATABASE="+pg.Database)
}

// ImportAll executes the extracted SQL files in alphabetical order with
// psql. Imports can take a long time so finished files get a .done
// marker and are skipped on a resumed run.
func (d *Downloader) ImportAll(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no sql files in %s, did the extract succeed?", dir)
	}
	sort.Strings(matches)

	for _, sqlFile := range matches {
		marker := sqlFile + ".done"
		if _, err := os.Stat(marker); err == nil {
			log.Printf("skipping %s (marker present)\n", sqlFile)
			continue
		}

		log.Printf("importing %s\n", sqlFile)
		f, err := os.Open(sqlFile)
		if err != nil {
			return err
		}
		cmd := exec.Command("psql", "-v", "ON_ERROR_STOP=1")
		cmd.Env = d.psqlEnv()
		cmd.Stdin = f
		out, err := cmd.CombinedOutput()
		f.Close()
		if err != nil {
			log.Println(string(out))
			return fmt.Errorf("psql import failed for %s: %w", sqlFile, err)
		}

		if err := os.WriteFile(marker, nil, 0644); err != nil {
			return err
		}
		log.Printf("finished importing %s\n", sqlFile)
	}
	return nil
}

// EnsureDatabase makes PostgreSQL available for the import, either as a
// docker container or a locally installed instance.
func (d *Downloader) EnsureDatabase(useDocker bool) error {
	if useDocker {
		return d.ensureDockerDatabase("postgres:14", "musicbrainz-postgres")
	}
	return d.ensureLocalDatabase()
}

func (d *Downloader) ensureDockerDatabase(image, container string) error {
	inspect := exec.Command("docker", "inspect", container)
	if inspect.Run() == nil {
		log.Printf("docker container %q already exists\n", container)
		return nil
	}

	pg := d.config.Postgres
	cmd := exec.Command("docker", "run", "-d",
		"--name", container,
		"-e", "POSTGRES_USER="+pg.User,
		"-e", "POSTGRES_PASSWORD="+pg.Password,
		"-e", "POSTGRES_DB="+pg.Database,
		"-p", fmt.Sprintf("%d:5432", pg.Port),
		image)
	log.Printf("starting container: %s\n", strings.Join(cmd.Args, " "))
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.Println(string(out))
		return fmt.Errorf("docker run failed: %w", err)
	}
	return nil
}

func (d *Downloader) ensureLocalDatabase() error {
	pg := d.config.Postgres
	env := append(os.Environ(),
		"PGHOST="+pg.Host,
		"PGPORT="+strconv.Itoa(pg.Port),
		"PGUSER="+pg.User,
		"PGPASSWORD="+pg.Password)

	list := exec.Command("psql", "-lqt")
	list.Env = env
	out, err := list.Output()
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(strings.Split(line, "|")[0])
		if name == pg.Database {
			log.Printf("database %q already exists\n", pg.Database)
			return nil
		}
	}

	log.Printf("creating database %q\n", pg.Database)
	create := exec.Command("createdb", pg.Database)
	create.Env = env
	out, err = create.CombinedOutput()
	if err != nil {
		log.Println(string(out))
		return fmt.Errorf("failed to create database %s: %w", pg.Database, err)
	}
	return nil
}

// DownloadAndPrepare provisions the database, downloads the archives
// and imports every mbdump archive into it.
func DownloadAndPrepare(cfg *config.Config, verify, overwrite, useDocker bool) error {
	d := NewDownloader(cfg)

	err := d.EnsureDatabase(useDocker)
	if err != nil {
		return err
	}
	archives, err := d.Download(verify, overwrite)
	if err != nil {
		return err
	}
	for _, archive := range archives {
		if !strings.HasPrefix(filepath.Base(archive), "mbdump") {
			log.Printf("skipping extraction for %s\n", archive)
			continue
		}
		dir, err := d.Extract(archive)
		if err != nil {
			return err
		}
		if err := d.ImportAll(dir); err != nil {
			return err
		}
	}
	return nil
}

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

package spotify

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/defsub/covers/config"
	"github.com/defsub/covers/lib/log"
)

const (
	tokenURL  = "https://accounts.spotify.com/api/token"
	searchURL = "https://api.spotify.com/v1/search"

	// Refresh the token when it expires within this window.
	tokenExpiryMargin = 30 * time.Second

	// Extra wait added on top of a 429 Retry-After hint.
	rateLimitBuffer = 250 * time.Millisecond
)

// Hooks for tests, real time otherwise.
var (
	now   = time.Now
	sleep = time.Sleep
)

// Spotify is used for:
// * searching the track catalog by title and artist
// * track popularity, album and release metadata
type Spotify struct {
	config    *config.Config
	client    *http.Client
	tokenURL  string
	searchURL string
	token     string
	expires   time.Time
}

func NewSpotify(config *config.Config) *Spotify {
	return &Spotify{
		config:    config,
		client:    &http.Client{},
		tokenURL:  tokenURL,
		searchURL: searchURL,
	}
}

type TrackArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Album struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []TrackArtist     `json:"artists"`
	Album        Album             `json:"album"`
	Popularity   int               `json:"popularity"`
	DurationMs   int               `json:"duration_ms"`
	Explicit     bool              `json:"explicit"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// JoinedArtists is the comma separated artist display names.
func (t Track) JoinedArtists() string {
	var names []string
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func (t Track) ExternalURL() string {
	return t.ExternalURLs["spotify"]
}

type tracksPage struct {
	Items []Track `json:"items"`
}

type searchResult struct {
	Tracks tracksPage `json:"tracks"`
}

type tokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Search the track catalog with exact-phrase title and artist clauses,
// returning up to the configured number of candidates.
func (s *Spotify) Search(title, artist string) ([]Track, error) {
	query := fmt.Sprintf(`track:"%s"`, title)
	if artist != "" {
		query += fmt.Sprintf(` artist:"%s"`, artist)
	}

	limit := s.config.Spotify.SearchLimit
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	if s.config.Spotify.Market != "" {
		params.Set("market", s.config.Spotify.Market)
	}

	var result searchResult
	err := s.getJson(s.searchURL+"?"+params.Encode(), &result)
	if err != nil {
		return nil, err
	}
	return result.Tracks.Items, nil
}

func (s *Spotify) getJson(url string, result interface{}) error {
	for {
		err := s.ensureToken()
		if err != nil {
			return err
		}

		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("User-Agent", s.config.Client.UserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			// wait out the hint and go again, the service is
			// trusted to eventually stop throttling
			wait := time.Second
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
				wait = time.Duration(secs) * time.Second
			}
			resp.Body.Close()
			log.Printf("rate limited, waiting %s\n", wait+rateLimitBuffer)
			sleep(wait + rateLimitBuffer)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("http error %d: %s", resp.StatusCode, url)
		}

		err = json.NewDecoder(resp.Body).Decode(result)
		resp.Body.Close()
		return err
	}
}

// ensureToken exchanges client credentials for a bearer token when none
// is held or the current one is close to expiry. A rejected exchange is
// fatal, there is no second credential attempt.
func (s *Spotify) ensureToken() error {
	if s.token != "" && now().Before(s.expires.Add(-tokenExpiryMargin)) {
		return nil
	}

	creds := s.config.Spotify.ID + ":" + s.config.Spotify.Secret
	encoded := base64.StdEncoding.EncodeToString([]byte(creds))

	body := url.Values{}
	body.Set("grant_type", "client_credentials")

	req, err := http.NewRequest(http.MethodPost, s.tokenURL,
		strings.NewReader(body.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+encoded)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("token exchange failed %d: %s", resp.StatusCode, msg)
	}

	var result tokenResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.AccessToken == "" {
		return fmt.Errorf("token exchange returned no token")
	}

	expiresIn := result.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	s.token = result.AccessToken
	s.expires = now().Add(time.Duration(expiresIn) * time.Second)
	log.Println("obtained access token")
	return nil
}

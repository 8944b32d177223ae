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

package client

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/defsub/covers/config"
)

func fakeSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	saved := Sleep
	Sleep = func(d time.Duration) {
		waits = append(waits, d)
	}
	t.Cleanup(func() {
		Sleep = saved
	})
	return &waits
}

func testClient() *Client {
	return NewClient(&config.ClientConfig{UserAgent: "covers-test"})
}

func TestRateLimitDelay(t *testing.T) {
	waits := fakeSleep(t)

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
			fmt.Fprint(w, `{"ok":true}`)
		}))
	defer server.Close()

	c := testClient()
	var result map[string]bool
	for i := 0; i < 3; i++ {
		if err := c.GetJson(server.URL, &result); err != nil {
			t.Fatalf("GetJson: %s", err)
		}
	}

	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}
	if len(*waits) != 3 {
		t.Fatalf("expected 3 waits, got %d", len(*waits))
	}
	for _, d := range *waits {
		if d < time.Second {
			t.Errorf("wait %s below one second", d)
		}
	}
}

func TestRetryAfterRetriesOnce(t *testing.T) {
	waits := fakeSleep(t)

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
			if requests == 1 {
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"ok":true}`)
		}))
	defer server.Close()

	c := testClient()
	var result map[string]bool
	if err := c.GetJson(server.URL, &result); err != nil {
		t.Fatalf("GetJson: %s", err)
	}
	if requests != 2 {
		t.Fatalf("expected retry, got %d requests", requests)
	}

	// rate limit, backoff wait, rate limit
	if len(*waits) != 3 {
		t.Fatalf("expected 3 waits, got %d", len(*waits))
	}
	if (*waits)[1] != 3*time.Second {
		t.Errorf("expected hint plus margin of 3s, got %s", (*waits)[1])
	}
}

func TestRetryAfterGivesUpAfterOneRetry(t *testing.T) {
	fakeSleep(t)

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
	defer server.Close()

	c := testClient()
	var result map[string]bool
	err := c.GetJson(server.URL, &result)
	if err == nil {
		t.Fatal("expected error after retry")
	}
	if requests != 2 {
		t.Errorf("expected exactly 2 requests, got %d", requests)
	}
}

func TestNoRetryWithoutHint(t *testing.T) {
	fakeSleep(t)

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
	defer server.Close()

	c := testClient()
	var result map[string]bool
	err := c.GetJson(server.URL, &result)
	if err == nil {
		t.Fatal("expected error")
	}
	if requests != 1 {
		t.Errorf("expected a single request, got %d", requests)
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	events  []Event
	crashes []string
}

func newServer(t *testing.T, rec *recorder) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		rec.mu.Lock()
		rec.events = append(rec.events, ev)
		rec.mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.crashes = append(rec.crashes, string(b))
		rec.mu.Unlock()
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestTrackAndUploadCrash(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	defer c.Close()

	c.Track("export", map[string]any{"format": "png", "nodes": 3})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)

	if err := c.UploadCrash(ctx, []byte("Nebula Crash Report")); err != nil {
		t.Fatalf("UploadCrash: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 1 || rec.events[0].Name != "export" || rec.events[0].Props["format"] != "png" {
		t.Fatalf("events = %+v", rec.events)
	}
	if rec.events[0].Version == "" || rec.events[0].OS == "" {
		t.Fatalf("static fields missing: %+v", rec.events[0])
	}
	if len(rec.crashes) != 1 || rec.crashes[0] != "Nebula Crash Report" {
		t.Fatalf("crashes = %v", rec.crashes)
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec)
	c := New(Config{OptIn: false, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: time.Second})
	defer c.Close()
	if c.Enabled() {
		t.Fatal("client without opt-in must be disabled")
	}
	c.Track("export", nil)
	c.Flush(context.Background())
	if err := c.UploadCrash(context.Background(), []byte("x")); err != nil {
		t.Fatal(err)
	}
	if len(rec.events)+len(rec.crashes) != 0 {
		t.Fatalf("sent while disabled: %+v", rec)
	}
	var nilClient *Client
	nilClient.Track("x", nil)
	nilClient.Flush(context.Background())
}

func TestUploadCrashReportsServerError(t *testing.T) {
	srv := newServer(t, &recorder{})
	c := New(Config{OptIn: true, CrashURL: srv.URL + "/fail", Timeout: time.Second})
	defer c.Close()
	if err := c.UploadCrash(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvOptIn, "yes")
	t.Setenv(EnvEventsURL, " https://example.invalid/e ")
	t.Setenv(EnvCrashURL, "")
	t.Setenv(EnvTimeoutMS, "250")
	t.Setenv(EnvDebug, "1")
	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "https://example.invalid/e" || cfg.Timeout != 250*time.Millisecond || !cfg.Debug {
		t.Fatalf("FromEnv = %+v", cfg)
	}
	for in, want := range map[string]bool{"1": true, "On": true, "no": false, "": false} {
		if parseBool(in) != want {
			t.Errorf("parseBool(%q) != %v", in, want)
		}
	}
}

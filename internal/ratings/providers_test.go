// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ratings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func serveJSON(t *testing.T, handler func(r *http.Request) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, body := handler(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTMDB_Lookup(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		if r.URL.Query().Get("api_key") != "k" {
			return http.StatusUnauthorized, `{}`
		}
		switch r.URL.Path {
		case "/movie/603":
			return http.StatusOK, `{"vote_average": 8.2, "vote_count": 25000}`
		case "/tv/1399":
			return http.StatusOK, `{"vote_average": 8.4}`
		case "/movie/0":
			return http.StatusOK, `{"vote_average": 0}`
		case "/find/tt0133093":
			return http.StatusOK, `{"movie_results": [{"vote_average": 8.1}], "tv_results": []}`
		}
		return http.StatusNotFound, `{"status_message": "not found"}`
	})
	c := NewTMDB(srv.URL, "k", time.Second)

	tests := []struct {
		name    string
		subject Subject
		want    float64
		wantErr error
	}{
		{"movie by id", Subject{Kind: KindMovie, TMDBID: "603"}, 8.2, nil},
		{"show uses tv path", Subject{Kind: KindShow, TMDBID: "1399"}, 8.4, nil},
		{"zero votes", Subject{Kind: KindMovie, TMDBID: "0"}, 0, ErrNotFound},
		{"find by imdb", Subject{Kind: KindMovie, IMDbID: "tt0133093"}, 8.1, nil},
		{"unknown id", Subject{Kind: KindMovie, TMDBID: "999"}, 0, ErrNotFound},
		{"no ids", Subject{Kind: KindMovie}, 0, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Lookup(context.Background(), tt.subject)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if got[SourceTMDB] != tt.want {
				t.Errorf("tmdb = %v, want %v", got[SourceTMDB], tt.want)
			}
		})
	}
}

func TestTMDB_BadKeyIsNotNotFound(t *testing.T) {
	srv := serveJSON(t, func(*http.Request) (int, string) { return http.StatusUnauthorized, `{}` })
	c := NewTMDB(srv.URL, "wrong", time.Second)

	_, err := c.Lookup(context.Background(), Subject{TMDBID: "1"})
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want non-not-found error", err)
	}
	if strings.Contains(err.Error(), "wrong") {
		t.Errorf("error leaks api key: %v", err)
	}
}

func TestOMDb_Lookup(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		switch r.URL.Query().Get("i") {
		case "tt0111161":
			return http.StatusOK, `{"Response":"True","imdbRating":"9.3"}`
		case "tt0000001":
			return http.StatusOK, `{"Response":"True","imdbRating":"N/A"}`
		case "tt0000002":
			return http.StatusOK, `{"Response":"False","Error":"Invalid API key!"}`
		}
		return http.StatusOK, `{"Response":"False","Error":"Incorrect IMDb ID. Movie not found!"}`
	})
	c := NewOMDb(srv.URL, "k", time.Second)

	got, err := c.Lookup(context.Background(), Subject{IMDbID: "tt0111161"})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got[SourceIMDb] != 9.3 {
		t.Errorf("imdb = %v, want 9.3", got[SourceIMDb])
	}

	if _, err := c.Lookup(context.Background(), Subject{IMDbID: "tt0000001"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("N/A: err = %v, want ErrNotFound", err)
	}
	if _, err := c.Lookup(context.Background(), Subject{IMDbID: "tt9999999"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown: err = %v, want ErrNotFound", err)
	}
	if _, err := c.Lookup(context.Background(), Subject{IMDbID: "tt0000002"}); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("bad key: err = %v, want provider error", err)
	}
	if _, err := c.Lookup(context.Background(), Subject{TMDBID: "1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("no imdb id: err = %v, want ErrNotFound", err)
	}
}

func TestMDBList_Lookup(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		q := r.URL.Query()
		if q.Get("i") == "tt0110912" || (q.Get("tm") == "680" && q.Get("m") == "movie") {
			return http.StatusOK, `{"ratings":[
				{"source":"imdb","value":8.9},
				{"source":"tomatoes","value":92},
				{"source":"popcorn","value":96},
				{"source":"metacritic","value":null}]}`
		}
		if q.Get("i") == "tt0000003" {
			return http.StatusOK, `{"ratings":[{"source":"tomatoes","value":null},{"source":"popcorn","value":0}]}`
		}
		return http.StatusOK, `{"response":false,"error":""}`
	})
	c := NewMDBList(srv.URL, "k", time.Second)

	for _, s := range []Subject{{IMDbID: "tt0110912"}, {TMDBID: "680", Kind: KindMovie}} {
		got, err := c.Lookup(context.Background(), s)
		if err != nil {
			t.Fatalf("Lookup(%+v): %v", s, err)
		}
		if got[SourceRTCritic] != 92 || got[SourceRTAudience] != 96 {
			t.Errorf("Lookup(%+v) = %v", s, got)
		}
	}

	if _, err := c.Lookup(context.Background(), Subject{IMDbID: "tt0000003"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("null values: err = %v, want ErrNotFound", err)
	}
	if _, err := c.Lookup(context.Background(), Subject{IMDbID: "tt4"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("response false: err = %v, want ErrNotFound", err)
	}
}

func TestGuard_CachesAnswersAndNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		hits.Add(1)
		if r.URL.Path == "/movie/1" {
			return http.StatusOK, `{"vote_average": 6.5}`
		}
		return http.StatusNotFound, `{}`
	})
	g := Guard(NewTMDB(srv.URL, "k", time.Second), GuardOptions{CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		got, err := g.Lookup(context.Background(), Subject{Kind: KindMovie, TMDBID: "1"})
		if err != nil || got[SourceTMDB] != 6.5 {
			t.Fatalf("Lookup = %v, %v", got, err)
		}
		if _, err := g.Lookup(context.Background(), Subject{Kind: KindMovie, TMDBID: "2"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("upstream hits = %d, want 2", got)
	}
}

func TestGuard_ErrorsAreNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := serveJSON(t, func(*http.Request) (int, string) {
		hits.Add(1)
		return http.StatusInternalServerError, `{}`
	})
	g := Guard(NewTMDB(srv.URL, "k", time.Second), GuardOptions{CacheTTL: time.Minute})

	for i := 0; i < 2; i++ {
		if _, err := g.Lookup(context.Background(), Subject{TMDBID: "1"}); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("upstream hits = %d, want 2", got)
	}
}

func TestGuard_LimiterHonoursContext(t *testing.T) {
	p := &fakeProvider{name: "slow", sources: []Source{SourceTMDB}, values: map[Source]float64{SourceTMDB: 5}}
	g := Guard(p, GuardOptions{Interval: time.Hour})

	if _, err := g.Lookup(context.Background(), Subject{TMDBID: "a"}); err != nil {
		t.Fatalf("first lookup: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Lookup(ctx, Subject{TMDBID: "b"}); err == nil {
		t.Error("expected limiter wait to fail on short deadline")
	}
}

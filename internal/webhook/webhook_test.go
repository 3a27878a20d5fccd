// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/processor"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func eventJSON(event, key, kind, library string) string {
	return fmt.Sprintf(`{"event":%q,"owner":true,"Server":{"title":"home","uuid":"abc"},`+
		`"Metadata":{"ratingKey":%q,"type":%q,"title":"Item %s","librarySectionTitle":%q}}`,
		event, key, kind, key, library)
}

func multipartRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("payload", payload); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("thumb", "thumb.jpg")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte{0xff, 0xd8, 0xff})
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/webhook/plex", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestParse_Multipart(t *testing.T) {
	r := multipartRequest(t, eventJSON(EventLibraryNew, "501", "movie", "Movies"))

	p, err := Parse(r, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Event != EventLibraryNew || p.Metadata.RatingKey != "501" || p.Metadata.LibraryTitle != "Movies" {
		t.Errorf("payload = %+v", p)
	}
	if !p.Relevant() {
		t.Error("library.new movie not relevant")
	}
}

func TestParse_RawJSON(t *testing.T) {
	body := eventJSON("media.play", "7", "episode", "TV Shows")
	r := httptest.NewRequest(http.MethodPost, "/api/webhook/plex", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	p, err := Parse(r, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Relevant() {
		t.Error("media.play should not be relevant")
	}
}

func TestParse_Signature(t *testing.T) {
	const secret = "s3cret-value"
	body := eventJSON(EventLibraryNew, "9", "show", "TV Shows")

	tests := []struct {
		name    string
		sig     string
		wantErr error
	}{
		{"valid", Sign([]byte(body), secret), nil},
		{"valid uppercase", strings.ToUpper(Sign([]byte(body), secret)), nil},
		{"missing", "", ErrBadSignature},
		{"wrong", Sign([]byte(body), "other"), ErrBadSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			if tt.sig != "" {
				r.Header.Set(SignatureHeader, tt.sig)
			}
			_, err := Parse(r, secret)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_BadPayload(t *testing.T) {
	tests := []struct {
		name string
		req  func() *http.Request
	}{
		{"not json", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello"))
		}},
		{"no event", func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Metadata":{}}`))
		}},
		{"multipart without payload", func() *http.Request {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			_ = mw.WriteField("other", "x")
			_ = mw.Close()
			r := httptest.NewRequest(http.MethodPost, "/", &buf)
			r.Header.Set("Content-Type", mw.FormDataContentType())
			return r
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.req(), ""); !errors.Is(err, ErrBadPayload) {
				t.Errorf("err = %v, want ErrBadPayload", err)
			}
		})
	}
}

func TestRelevant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event, key, kind string
		want             bool
	}{
		{EventLibraryNew, "1", "movie", true},
		{EventLibraryNew, "1", "show", true},
		{EventLibraryNew, "1", "episode", false},
		{EventLibraryNew, "", "movie", false},
		{"media.scrobble", "1", "movie", false},
	}
	for _, tt := range tests {
		p := Payload{Event: tt.event, Metadata: Metadata{RatingKey: tt.key, Type: tt.kind}}
		if got := p.Relevant(); got != tt.want {
			t.Errorf("Relevant(%s,%q,%s) = %v, want %v", tt.event, tt.key, tt.kind, got, tt.want)
		}
	}
}

// fakeStarter records Start calls and rejects the first busyFor calls.
type fakeStarter struct {
	mu      sync.Mutex
	busyFor int
	calls   []processor.Request
	started chan processor.Request
}

func newFakeStarter(busyFor int) *fakeStarter {
	return &fakeStarter{busyFor: busyFor, started: make(chan processor.Request, 10)}
}

func (s *fakeStarter) Start(_ context.Context, req processor.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.busyFor > 0 {
		s.busyFor--
		return "", processor.ErrRunInProgress
	}
	s.started <- req
	return fmt.Sprintf("run%d", len(s.calls)), nil
}

func (s *fakeStarter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func libraryNew(key, library string) *Payload {
	return &Payload{Event: EventLibraryNew, Metadata: Metadata{RatingKey: key, Type: "movie", LibraryTitle: library}}
}

func serve(t *testing.T, b *Batcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitStarted(t *testing.T, s *fakeStarter) processor.Request {
	t.Helper()
	select {
	case req := <-s.started:
		return req
	case <-time.After(5 * time.Second):
		t.Fatal("no run started")
		return processor.Request{}
	}
}

func TestBatcher_TenEventsOneRun(t *testing.T) {
	starter := newFakeStarter(0)
	b := NewBatcher(starter, nil, Config{Window: 50 * time.Millisecond, RetryDelay: 20 * time.Millisecond})
	serve(t, b)

	for i := 0; i < 10; i++ {
		if !b.Add(libraryNew(fmt.Sprintf("%d", 100+i), "Movies")) {
			t.Fatalf("event %d not queued", i)
		}
	}
	b.Add(libraryNew("100", "Movies")) // duplicate

	req := waitStarted(t, starter)
	if len(req.RatingKeys) != 10 {
		t.Errorf("RatingKeys = %d, want 10", len(req.RatingKeys))
	}
	if req.RatingKeys[0] != "100" || req.RatingKeys[9] != "109" {
		t.Errorf("RatingKeys order = %v", req.RatingKeys)
	}
	if req.Kind != processor.KindProcess || req.Trigger != processor.TriggerWebhook || req.Force {
		t.Errorf("request = %+v", req)
	}
	if len(req.Style.Sources) == 0 {
		t.Error("request has no sources")
	}

	time.Sleep(150 * time.Millisecond)
	if n := starter.callCount(); n != 1 {
		t.Errorf("Start calls = %d, want 1", n)
	}
	if b.Pending() != 0 {
		t.Errorf("Pending = %d after dispatch", b.Pending())
	}
}

func TestBatcher_RetriesAndMergesWhileBusy(t *testing.T) {
	starter := newFakeStarter(2)
	b := NewBatcher(starter, nil, Config{Window: 20 * time.Millisecond, RetryDelay: 40 * time.Millisecond})
	serve(t, b)

	b.Add(libraryNew("1", "Movies"))
	b.Add(libraryNew("2", "Movies"))

	// Wait for the first rejection, then add more while deferred.
	deadline := time.Now().Add(5 * time.Second)
	for starter.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	b.Add(libraryNew("3", "Movies"))

	req := waitStarted(t, starter)
	if got := strings.Join(req.RatingKeys, ","); got != "1,2,3" {
		t.Errorf("RatingKeys = %s, want 1,2,3", got)
	}
	if n := starter.callCount(); n != 3 {
		t.Errorf("Start calls = %d, want 3", n)
	}
}

func TestBatcher_LibraryFilter(t *testing.T) {
	b := NewBatcher(newFakeStarter(0), nil, Config{Libraries: []string{"Movies"}})

	if b.Add(libraryNew("1", "Kids")) {
		t.Error("event from unlisted library queued")
	}
	if !b.Add(libraryNew("2", "Movies")) {
		t.Error("event from listed library ignored")
	}
	if b.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", b.Pending())
	}
}

type failingStarter struct{ calls int }

func (s *failingStarter) Start(context.Context, processor.Request) (string, error) {
	s.calls++
	return "", errors.New("invalid")
}

func TestBatcher_DropsOnOtherErrors(t *testing.T) {
	s := &failingStarter{}
	b := NewBatcher(s, nil, Config{Window: time.Millisecond})
	b.Add(libraryNew("1", "Movies"))

	if !b.flush(context.Background()) {
		t.Error("flush requested retry for a non-busy error")
	}
	if b.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", b.Pending())
	}
	if s.calls != 1 {
		t.Errorf("calls = %d", s.calls)
	}
}

// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package processor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tomtom215/marquee/internal/backup"
	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/ratings"
	"github.com/tomtom215/marquee/internal/settings"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

// fakePlex is an in-memory Plex server.
type fakePlex struct {
	mu sync.Mutex

	libraries []plex.Library
	items     map[string][]plex.Item // section key -> items
	active    map[string][]byte      // rating key -> active poster
	uploads   map[string]int
	fresh     map[string]string

	listErr    error
	uploadErr  map[string]error
	listGate   chan struct{} // when set, ListLibraries blocks until closed
	listCalled chan struct{}
}

func newFakePlex() *fakePlex {
	return &fakePlex{
		items:     make(map[string][]plex.Item),
		active:    make(map[string][]byte),
		uploads:   make(map[string]int),
		fresh:     make(map[string]string),
		uploadErr: make(map[string]error),
	}
}

func (f *fakePlex) addLibrary(key, title, kind string, items ...plex.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libraries = append(f.libraries, plex.Library{Key: key, Title: title, Type: kind})
	for i := range items {
		items[i].LibraryTitle = title
		items[i].Type = kind
	}
	f.items[key] = append(f.items[key], items...)
}

func (f *fakePlex) ListLibraries(ctx context.Context) ([]plex.Library, error) {
	if f.listCalled != nil {
		close(f.listCalled)
	}
	if f.listGate != nil {
		select {
		case <-f.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]plex.Library(nil), f.libraries...), nil
}

func (f *fakePlex) ListItems(_ context.Context, sectionKey string) ([]plex.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]plex.Item(nil), f.items[sectionKey]...), nil
}

func (f *fakePlex) GetItem(_ context.Context, ratingKey string) (*plex.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, items := range f.items {
		for i := range items {
			if items[i].RatingKey == ratingKey {
				it := items[i]
				return &it, nil
			}
		}
	}
	return nil, plex.ErrNotFound
}

func (f *fakePlex) DownloadPoster(_ context.Context, item *plex.Item) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.active[item.RatingKey]
	if !ok {
		return nil, "", plex.ErrNotFound
	}
	return append([]byte(nil), data...), "image/png", nil
}

func (f *fakePlex) UploadPoster(_ context.Context, ratingKey string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uploadErr[ratingKey]; err != nil {
		return err
	}
	f.active[ratingKey] = append([]byte(nil), data...)
	f.uploads[ratingKey]++
	return nil
}

func (f *fakePlex) FetchFresh(_ context.Context, ratingKey string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.fresh[ratingKey]
	if !ok {
		return "", plex.ErrNoFreshPoster
	}
	f.active[ratingKey] = []byte("fresh:" + u)
	return u, nil
}

func (f *fakePlex) poster(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.active[key]...)
}

func (f *fakePlex) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.uploads {
		n += c
	}
	return n
}

// fakeResolver returns canned ratings keyed by title.
type fakeResolver struct {
	byTitle map[string]ratings.RatingSet
}

func (r *fakeResolver) Resolve(_ context.Context, s ratings.Subject, enabled []ratings.Source) ratings.RatingSet {
	out := ratings.RatingSet{}
	known := r.byTitle[s.Title]
	for _, src := range enabled {
		if v, ok := known[src]; ok {
			out[src] = v
		} else {
			out[src] = ratings.Missing(src)
		}
	}
	return out
}

// recordingPublisher captures message types.
type recordingPublisher struct {
	mu       sync.Mutex
	types    []string
	progress chan struct{}
}

func (p *recordingPublisher) BroadcastJSON(messageType string, _ interface{}) {
	p.mu.Lock()
	p.types = append(p.types, messageType)
	p.mu.Unlock()
	if messageType == MessageRunProgress && p.progress != nil {
		select {
		case p.progress <- struct{}{}:
		default:
		}
	}
}

func (p *recordingPublisher) count(messageType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.types {
		if t == messageType {
			n++
		}
	}
	return n
}

type memRecorder struct {
	mu   sync.Mutex
	runs []settings.RunRecord
}

func (m *memRecorder) RecordRun(_ context.Context, r *settings.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *r)
	return nil
}

func posterBytes(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 200, 300))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{R: shade, G: 60, B: 90, A: 255}), image.Point{}, draw.Src)
	data, err := badge.EncodeBytes(img, badge.FormatPNG, 0)
	if err != nil {
		t.Fatalf("encode poster: %v", err)
	}
	return data
}

func rated(tmdb, rt float64) ratings.RatingSet {
	return ratings.RatingSet{
		ratings.SourceTMDB:     {Value: tmdb, Scale: ratings.ScaleTen, Origin: ratings.OriginPlex},
		ratings.SourceRTCritic: {Value: rt, Scale: ratings.ScaleHundred, Origin: ratings.OriginExternal},
	}
}

type testEnv struct {
	plex      *fakePlex
	resolver  *fakeResolver
	backups   *backup.Manager
	publisher *recordingPublisher
	recorder  *memRecorder
	proc      *Processor
	originals map[string][]byte
}

// newTestEnv builds a Movies library with three items: two with ratings
// and one with none.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backups, err := backup.NewManager(filepath.Join(t.TempDir(), "backups"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	fp := newFakePlex()
	fp.addLibrary("1", "Movies", "movie",
		plex.Item{RatingKey: "101", Title: "Alien"},
		plex.Item{RatingKey: "102", Title: "Blade Runner"},
		plex.Item{RatingKey: "103", Title: "Obscure Short"},
	)
	fp.addLibrary("2", "Music", "artist")

	env := &testEnv{
		plex: fp,
		resolver: &fakeResolver{byTitle: map[string]ratings.RatingSet{
			"Alien":        rated(8.4, 98),
			"Blade Runner": rated(7.9, 89),
		}},
		backups:   backups,
		publisher: &recordingPublisher{progress: make(chan struct{}, 1)},
		recorder:  &memRecorder{},
		originals: make(map[string][]byte),
	}
	for i, key := range []string{"101", "102", "103"} {
		data := posterBytes(t, uint8(40*i+20))
		env.originals[key] = data
		fp.active[key] = data
	}

	env.proc = New(Deps{
		Plex:      fp,
		Resolver:  env.resolver,
		Backups:   backups,
		Publisher: env.publisher,
		Recorder:  env.recorder,
	}, Options{})
	return env
}

func processRequest() Request {
	return Request{Kind: KindProcess, Libraries: []string{"Movies"}, Style: badge.DefaultStyle()}
}

// runAndWait starts req and waits for it to finish.
func (e *testEnv) runAndWait(t *testing.T, req Request) Status {
	t.Helper()
	if _, err := e.proc.Start(context.Background(), req); err != nil {
		t.Fatalf("Start: %v", err)
	}
	e.proc.Wait()
	return e.proc.Status()
}

var errUpload = errors.New("upload refused")

// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package processor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/plex"
	"github.com/tomtom215/marquee/internal/ratings"
)

func TestProcess_ThreeItems(t *testing.T) {
	env := newTestEnv(t)

	st := env.runAndWait(t, processRequest())

	if st.State != StateCompleted {
		t.Fatalf("State = %s (%s), want completed", st.State, st.Error)
	}
	if st.Total != 3 || st.Current != 3 {
		t.Errorf("Total/Current = %d/%d, want 3/3", st.Total, st.Current)
	}
	if st.Success != 2 || st.Skipped != 1 || st.Failed != 0 {
		t.Errorf("success/skipped/failed = %d/%d/%d, want 2/1/0", st.Success, st.Skipped, st.Failed)
	}
	if st.Success+st.Skipped+st.Failed != st.Current {
		t.Error("counters do not add up to Current")
	}

	for _, key := range []string{"101", "102"} {
		if !env.backups.IsProcessed("Movies", key) {
			t.Errorf("%s not backed up", key)
		}
		if bytes.Equal(env.plex.poster(key), env.originals[key]) {
			t.Errorf("%s poster unchanged", key)
		}
	}
	if env.backups.IsProcessed("Movies", "103") {
		t.Error("unrated item was backed up")
	}
	if !bytes.Equal(env.plex.poster("103"), env.originals["103"]) {
		t.Error("unrated item poster changed")
	}
}

func TestProcess_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	env.runAndWait(t, processRequest())
	uploads := env.plex.uploadCount()
	after := env.plex.poster("101")

	st := env.runAndWait(t, processRequest())

	if st.Skipped != 3 || st.Success != 0 {
		t.Errorf("second run success/skipped = %d/%d, want 0/3", st.Success, st.Skipped)
	}
	if env.plex.uploadCount() != uploads {
		t.Error("second run uploaded posters")
	}
	if !bytes.Equal(env.plex.poster("101"), after) {
		t.Error("second run changed an active poster")
	}
}

func TestProcess_ForceRerendersFromOriginal(t *testing.T) {
	env := newTestEnv(t)
	env.runAndWait(t, processRequest())
	firstRender := env.plex.poster("101")

	env.resolver.byTitle["Alien"] = rated(6.1, 40)
	req := processRequest()
	req.Force = true
	st := env.runAndWait(t, req)

	if st.Success != 2 {
		t.Errorf("Success = %d, want 2", st.Success)
	}
	backupBytes, _, err := env.backups.Original("Movies", "101")
	if err != nil {
		t.Fatalf("Original: %v", err)
	}
	if !bytes.Equal(backupBytes, env.originals["101"]) {
		t.Error("force run modified the backup")
	}
	if bytes.Equal(env.plex.poster("101"), firstRender) {
		t.Error("force run did not change the active poster")
	}

	// Same ratings as the first run: rendering from the original reproduces
	// the first upload exactly, so badges never stack.
	if !bytes.Equal(env.plex.poster("102"), func() []byte {
		env2 := newTestEnv(t)
		env2.runAndWait(t, processRequest())
		return env2.plex.poster("102")
	}()) {
		t.Error("forced render differs from first render with identical ratings")
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.runAndWait(t, processRequest())

	st := env.runAndWait(t, Request{Kind: KindRestore, Libraries: []string{"Movies"}})

	if st.Success != 2 || st.Skipped != 1 {
		t.Errorf("restore success/skipped = %d/%d, want 2/1", st.Success, st.Skipped)
	}
	for key, original := range env.originals {
		if !bytes.Equal(env.plex.poster(key), original) {
			t.Errorf("%s not restored byte-for-byte", key)
		}
	}
	if !env.backups.IsProcessed("Movies", "101") {
		t.Error("restore removed the backup")
	}
}

func TestStart_RejectsWhileRunning(t *testing.T) {
	env := newTestEnv(t)
	env.plex.listGate = make(chan struct{})
	env.plex.listCalled = make(chan struct{})

	runID, err := env.proc.Start(context.Background(), processRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-env.plex.listCalled

	before := env.proc.Status()
	if _, err := env.proc.Start(context.Background(), processRequest()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("second Start err = %v, want ErrRunInProgress", err)
	}
	if _, err := env.proc.DeleteBackups("Movies", ""); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("DeleteBackups err = %v, want ErrRunInProgress", err)
	}
	after := env.proc.Status()
	if after.RunID != runID || after.RunID != before.RunID {
		t.Errorf("RunID changed: %s -> %s", before.RunID, after.RunID)
	}
	if after.Success != before.Success || after.Failed != before.Failed || after.Skipped != before.Skipped || after.Total != before.Total {
		t.Error("rejected Start mutated counters")
	}

	close(env.plex.listGate)
	env.proc.Wait()
	if st := env.proc.Status(); st.State != StateCompleted {
		t.Errorf("State = %s, want completed", st.State)
	}
}

func TestStart_UnknownLibraryFails(t *testing.T) {
	env := newTestEnv(t)
	req := processRequest()
	req.Libraries = []string{"Movies", "Anime"}

	st := env.runAndWait(t, req)

	if st.State != StateFailed {
		t.Fatalf("State = %s, want failed", st.State)
	}
	if !strings.Contains(st.Error, "Anime") {
		t.Errorf("Error = %q, want library name", st.Error)
	}
	if env.plex.uploadCount() != 0 {
		t.Error("failed run uploaded posters")
	}
}

func TestStart_ListLibrariesErrorFails(t *testing.T) {
	env := newTestEnv(t)
	env.plex.listErr = errors.New("connection refused")

	st := env.runAndWait(t, processRequest())

	if st.State != StateFailed || !strings.Contains(st.Error, "connection refused") {
		t.Errorf("State = %s, Error = %q", st.State, st.Error)
	}
	if env.proc.Busy() {
		t.Error("processor still busy after failed run")
	}
}

func TestStart_InvalidRequest(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"unknown kind", Request{Kind: "shuffle"}},
		{"no sources", Request{Kind: KindProcess, Style: badge.Style{}}},
		{"negative limit", Request{Kind: KindRestore, Limit: -1}},
		{"empty library", Request{Kind: KindRestore, Libraries: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.proc.Start(context.Background(), tt.req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
	if env.proc.Busy() {
		t.Error("invalid request left processor busy")
	}
}

func TestProcess_UploadFailureRemovesNewBackup(t *testing.T) {
	env := newTestEnv(t)
	env.plex.uploadErr["101"] = errUpload

	st := env.runAndWait(t, processRequest())

	if st.Failed != 1 || st.Success != 1 {
		t.Errorf("failed/success = %d/%d, want 1/1", st.Failed, st.Success)
	}
	if env.backups.IsProcessed("Movies", "101") {
		t.Error("backup kept after failed upload")
	}
	if len(st.Failures) != 1 || st.Failures[0].RatingKey != "101" {
		t.Errorf("Failures = %+v", st.Failures)
	}
}

func TestProcess_UploadFailureKeepsExistingBackup(t *testing.T) {
	env := newTestEnv(t)
	env.runAndWait(t, processRequest())

	env.plex.uploadErr["101"] = errUpload
	req := processRequest()
	req.Force = true
	st := env.runAndWait(t, req)

	if st.Failed != 1 {
		t.Errorf("Failed = %d, want 1", st.Failed)
	}
	if !env.backups.IsProcessed("Movies", "101") {
		t.Error("pre-existing backup removed")
	}
}

func TestCancel_StopsBetweenItems(t *testing.T) {
	env := newTestEnv(t)
	env.proc.opts.ItemDelay = time.Hour

	if _, err := env.proc.Start(context.Background(), processRequest()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-env.publisher.progress:
	case <-time.After(10 * time.Second):
		t.Fatal("no progress published")
	}

	if !env.proc.Cancel() {
		t.Fatal("Cancel returned false during a run")
	}
	env.proc.Wait()

	st := env.proc.Status()
	if st.State != StateCancelled {
		t.Errorf("State = %s, want cancelled", st.State)
	}
	if st.Current != 1 || !st.CancelRequested {
		t.Errorf("Current = %d, CancelRequested = %v", st.Current, st.CancelRequested)
	}
	if env.proc.Cancel() {
		t.Error("Cancel returned true with no active run")
	}
}

func TestFetchFresh_KeepsProcessedHazard(t *testing.T) {
	env := newTestEnv(t)
	env.runAndWait(t, processRequest())
	env.plex.fresh["101"] = "https://image.tmdb.org/t/p/original/alien.jpg"

	st := env.runAndWait(t, Request{Kind: KindFetchFresh, Libraries: []string{"Movies"}})

	if st.Success != 1 || st.Skipped != 2 {
		t.Errorf("success/skipped = %d/%d, want 1/2", st.Success, st.Skipped)
	}
	if string(env.plex.poster("101")) != "fresh:https://image.tmdb.org/t/p/original/alien.jpg" {
		t.Error("fresh poster not selected")
	}
	if !env.backups.IsProcessed("Movies", "101") {
		t.Error("fetch-fresh changed backup state")
	}

	// The item is still classified processed, so a normal run skips it.
	st = env.runAndWait(t, processRequest())
	if st.Success != 0 {
		t.Errorf("process after fetch-fresh Success = %d, want 0", st.Success)
	}
}

func TestProcess_TargetedRatingKeys(t *testing.T) {
	env := newTestEnv(t)
	req := processRequest()
	req.Libraries = nil
	req.RatingKeys = []string{"102", "999"}
	req.Trigger = TriggerWebhook

	st := env.runAndWait(t, req)

	if st.Total != 2 || st.Success != 1 || st.Failed != 1 {
		t.Errorf("total/success/failed = %d/%d/%d, want 2/1/1", st.Total, st.Success, st.Failed)
	}
	if env.backups.IsProcessed("Movies", "101") {
		t.Error("untargeted item processed")
	}
	if st.Trigger != TriggerWebhook {
		t.Errorf("Trigger = %s", st.Trigger)
	}
}

func TestProcess_AllLibrariesAndLimit(t *testing.T) {
	env := newTestEnv(t)
	req := processRequest()
	req.Libraries = nil
	req.Limit = 2

	st := env.runAndWait(t, req)

	if st.Total != 2 {
		t.Errorf("Total = %d, want 2", st.Total)
	}
	if st.Success != 2 {
		t.Errorf("Success = %d, want 2", st.Success)
	}
}

func TestProcess_DisabledSourceOnlyIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	req := processRequest()
	req.Style.Sources = []ratings.Source{ratings.SourceIMDb}

	st := env.runAndWait(t, req)

	if st.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", st.Skipped)
	}
}

func TestPublishesAndRecords(t *testing.T) {
	env := newTestEnv(t)
	env.runAndWait(t, processRequest())

	if env.publisher.count(MessageRunStarted) != 1 {
		t.Errorf("run_started = %d, want 1", env.publisher.count(MessageRunStarted))
	}
	if env.publisher.count(MessageRunProgress) != 3 {
		t.Errorf("run_progress = %d, want 3", env.publisher.count(MessageRunProgress))
	}
	if env.publisher.count(MessageRunFinished) != 1 {
		t.Errorf("run_finished = %d, want 1", env.publisher.count(MessageRunFinished))
	}

	env.recorder.mu.Lock()
	defer env.recorder.mu.Unlock()
	if len(env.recorder.runs) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(env.recorder.runs))
	}
	if r := env.recorder.runs[0]; r.State != "completed" || r.Success != 2 || r.Skipped != 1 {
		t.Errorf("recorded = %+v", r)
	}
}

func TestDeleteBackups(t *testing.T) {
	env := newTestEnv(t)
	env.runAndWait(t, processRequest())

	n, err := env.proc.DeleteBackups("Movies", "101")
	if err != nil || n != 1 {
		t.Fatalf("DeleteBackups(item) = %d, %v", n, err)
	}
	if env.backups.IsProcessed("Movies", "101") {
		t.Error("item still processed")
	}
	// The active poster is untouched.
	if bytes.Equal(env.plex.poster("101"), env.originals["101"]) {
		t.Error("DeleteBackups changed the active poster")
	}

	n, err = env.proc.DeleteBackups("Movies", "")
	if err != nil || n != 1 {
		t.Errorf("DeleteBackups(library) = %d, %v, want 1", n, err)
	}
	if env.proc.Busy() {
		t.Error("guard not released")
	}
}

func TestServe_CancelsActiveRun(t *testing.T) {
	env := newTestEnv(t)
	env.plex.listGate = make(chan struct{})
	env.plex.listCalled = make(chan struct{})

	if _, err := env.proc.Start(context.Background(), processRequest()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-env.plex.listCalled

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.proc.Serve(ctx) }()
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return")
	}
	if st := env.proc.Status(); st.State == StateRunning {
		t.Error("run still active after Serve returned")
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, k := range []string{"process", "restore", "fetch_fresh"} {
		if _, err := ParseKind(k); err != nil {
			t.Errorf("ParseKind(%s): %v", k, err)
		}
	}
	if _, err := ParseKind("purge"); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("ParseKind(purge) err = %v", err)
	}
}

var _ PlexAPI = (*plex.Client)(nil)

func TestProcess_BackupWriteFailureSkipsUpload(t *testing.T) {
	env := newTestEnv(t)

	// A regular file where the item directory belongs makes Create fail.
	dir, err := env.backups.ItemDir("Movies", "101")
	if err != nil {
		t.Fatalf("ItemDir: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("in the way"), 0o600); err != nil {
		t.Fatal(err)
	}

	st := env.runAndWait(t, processRequest())

	if st.State != StateCompleted {
		t.Fatalf("State = %s (%s), want completed", st.State, st.Error)
	}
	if st.Success != 1 || st.Failed != 1 || st.Skipped != 1 {
		t.Errorf("success/failed/skipped = %d/%d/%d, want 1/1/1", st.Success, st.Failed, st.Skipped)
	}
	if n := env.plex.uploads["101"]; n != 0 {
		t.Errorf("uploads for 101 = %d, want 0", n)
	}
	if !bytes.Equal(env.plex.poster("101"), env.originals["101"]) {
		t.Error("active poster changed without a backup")
	}
	if env.backups.IsProcessed("Movies", "101") {
		t.Error("101 reported processed")
	}
	if len(st.Failures) != 1 || st.Failures[0].RatingKey != "101" || !strings.Contains(st.Failures[0].Error, "backup original") {
		t.Errorf("Failures = %+v", st.Failures)
	}
}

func TestCorruptBackup_FailsOnlyThatItem(t *testing.T) {
	env := newTestEnv(t)
	env.runAndWait(t, processRequest())
	rendered := env.plex.poster("101")

	rec, err := env.backups.Record("Movies", "101")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	dir, err := env.backups.ItemDir("Movies", "101")
	if err != nil {
		t.Fatalf("ItemDir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, rec.OriginalFile), []byte("corrupted"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  Request
	}{
		{"force", func() Request { r := processRequest(); r.Force = true; return r }()},
		{"restore", Request{Kind: KindRestore, Libraries: []string{"Movies"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := env.runAndWait(t, tt.req)

			if st.State != StateCompleted {
				t.Fatalf("State = %s (%s), want completed", st.State, st.Error)
			}
			if st.Success != 1 || st.Failed != 1 || st.Skipped != 1 {
				t.Errorf("success/failed/skipped = %d/%d/%d, want 1/1/1", st.Success, st.Failed, st.Skipped)
			}
			if len(st.Failures) != 1 || st.Failures[0].RatingKey != "101" || !strings.Contains(st.Failures[0].Error, "read backup") {
				t.Errorf("Failures = %+v", st.Failures)
			}
			if !bytes.Equal(env.plex.poster("101"), rendered) {
				t.Error("active poster of the failed item changed")
			}
		})
	}
}

func TestFinishedRunLeavesProcessorIdle(t *testing.T) {
	env := newTestEnv(t)

	st := env.runAndWait(t, processRequest())

	// The snapshot keeps the last run's outcome; the processor itself is idle.
	if st.State != StateCompleted || st.Running() {
		t.Errorf("State = %s, want completed", st.State)
	}
	if st.FinishedAt == nil {
		t.Error("FinishedAt not set")
	}
	if env.proc.Busy() {
		t.Error("processor busy after run finished")
	}
	if _, err := env.proc.Start(context.Background(), processRequest()); err != nil {
		t.Fatalf("Start after finished run: %v", err)
	}
	env.proc.Wait()
	if env.proc.Busy() {
		t.Error("processor busy after second run")
	}
}

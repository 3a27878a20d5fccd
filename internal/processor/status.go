// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package processor

import (
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/badge"
)

// Kind is the type of run.
type Kind string

const (
	KindProcess    Kind = "process"
	KindRestore    Kind = "restore"
	KindFetchFresh Kind = "fetch_fresh"
)

// ParseKind validates a run kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindProcess, KindRestore, KindFetchFresh:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown run kind %q", ErrInvalidRequest, s)
	}
}

// State is the lifecycle state of the processor.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Trigger names what started a run.
const (
	TriggerAPI      = "api"
	TriggerSchedule = "schedule"
	TriggerWebhook  = "webhook"
)

// Request describes a run.
type Request struct {
	Kind Kind
	// Libraries to process, by title. Empty means every movie and show
	// library.
	Libraries []string
	Force     bool
	Style     badge.Style
	// Limit caps items per library. Zero means no limit.
	Limit int
	// RatingKeys restricts the run to these items.
	RatingKeys []string
	Trigger    string
}

func (r *Request) validate() error {
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if r.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidRequest)
	}
	if r.Kind == KindProcess && len(r.Style.Sources) == 0 {
		return fmt.Errorf("%w: at least one rating source must be enabled", ErrInvalidRequest)
	}
	for _, lib := range r.Libraries {
		if lib == "" {
			return fmt.Errorf("%w: empty library name", ErrInvalidRequest)
		}
	}
	if r.Trigger == "" {
		r.Trigger = TriggerAPI
	}
	return nil
}

// maxFailures bounds the failure list kept in Status.
const maxFailures = 50

// ItemError records one failed item.
type ItemError struct {
	Library   string `json:"library"`
	RatingKey string `json:"rating_key"`
	Title     string `json:"title"`
	Error     string `json:"error"`
}

// Status is a snapshot of the current or most recent run.
//
// After a run ends State keeps its terminal value (completed, cancelled or
// failed) so clients can read the outcome. The processor is idle again at
// that point: Busy reports false and Start accepts a new run. StateIdle is
// only seen before the first run.
type Status struct {
	RunID           string      `json:"run_id,omitempty"`
	Kind            Kind        `json:"kind,omitempty"`
	State           State       `json:"state"`
	Trigger         string      `json:"trigger,omitempty"`
	Libraries       []string    `json:"libraries,omitempty"`
	CurrentLibrary  string      `json:"current_library,omitempty"`
	CurrentItem     string      `json:"current_item,omitempty"`
	Force           bool        `json:"force"`
	Total           int         `json:"total"`
	Current         int         `json:"current"`
	Success         int         `json:"success"`
	Failed          int         `json:"failed"`
	Skipped         int         `json:"skipped"`
	CancelRequested bool        `json:"cancel_requested"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	FinishedAt      *time.Time  `json:"finished_at,omitempty"`
	Error           string      `json:"error,omitempty"`
	Failures        []ItemError `json:"failures,omitempty"`
}

// Running reports whether the snapshot is of an active run.
func (s *Status) Running() bool {
	return s.State == StateRunning
}

func (s *Status) clone() Status {
	c := *s
	c.Libraries = append([]string(nil), s.Libraries...)
	c.Failures = append([]ItemError(nil), s.Failures...)
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	return c
}

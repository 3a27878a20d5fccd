// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/marquee/internal/badge"
)

type runRequest struct {
	Libraries []string    `json:"libraries" validate:"omitempty,dive,required"`
	Limit     int         `json:"limit" validate:"gte=0,lte=100000"`
	Schedule  string      `json:"schedule" validate:"omitempty,cronspec"`
	Style     *badge.Spec `json:"style" validate:"omitempty"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator returned different instances")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		req       runRequest
		wantField string
		wantTag   string
	}{
		{"valid empty", runRequest{}, "", ""},
		{"valid full", runRequest{
			Libraries: []string{"Movies"},
			Limit:     10,
			Schedule:  "0 4 * * *",
			Style:     &badge.Spec{Font: "DejaVuSans-Bold", Color: "#FFD700", Opacity: 128},
		}, "", ""},
		{"negative limit", runRequest{Limit: -1}, "limit", "gte"},
		{"empty library", runRequest{Libraries: []string{""}}, "libraries[0]", "required"},
		{"bad cron", runRequest{Schedule: "every day"}, "schedule", "cronspec"},
		{"bad font", runRequest{Style: &badge.Spec{Font: "ComicNeue"}}, "font", "badgefont"},
		{"serif bold italic", runRequest{Style: &badge.Spec{Font: "DejaVuSerif-BoldItalic"}}, "font", "badgefont"},
		{"short color", runRequest{Style: &badge.Spec{Color: "#abc"}}, "color", "badgecolor"},
		{"opacity range", runRequest{Style: &badge.Spec{Opacity: 300}}, "opacity", "lte"},
		{"unknown source", runRequest{Style: &badge.Spec{Sources: []string{"metacritic"}}}, "sources[0]", "oneof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.req)
			if tt.wantTag == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			e := verr.Errors()[0]
			if e.Field() != tt.wantField || e.Tag() != tt.wantTag {
				t.Errorf("field/tag = %s/%s, want %s/%s", e.Field(), e.Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	single := ValidateStruct(&runRequest{Limit: -5}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %s", single.Code)
	}
	if single.Message != "limit must be greater than or equal to 0" {
		t.Errorf("Message = %q", single.Message)
	}
	if single.Details["field"] != "limit" {
		t.Errorf("Details = %v", single.Details)
	}

	multi := ValidateStruct(&runRequest{Limit: -5, Schedule: "x"}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("Details = %v", multi.Details)
	}
	if !strings.Contains(multi.Message, "schedule must be a valid cron expression") {
		t.Errorf("Message = %q", multi.Message)
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	ve := &RequestValidationError{}
	if ve.Error() != "validation failed" {
		t.Errorf("Error = %q", ve.Error())
	}
	if ve.ToAPIError().Message != "Validation failed" {
		t.Errorf("Message = %q", ve.ToAPIError().Message)
	}
}

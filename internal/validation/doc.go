// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata on first use. Field errors are reported by their JSON name so
// messages match the request body the client sent.
//
// # Custom tags
//
//   - badgefont: a font identifier accepted by badge.ParseFont
//   - badgecolor: #RRGGBB or #RRGGBBAA
//   - cronspec: a standard cron expression or descriptor
//
// # Usage
//
//	var req ProcessRequest
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation

// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package badge

import (
	"fmt"
	"math"

	"github.com/tomtom215/marquee/internal/ratings"
)

// FreshThreshold is the Rotten Tomatoes score at and above which the
// fresh glyph is drawn.
const FreshThreshold = 60

// Logo asset keys. Each maps to <key>.png in the logo directory.
const (
	LogoTMDB             = "tmdb"
	LogoIMDb             = "imdb"
	LogoRTFresh          = "rt_fresh"
	LogoRTRotten         = "rt_rotten"
	LogoRTAudienceFresh  = "rt_audience_fresh"
	LogoRTAudienceRotten = "rt_audience_rotten"
)

// LogoKeys lists every logo asset key.
var LogoKeys = []string{LogoTMDB, LogoIMDb, LogoRTFresh, LogoRTRotten, LogoRTAudienceFresh, LogoRTAudienceRotten}

// LogoKey selects the logo for src. Rotten Tomatoes sources compare the
// value as displayed (rounded to a whole percent) so the glyph always
// agrees with the printed number.
func LogoKey(src ratings.Source, value float64) string {
	fresh := math.Round(value) >= FreshThreshold
	switch src {
	case ratings.SourceRTCritic:
		if fresh {
			return LogoRTFresh
		}
		return LogoRTRotten
	case ratings.SourceRTAudience:
		if fresh {
			return LogoRTAudienceFresh
		}
		return LogoRTAudienceRotten
	case ratings.SourceIMDb:
		return LogoIMDb
	default:
		return LogoTMDB
	}
}

// logoBoost enlarges the popcorn glyphs, which carry more empty space.
func logoBoost(key string) float64 {
	switch key {
	case LogoRTAudienceFresh:
		return 1.2
	case LogoRTAudienceRotten:
		return 1.3
	default:
		return 1
	}
}

// FormatValue renders a rating as printed on its badge: one decimal on the
// 0-10 scale, a whole percent on the 0-100 scale. Halves round away from
// zero on the decimal value, so 7.55 prints as "7.6".
func FormatValue(r ratings.Rating) string {
	if r.Scale == ratings.ScaleHundred {
		return fmt.Sprintf("%.0f%%", math.Round(r.Value))
	}
	return fmt.Sprintf("%.1f", math.Round(r.Value*10)/10)
}

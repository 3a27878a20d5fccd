// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoFreshPoster is returned when Plex offers no upstream poster other
// than the active one.
var ErrNoFreshPoster = errors.New("plex: no upstream poster available")

// Poster is one candidate from /library/metadata/{id}/posters.
type Poster struct {
	Key       string `json:"key"`
	RatingKey string `json:"ratingKey"` // source URL, or upload:// for uploaded posters
	Thumb     string `json:"thumb"`
	Provider  string `json:"provider"`
	Selected  bool   `json:"selected"`
}

// DownloadPoster fetches the item's active poster and its content type.
func (c *Client) DownloadPoster(ctx context.Context, item *Item) ([]byte, string, error) {
	thumb := item.Thumb
	if thumb == "" {
		thumb = metadataPath(item.RatingKey) + "/thumb"
	}
	path, rawQuery, _ := strings.Cut(thumb, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, "", fmt.Errorf("parse thumb query: %w", err)
	}

	resp, err := c.do(ctx, requestConfig{
		operation: "download_poster",
		method:    http.MethodGet,
		path:      path,
		query:     query,
	})
	if err != nil {
		return nil, "", err
	}
	if len(resp.body) == 0 {
		return nil, "", fmt.Errorf("empty poster for %s", item.RatingKey)
	}
	return resp.body, resp.contentType, nil
}

// UploadPoster uploads data as a new poster and makes it active.
//
// Endpoint: POST /library/metadata/{ratingKey}/posters
func (c *Client) UploadPoster(ctx context.Context, ratingKey string, data []byte, contentType string) error {
	if len(data) == 0 {
		return fmt.Errorf("poster data is empty")
	}
	_, err := c.do(ctx, requestConfig{
		operation:   "upload_poster",
		method:      http.MethodPost,
		path:        metadataPath(ratingKey) + "/posters",
		body:        data,
		contentType: contentType,
	})
	return err
}

// Posters lists the poster candidates Plex knows for an item.
func (c *Client) Posters(ctx context.Context, ratingKey string) ([]Poster, error) {
	var resp struct {
		MediaContainer struct {
			Metadata []Poster `json:"Metadata"`
		} `json:"MediaContainer"`
	}
	if err := c.doJSONRequest(ctx, "list_posters", metadataPath(ratingKey)+"/posters", nil, &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Metadata, nil
}

// FreshPosterURL picks an upstream poster to replace the active one: the
// first unselected TMDB poster, otherwise the first unselected non-upload
// poster.
func (c *Client) FreshPosterURL(ctx context.Context, ratingKey string) (string, error) {
	posters, err := c.Posters(ctx, ratingKey)
	if err != nil {
		return "", err
	}
	return pickFreshPoster(posters)
}

func pickFreshPoster(posters []Poster) (string, error) {
	var fallback string
	for _, p := range posters {
		if p.Selected || p.RatingKey == "" || strings.HasPrefix(p.RatingKey, "upload://") {
			continue
		}
		if strings.Contains(strings.ToLower(p.Provider), "tmdb") ||
			strings.Contains(p.RatingKey, "image.tmdb.org") {
			return p.RatingKey, nil
		}
		if fallback == "" {
			fallback = p.RatingKey
		}
	}
	if fallback == "" {
		return "", ErrNoFreshPoster
	}
	return fallback, nil
}

// SelectPoster makes posterURL the active poster.
//
// Endpoint: PUT /library/metadata/{ratingKey}/poster?url=...
func (c *Client) SelectPoster(ctx context.Context, ratingKey, posterURL string) error {
	query := url.Values{}
	query.Set("url", posterURL)
	_, err := c.do(ctx, requestConfig{
		operation: "select_poster",
		method:    http.MethodPut,
		path:      metadataPath(ratingKey) + "/poster",
		query:     query,
	})
	return err
}

// FetchFresh replaces the active poster with an upstream one and returns
// the chosen URL.
func (c *Client) FetchFresh(ctx context.Context, ratingKey string) (string, error) {
	u, err := c.FreshPosterURL(ctx, ratingKey)
	if err != nil {
		return "", err
	}
	if err := c.SelectPoster(ctx, ratingKey, u); err != nil {
		return "", err
	}
	return u, nil
}

// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Identity is the server identity returned by /identity.
type Identity struct {
	MachineIdentifier string `json:"machineIdentifier"`
	Version           string `json:"version"`
}

// Ping checks that the server is reachable and the token is accepted.
func (c *Client) Ping(ctx context.Context) (*Identity, error) {
	var resp struct {
		MediaContainer Identity `json:"MediaContainer"`
	}
	if err := c.doJSONRequest(ctx, "identity", "/identity", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.MediaContainer, nil
}

// ListLibraries returns every library section.
//
// Endpoint: GET /library/sections
func (c *Client) ListLibraries(ctx context.Context) ([]Library, error) {
	var resp struct {
		MediaContainer struct {
			Directory []Library `json:"Directory"`
		} `json:"MediaContainer"`
	}
	if err := c.doJSONRequest(ctx, "list_libraries", "/library/sections", nil, &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Directory, nil
}

// FindLibrary returns the section titled name. Returns ErrNotFound if no
// section has that title.
func (c *Client) FindLibrary(ctx context.Context, name string) (*Library, error) {
	libs, err := c.ListLibraries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range libs {
		if libs[i].Title == name {
			return &libs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: library %q", ErrNotFound, name)
}

type itemsContainer struct {
	MediaContainer struct {
		Size      int    `json:"size"`
		TotalSize int    `json:"totalSize"`
		Metadata  []Item `json:"Metadata"`
	} `json:"MediaContainer"`
}

// ListItems returns every item of a section in listing order, fetched in
// pages via X-Plex-Container-Start / X-Plex-Container-Size.
//
// Endpoint: GET /library/sections/{sectionKey}/all
func (c *Client) ListItems(ctx context.Context, sectionKey string) ([]Item, error) {
	path := "/library/sections/" + url.PathEscape(sectionKey) + "/all"

	var items []Item
	for start := 0; ; start += c.pageSize {
		query := url.Values{}
		query.Set("includeGuids", "1")
		query.Set("X-Plex-Container-Start", strconv.Itoa(start))
		query.Set("X-Plex-Container-Size", strconv.Itoa(c.pageSize))

		var page itemsContainer
		if err := c.doJSONRequest(ctx, "list_items", path, query, &page); err != nil {
			return nil, err
		}
		items = append(items, page.MediaContainer.Metadata...)

		n := len(page.MediaContainer.Metadata)
		total := page.MediaContainer.TotalSize
		if n == 0 || n < c.pageSize || (total > 0 && len(items) >= total) {
			return items, nil
		}
	}
}

// CountItems returns the number of items in a section without listing
// them: a zero-size page still carries totalSize.
//
// Endpoint: GET /library/sections/{sectionKey}/all
func (c *Client) CountItems(ctx context.Context, sectionKey string) (int, error) {
	query := url.Values{}
	query.Set("X-Plex-Container-Start", "0")
	query.Set("X-Plex-Container-Size", "0")

	var page itemsContainer
	path := "/library/sections/" + url.PathEscape(sectionKey) + "/all"
	if err := c.doJSONRequest(ctx, "count_items", path, query, &page); err != nil {
		return 0, err
	}
	if page.MediaContainer.TotalSize > 0 {
		return page.MediaContainer.TotalSize, nil
	}
	return page.MediaContainer.Size, nil
}

// GetItem returns full metadata, including the Guid and Rating arrays.
//
// Endpoint: GET /library/metadata/{ratingKey}
func (c *Client) GetItem(ctx context.Context, ratingKey string) (*Item, error) {
	query := url.Values{}
	query.Set("includeGuids", "1")

	var resp itemsContainer
	if err := c.doJSONRequest(ctx, "get_item", metadataPath(ratingKey), query, &resp); err != nil {
		return nil, err
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, ratingKey)
	}
	return &resp.MediaContainer.Metadata[0], nil
}

func metadataPath(ratingKey string) string {
	return "/library/metadata/" + url.PathEscape(ratingKey)
}

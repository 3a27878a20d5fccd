// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// EventLibraryNew is the only event that triggers processing.
const (
	EventLibraryNew     = "library.new"
	SignatureHeader     = "X-Plex-Signature"
	maxPayloadBytes     = 8 << 20
	multipartPayloadKey = "payload"
)

var (
	// ErrBadSignature is returned when X-Plex-Signature does not match.
	ErrBadSignature = errors.New("webhook signature mismatch")
	// ErrBadPayload is returned for bodies that hold no event.
	ErrBadPayload = errors.New("invalid webhook payload")
)

// Payload is the subset of a Plex webhook body the batcher uses.
type Payload struct {
	Event    string   `json:"event"`
	Owner    bool     `json:"owner"`
	Server   Server   `json:"Server"`
	Metadata Metadata `json:"Metadata"`
}

// Server identifies the Plex server that sent the event.
type Server struct {
	Title string `json:"title"`
	UUID  string `json:"uuid"`
}

// Metadata describes the item the event is about.
type Metadata struct {
	RatingKey          string `json:"ratingKey"`
	Type               string `json:"type"`
	Title              string `json:"title"`
	LibrarySectionType string `json:"librarySectionType"`
	LibraryTitle       string `json:"librarySectionTitle"`
}

// Parse reads a webhook body. Plex posts multipart/form-data with the JSON
// in a "payload" field; a raw JSON body is accepted as well. The signature,
// when secret is set, is computed over the JSON document.
func Parse(r *http.Request, secret string) (*Payload, error) {
	raw, err := readPayload(r)
	if err != nil {
		return nil, err
	}

	if secret != "" && !VerifySignature(raw, r.Header.Get(SignatureHeader), secret) {
		return nil, ErrBadSignature
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if p.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrBadPayload)
	}
	return &p, nil
}

func readPayload(r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(nil, r.Body, maxPayloadBytes)
	r.Body = body

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxPayloadBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		v := r.FormValue(multipartPayloadKey)
		if v == "" {
			return nil, fmt.Errorf("%w: missing %q field", ErrBadPayload, multipartPayloadKey)
		}
		return []byte(v), nil
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return raw, nil
}

// VerifySignature checks a hex HMAC-SHA256 of body.
func VerifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

// Sign returns the signature VerifySignature accepts.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Relevant reports whether the event should trigger badge processing.
// Only newly added movies and shows qualify.
func (p *Payload) Relevant() bool {
	if p.Event != EventLibraryNew || p.Metadata.RatingKey == "" {
		return false
	}
	switch p.Metadata.Type {
	case "movie", "show":
		return true
	default:
		return false
	}
}

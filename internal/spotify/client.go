// Copyright 2020 Matt Layher
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package spotify implements a minimal Spotify Web API client for playback
// control, and a Worker which runs it off the caller's goroutine.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// A StatusError is returned when the API responds with an unexpected HTTP
// status.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify: API returned HTTP %d", e.Status)
}

// A Client controls playback for the Spotify account which owns its token.
type Client struct {
	c     *http.Client
	u     *url.URL
	token string
}

// NewClient creates a Client for the Spotify Web API at addr which
// authenticates with the OAuth access token. If c is nil, a default HTTP
// client will be configured.
func NewClient(addr, token string, c *http.Client) (*Client, error) {
	if c == nil {
		c = &http.Client{Timeout: 5 * time.Second}
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	return &Client{
		c:     c,
		u:     u,
		token: token,
	}, nil
}

// A Playlist is a user's playlist.
type Playlist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CurrentSong returns the currently playing track formatted as
// "Artist1, Artist2 - Title", or "None" if nothing is playing.
func (c *Client) CurrentSong(ctx context.Context) (string, error) {
	var cp struct {
		Type string `json:"currently_playing_type"`
		Item *struct {
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"item"`
	}

	status, err := c.do(ctx, http.MethodGet, "/v1/me/player/currently-playing?additional_types=track", nil, &cp)
	if err != nil {
		return "", err
	}

	if status == http.StatusNoContent || cp.Item == nil {
		return "None", nil
	}

	if cp.Type == "episode" {
		return "Unsupported episode", nil
	}

	artists := make([]string, 0, len(cp.Item.Artists))
	for _, a := range cp.Item.Artists {
		artists = append(artists, a.Name)
	}

	return strings.Join(artists, ", ") + " - " + cp.Item.Name, nil
}

// Play resumes playback.
func (c *Client) Play(ctx context.Context) error {
	return c.control(ctx, http.MethodPut, "/v1/me/player/play")
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.control(ctx, http.MethodPut, "/v1/me/player/pause")
}

// Skip skips to the next track.
func (c *Client) Skip(ctx context.Context) error {
	return c.control(ctx, http.MethodPost, "/v1/me/player/next")
}

// control performs a playback control request. The API responds with HTTP 403
// when playback is already in the requested state, which is not an error.
func (c *Client) control(ctx context.Context, method, path string) error {
	_, err := c.do(ctx, method, path, nil, nil)

	var serr *StatusError
	if errors.As(err, &serr) && serr.Status == http.StatusForbidden {
		return nil
	}

	return err
}

// Playlists fetches every playlist of the current user.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var (
		playlists []Playlist
		next      = "/v1/me/playlists?limit=50"
	)

	for next != "" {
		var page struct {
			Items []Playlist `json:"items"`
			Next  *string    `json:"next"`
		}

		if _, err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}

		playlists = append(playlists, page.Items...)

		next = ""
		if page.Next != nil && *page.Next != "" {
			u, err := c.sameOrigin(*page.Next)
			if err != nil {
				return nil, err
			}

			next = u.String()
		}
	}

	return playlists, nil
}

// sameOrigin resolves ref against the API address and rejects it if it
// points at another scheme or host, which must never receive the token.
func (c *Client) sameOrigin(ref string) (*url.URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	u := c.u.ResolveReference(r)
	if u.Scheme != c.u.Scheme || u.Host != c.u.Host {
		return nil, fmt.Errorf("refusing to follow page URL %q outside of %q", ref, c.u.Host)
	}

	return u, nil
}

// PlayPlaylist starts playback of the playlist with the given ID.
func (c *Client) PlayPlaylist(ctx context.Context, id string) error {
	body := struct {
		ContextURI string `json:"context_uri"`
	}{
		ContextURI: "spotify:playlist:" + id,
	}

	_, err := c.do(ctx, http.MethodPut, "/v1/me/player/play", body, nil)
	return err
}

// do performs an HTTP request with the input parameters, optionally
// marshaling in as a JSON body and unmarshaling a JSON body into out if out is
// not nil. ref may be a path or an absolute URL returned by the API.
func (c *Client) do(ctx context.Context, method, ref string, in, out interface{}) (int, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return 0, err
	}

	u := c.u.ResolveReference(r)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.c.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
	default:
		return res.StatusCode, &StatusError{Status: res.StatusCode}
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		// Nothing to unmarshal, exit early.
		return res.StatusCode, nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return res.StatusCode, err
	}

	return res.StatusCode, nil
}

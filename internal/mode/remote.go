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

package mode

import (
	"image"
	"log"
	"time"

	"github.com/mdlayher/padboard/internal/action"
	"github.com/mdlayher/padboard/internal/config"
	"github.com/mdlayher/padboard/internal/display"
	"github.com/mdlayher/padboard/internal/spotify"
)

// Remote control LED colors.
const (
	colorRemoteControl = 122
	colorPlaylist      = 127
)

// A Worker performs remote control requests asynchronously.
// *spotify.Worker implements Worker.
type Worker interface {
	Submit(req spotify.Request) bool
	Results() <-chan spotify.Result
}

var (
	_ Mode   = &Remote{}
	_ Worker = &spotify.Worker{}
)

// Remote is the remote control Mode for a Spotify session. All requests are
// performed by a Worker and their results are collected on Update.
type Remote struct {
	w    Worker
	poll time.Duration
	ll   *log.Logger

	// Swappable for tests.
	now func() time.Time

	lastPoll  time.Time
	available bool
	song      string
	playlists []spotify.Playlist
	loaded    bool
	selected  int
}

// NewRemote creates a remote control Mode which requests the current song
// from w every poll interval.
func NewRemote(w Worker, poll time.Duration, ll *log.Logger) *Remote {
	return &Remote{
		w:    w,
		poll: poll,
		ll:   ll,
		now:  time.Now,
	}
}

func (*Remote) mode() {}

// Name implements Mode.
func (*Remote) Name() string { return "remote" }

// ButtonPress implements Mode.
func (*Remote) ButtonPress(config.Button) (LightAction, error) {
	return LightNone, nil
}

// ControlPress implements Mode.
func (m *Remote) ControlPress(b config.Button) (LightAction, error) {
	var req spotify.Request
	switch b.Name {
	case config.ControlPlay:
		req.Op = spotify.Play
	case config.ControlPause:
		req.Op = spotify.Pause
	case config.ControlSkip:
		req.Op = spotify.Skip
	case config.ControlPlaylist:
		if len(m.playlists) == 0 {
			return LightNone, nil
		}

		req = spotify.Request{
			Op:         spotify.PlayPlaylist,
			PlaylistID: m.playlists[m.selected].ID,
		}
	default:
		return LightNone, nil
	}

	m.submit(req)
	return LightNone, nil
}

// EncoderChange implements Mode.
func (m *Remote) EncoderChange(b config.Button, delta int) (LightAction, error) {
	if b.Name == config.EncoderSelect {
		m.selected = Wrap(m.selected, delta, len(m.playlists))
	}

	return LightNone, nil
}

// ApplyLights implements Mode.
func (m *Remote) ApplyLights(l Lights, mapping config.Mapping) error {
	return applyLights(l, mapping, func(b config.Button) uint8 {
		if b.Kind != config.Control {
			return action.ColorOff
		}

		switch b.Name {
		case config.ControlPlay, config.ControlPause, config.ControlSkip:
			if m.available {
				return colorRemoteControl
			}
		case config.ControlPlaylist:
			if m.available && len(m.playlists) > 0 {
				return colorPlaylist
			}
		}

		return action.ColorOff
	})
}

// Update implements Mode.
func (m *Remote) Update() (LightAction, error) {
	wasAvailable, hadPlaylists := m.available, len(m.playlists) > 0

	m.collect()

	if now := m.now(); now.Sub(m.lastPoll) >= m.poll {
		m.lastPoll = now
		m.submit(spotify.Request{Op: spotify.CurrentSong})

		if !m.loaded {
			m.submit(spotify.Request{Op: spotify.Playlists})
		}
	}

	if m.available != wasAvailable || (len(m.playlists) > 0) != hadPlaylists {
		return LightReapply, nil
	}

	return LightNone, nil
}

// collect applies every completed Result without blocking.
func (m *Remote) collect() {
	for {
		var res spotify.Result
		select {
		case res = <-m.w.Results():
		default:
			return
		}

		if res.Err != nil {
			// Errors are logged by the Worker and shown on the display.
			m.available = false
			continue
		}

		m.available = true
		switch res.Op {
		case spotify.CurrentSong:
			m.song = res.Song
		case spotify.Playlists:
			m.playlists = res.Playlists
			m.loaded = true
			if m.selected >= len(m.playlists) {
				m.selected = 0
			}
		case spotify.Skip, spotify.PlayPlaylist:
			// Refresh the song on the next Update.
			m.lastPoll = time.Time{}
		}
	}
}

func (m *Remote) submit(req spotify.Request) {
	if !m.w.Submit(req) {
		m.ll.Printf("spotify: dropping %s request, worker is busy", req.Op)
	}
}

// Layout of the remote mode display.
const (
	remoteX        = 50
	playlistX      = 500
	playlistRows   = 7
	playlistWidth  = 400
	playlistHeight = 18
)

// Display implements Mode.
func (m *Remote) Display(c *display.Canvas) error {
	if err := c.Text(remoteX, headerY, "Spotify", display.White); err != nil {
		return err
	}
	c.FillRect(image.Rect(remoteX, headerY+5, remoteX+70, headerY+7), display.White)

	if err := c.Text(remoteX, rowY, "Now playing:", display.White); err != nil {
		return err
	}
	if err := c.Text(remoteX, rowY+2*rowSpacing, c.Truncate(m.Song(), playlistX-remoteX-20), display.White); err != nil {
		return err
	}

	if len(m.playlists) == 0 {
		return nil
	}

	// Scroll the list so the selected playlist is always visible.
	first := 0
	if m.selected >= playlistRows {
		first = m.selected - playlistRows + 1
	}

	for i := first; i < len(m.playlists) && i < first+playlistRows; i++ {
		y := rowY + (i-first)*playlistHeight

		col := display.White
		if i == m.selected {
			c.FillRect(image.Rect(playlistX-4, y-playlistHeight+4, playlistX+playlistWidth, y+4), display.White)
			col = display.Black
		}

		name := c.Truncate(m.playlists[i].Name, playlistWidth-8)
		if err := c.Text(playlistX, y, name, col); err != nil {
			return err
		}
	}

	return nil
}

// Selected returns the index of the selected playlist.
func (m *Remote) Selected() int { return m.selected }

// Song returns the last known current song, or "unavailable" if the remote
// service could not be reached.
func (m *Remote) Song() string {
	if !m.available {
		return "unavailable"
	}

	return m.song
}

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

package spotify

import (
	"context"
	"fmt"
	"log"
	"time"
)

// An Op is an operation which a Worker performs.
type Op int

// Possible Op values.
const (
	CurrentSong Op = iota
	Play
	Pause
	Skip
	Playlists
	PlayPlaylist
)

func (o Op) String() string {
	switch o {
	case CurrentSong:
		return "current song"
	case Play:
		return "play"
	case Pause:
		return "pause"
	case Skip:
		return "skip"
	case Playlists:
		return "playlists"
	case PlayPlaylist:
		return "play playlist"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// A Request asks a Worker to perform an Op.
type Request struct {
	Op Op

	// PlaylistID is the playlist to play for PlayPlaylist.
	PlaylistID string
}

// A Result is the outcome of a Request.
type Result struct {
	Op        Op
	Song      string
	Playlists []Playlist
	Err       error
}

// A Remote is the set of operations a Worker can perform. *Client implements
// Remote.
type Remote interface {
	CurrentSong(ctx context.Context) (string, error)
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Skip(ctx context.Context) error
	Playlists(ctx context.Context) ([]Playlist, error)
	PlayPlaylist(ctx context.Context, id string) error
}

var _ Remote = &Client{}

// A Worker performs Requests against a Remote one at a time on its own
// goroutine so callers never block on network I/O.
type Worker struct {
	r       Remote
	timeout time.Duration
	ll      *log.Logger

	reqC chan Request
	resC chan Result
}

// NewWorker creates a Worker for r. Each request is bounded by timeout.
func NewWorker(r Remote, timeout time.Duration, ll *log.Logger) *Worker {
	return &Worker{
		r:       r,
		timeout: timeout,
		ll:      ll,

		reqC: make(chan Request, 8),
		resC: make(chan Result, 8),
	}
}

// Submit queues req without blocking. It reports false if the queue is full.
func (w *Worker) Submit(req Request) bool {
	select {
	case w.reqC <- req:
		return true
	default:
		return false
	}
}

// Results returns the channel on which Results are delivered.
func (w *Worker) Results() <-chan Result { return w.resC }

// Run performs queued Requests until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		var req Request
		select {
		case <-ctx.Done():
			return nil
		case req = <-w.reqC:
		}

		res := w.do(ctx, req)
		if res.Err != nil {
			w.ll.Printf("spotify: %s: %v", req.Op, res.Err)
		}

		select {
		case <-ctx.Done():
			return nil
		case w.resC <- res:
		}
	}
}

func (w *Worker) do(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	res := Result{Op: req.Op}
	switch req.Op {
	case CurrentSong:
		res.Song, res.Err = w.r.CurrentSong(ctx)
	case Play:
		res.Err = w.r.Play(ctx)
	case Pause:
		res.Err = w.r.Pause(ctx)
	case Skip:
		res.Err = w.r.Skip(ctx)
	case Playlists:
		res.Playlists, res.Err = w.r.Playlists(ctx)
	case PlayPlaylist:
		res.Err = w.r.PlayPlaylist(ctx, req.PlaylistID)
	default:
		res.Err = fmt.Errorf("unknown operation %s", req.Op)
	}

	return res
}

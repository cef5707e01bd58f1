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

package spotify_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mdlayher/padboard/internal/spotify"
	"golang.org/x/sync/errgroup"
)

func TestWorker(t *testing.T) {
	errOffline := errors.New("offline")

	r := &testRemote{
		song:      "Boards of Canada - Roygbiv",
		playlists: []spotify.Playlist{{ID: "a", Name: "Focus"}},
		played:    make(chan string, 1),
		skipErr:   errOffline,
	}

	w := spotify.NewWorker(r, time.Second, log.New(os.Stderr, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error {
		return w.Run(ctx)
	})

	reqs := []spotify.Request{
		{Op: spotify.CurrentSong},
		{Op: spotify.Playlists},
		{Op: spotify.Skip},
		{Op: spotify.PlayPlaylist, PlaylistID: "a"},
	}

	for _, req := range reqs {
		if !w.Submit(req) {
			t.Fatalf("failed to submit %s", req.Op)
		}
	}

	var got []spotify.Result
	for range reqs {
		select {
		case res := <-w.Results():
			got = append(got, res)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for result")
		}
	}

	cancel()
	if err := eg.Wait(); err != nil {
		t.Fatalf("failed to run worker: %v", err)
	}

	want := []spotify.Result{
		{Op: spotify.CurrentSong, Song: "Boards of Canada - Roygbiv"},
		{Op: spotify.Playlists, Playlists: []spotify.Playlist{{ID: "a", Name: "Focus"}}},
		{Op: spotify.Skip, Err: errOffline},
		{Op: spotify.PlayPlaylist},
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateErrors()); diff != "" {
		t.Fatalf("unexpected results (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff("a", <-r.played); diff != "" {
		t.Fatalf("unexpected played playlist (-want +got):\n%s", diff)
	}
}

func TestWorkerSubmitFull(t *testing.T) {
	w := spotify.NewWorker(&testRemote{}, time.Second, log.New(os.Stderr, "", 0))

	// Nothing is running the Worker, so the queue eventually fills.
	var full bool
	for i := 0; i < 100; i++ {
		if !w.Submit(spotify.Request{Op: spotify.Play}) {
			full = true
			break
		}
	}

	if !full {
		t.Fatal("expected the request queue to fill")
	}
}

type testRemote struct {
	song      string
	playlists []spotify.Playlist
	played    chan string
	skipErr   error
}

func (r *testRemote) CurrentSong(context.Context) (string, error) { return r.song, nil }
func (r *testRemote) Play(context.Context) error                  { return nil }
func (r *testRemote) Pause(context.Context) error                 { return nil }
func (r *testRemote) Skip(context.Context) error                  { return r.skipErr }

func (r *testRemote) Playlists(context.Context) ([]spotify.Playlist, error) {
	return r.playlists, nil
}

func (r *testRemote) PlayPlaylist(_ context.Context, id string) error {
	r.played <- id
	return nil
}

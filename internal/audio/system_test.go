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

package audio_test

import (
	"errors"
	"testing"

	"github.com/faiface/beep"
	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/padboard/internal/audio"
)

func TestSystemChangeVolume(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		deltas []int
		want   uint32
	}{
		{
			name: "default",
			want: audio.DefaultVolume,
		},
		{
			name:   "up and down",
			deltas: []int{10, -5, 3},
			want:   108,
		},
		{
			name:   "saturate low",
			deltas: []int{-150},
			want:   0,
		},
		{
			name:   "saturate high",
			deltas: []int{-100, 1000},
			want:   audio.MaxVolume,
		},
		{
			name:   "saturate high then down",
			deltas: []int{1000, -1},
			want:   audio.MaxVolume - 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := audio.NewSystem(&nopOutput{})

			for _, d := range tt.deltas {
				if err := sys.ChangeVolume(d); err != nil {
					t.Fatalf("failed to change volume: %v", err)
				}
			}

			got, err := sys.Volume()
			if err != nil {
				t.Fatalf("failed to get volume: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected volume (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSystemVolumeFactor(t *testing.T) {
	sys := audio.NewSystem(&nopOutput{})
	if err := sys.ChangeVolume(150); err != nil {
		t.Fatalf("failed to change volume: %v", err)
	}

	f, err := sys.VolumeFactor()
	if err != nil {
		t.Fatalf("failed to get volume factor: %v", err)
	}

	if diff := cmp.Diff(2.5, f); diff != "" {
		t.Fatalf("unexpected volume factor (-want +got):\n%s", diff)
	}
}

func TestSystemRepressMode(t *testing.T) {
	sys := audio.NewSystem(&nopOutput{})

	var got []audio.RepressMode
	m, err := sys.RepressMode()
	if err != nil {
		t.Fatalf("failed to get repress mode: %v", err)
	}
	got = append(got, m)

	for i := 0; i < 2; i++ {
		m, err := sys.ToggleRepressMode()
		if err != nil {
			t.Fatalf("failed to toggle repress mode: %v", err)
		}
		got = append(got, m)
	}

	want := []audio.RepressMode{audio.End, audio.Interrupt, audio.End}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected repress modes (-want +got):\n%s", diff)
	}
}

func TestSystemNewSinkError(t *testing.T) {
	errFull := errors.New("no more sinks")
	sys := audio.NewSystem(&nopOutput{err: errFull})

	if _, err := sys.NewSink(); !errors.Is(err, errFull) {
		t.Fatalf("expected wrapped output error, but got: %v", err)
	}
}

type nopOutput struct {
	err error
}

func (o *nopOutput) NewSink() (audio.Sink, error) {
	if o.err != nil {
		return nil, o.err
	}

	return nopSink{}, nil
}

func (*nopOutput) SampleRate() beep.SampleRate { return 44100 }

type nopSink struct{}

func (nopSink) Append(beep.Streamer) {}
func (nopSink) SetVolume(float64)    {}
func (nopSink) Empty() bool          { return true }
func (nopSink) Stop()                {}

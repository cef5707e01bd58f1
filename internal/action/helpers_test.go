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

package action_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/mdlayher/padboard/internal/audio"
)

// testOutput is an audio.Output which records allocated sinks.
type testOutput struct {
	mu    sync.Mutex
	sinks []*testSink
	err   error
}

func (o *testOutput) NewSink() (audio.Sink, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return nil, o.err
	}

	s := &testSink{}
	o.sinks = append(o.sinks, s)
	return s, nil
}

func (*testOutput) SampleRate() beep.SampleRate { return 44100 }

// active returns the number of sinks which have not been stopped.
func (o *testOutput) active() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	var n int
	for _, s := range o.sinks {
		if !s.stopped {
			n++
		}
	}

	return n
}

// testSink is an audio.Sink whose drained state is controlled by the test.
type testSink struct {
	appended int
	volume   float64
	drained  bool
	stopped  bool
}

func (s *testSink) Append(beep.Streamer) {
	s.appended++
	s.drained = false
}

func (s *testSink) SetVolume(v float64) { s.volume = v }
func (s *testSink) Empty() bool         { return s.drained || s.stopped }
func (s *testSink) Stop()               { s.stopped = true }

// testSample loads a short silent WAV sample.
func testSample(t *testing.T, name string) *audio.Sample {
	t.Helper()

	s, err := audio.LoadSample(writeWAV(t, t.TempDir(), name))
	if err != nil {
		t.Fatalf("failed to load sample: %v", err)
	}

	return s
}

// writeWAV writes a short silent WAV file into dir and returns its path.
func writeWAV(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create WAV file: %v", err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: 44100, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Silence(441), format); err != nil {
		t.Fatalf("failed to encode WAV file: %v", err)
	}

	return path
}

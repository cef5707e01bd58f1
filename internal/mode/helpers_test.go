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

package mode_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/mdlayher/padboard/internal/audio"
	"github.com/mdlayher/padboard/internal/config"
	"github.com/mdlayher/padboard/internal/display"
)

// testLights records the last color set for each address.
type testLights struct {
	mu     sync.Mutex
	colors map[config.Address]uint8
	err    error
}

func (l *testLights) Light(a config.Address, color uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return l.err
	}

	if l.colors == nil {
		l.colors = make(map[config.Address]uint8)
	}
	l.colors[a] = color
	return nil
}

// testMapping is a small button layout with every kind of button.
func testMapping(t *testing.T) config.Mapping {
	t.Helper()

	m, err := config.ButtonsConfig{
		Pads: map[uint8]string{36: "pad0x0", 37: "pad1x0"},
		Controls: map[uint8]string{
			20: config.ControlSoundMode,
			21: config.ControlRemoteMode,
			24: config.ControlPlay,
			27: config.ControlPlaylist,
			29: config.ControlRepress,
		},
		Encoders: map[uint8]string{71: config.EncoderSelect, 78: config.EncoderVolume},
	}.Mapping()
	if err != nil {
		t.Fatalf("failed to build mapping: %v", err)
	}

	return m
}

// testOutput is an audio.Output which records allocated sinks.
type testOutput struct {
	sinks []*testSink
}

func (o *testOutput) NewSink() (audio.Sink, error) {
	s := &testSink{}
	o.sinks = append(o.sinks, s)
	return s, nil
}

func (*testOutput) SampleRate() beep.SampleRate { return 44100 }

type testSink struct {
	stopped bool
}

func (*testSink) Append(beep.Streamer) {}
func (*testSink) SetVolume(float64)    {}
func (s *testSink) Empty() bool        { return s.stopped }
func (s *testSink) Stop()              { s.stopped = true }

func testSample(t *testing.T, name string) *audio.Sample {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create WAV file: %v", err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: 44100, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Silence(441), format); err != nil {
		t.Fatalf("failed to encode WAV file: %v", err)
	}

	s, err := audio.LoadSample(path)
	if err != nil {
		t.Fatalf("failed to load sample: %v", err)
	}

	return s
}

func testCanvas(t *testing.T) *display.Canvas {
	t.Helper()

	c, err := display.NewCanvas(display.NewFrame(""), 14)
	if err != nil {
		t.Fatalf("failed to create canvas: %v", err)
	}

	return c
}

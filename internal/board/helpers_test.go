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

package board_test

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/mdlayher/padboard/internal/action"
	"github.com/mdlayher/padboard/internal/audio"
	"github.com/mdlayher/padboard/internal/board"
	"github.com/mdlayher/padboard/internal/config"
	"github.com/mdlayher/padboard/internal/mode"
	"github.com/mdlayher/padboard/internal/spotify"
)

var _ board.Controller = &testController{}

// A light is a single LED write.
type light struct {
	Address config.Address
	Color   uint8
}

// testController is a board.Controller which records LED writes and delivers
// inputs queued on inC.
type testController struct {
	mu     sync.Mutex
	lights []light
	colors map[config.Address]uint8
	err    error

	inC chan board.Input
}

func newTestController() *testController {
	return &testController{
		colors: make(map[config.Address]uint8),
		inC:    make(chan board.Input, 16),
	}
}

func (c *testController) Events(ctx context.Context) (<-chan board.Input, error) {
	return c.inC, nil
}

func (c *testController) Light(a config.Address, color uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}

	c.lights = append(c.lights, light{Address: a, Color: color})
	c.colors[a] = color
	return nil
}

func (*testController) Close() error { return nil }

// flush returns and clears the recorded LED writes.
func (c *testController) flush() []light {
	c.mu.Lock()
	defer c.mu.Unlock()

	ls := c.lights
	c.lights = nil
	return ls
}

// color returns the last color written to a.
func (c *testController) color(a config.Address) (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	color, ok := c.colors[a]
	return color, ok
}

var (
	pad0       = config.Address{Number: 36}
	pad1       = config.Address{Number: 37}
	soundCtl   = config.Address{Control: true, Number: 20}
	remoteCtl  = config.Address{Control: true, Number: 21}
	playCtl    = config.Address{Control: true, Number: 24}
	repressCtl = config.Address{Control: true, Number: 29}
	selectEnc  = config.Address{Control: true, Number: 71}
	volumeEnc  = config.Address{Control: true, Number: 78}
)

// testMapping is a small button layout with every kind of button.
func testMapping(t *testing.T) config.Mapping {
	t.Helper()

	m, err := config.ButtonsConfig{
		Pads: map[uint8]string{36: "pad0x0", 37: "pad1x0"},
		Controls: map[uint8]string{
			20: config.ControlSoundMode,
			21: config.ControlRemoteMode,
			24: config.ControlPlay,
			29: config.ControlRepress,
		},
		Encoders: map[uint8]string{71: config.EncoderSelect, 78: config.EncoderVolume},
	}.Mapping()
	if err != nil {
		t.Fatalf("failed to build mapping: %v", err)
	}

	return m
}

// clearLights is the sequence of writes which clears testMapping.
func clearLights() []light {
	return []light{
		{Address: pad0}, {Address: pad1},
		{Address: soundCtl}, {Address: remoteCtl},
		{Address: playCtl}, {Address: repressCtl},
	}
}

// testButtonMap is the environment for a ButtonMap test.
type testButtonMap struct {
	bm      *board.ButtonMap
	c       *testController
	sys     *audio.System
	out     *testOutput
	w       *testWorker
	presses []string
	volumes []float64
}

func newTestButtonMap(t *testing.T, remote bool) *testButtonMap {
	t.Helper()

	tb := &testButtonMap{
		c:   newTestController(),
		out: &testOutput{},
		w:   &testWorker{resC: make(chan spotify.Result, 8)},
	}
	tb.sys = audio.NewSystem(tb.out)

	ll := log.New(io.Discard, "", 0)
	set := action.Set{
		"pad0x0": action.FromSound(action.NewSound(tb.sys, testSample(t), action.SoundOptions{})),
	}

	modes := []mode.Mode{mode.NewSound(tb.sys, set, nil, ll)}
	if remote {
		modes = append(modes, mode.NewRemote(tb.w, time.Hour, ll))
	}

	bm, err := board.NewButtonMap(tb.c, testMapping(t), tb.sys, modes, ll, &board.Metrics{
		ButtonPresses: func(labels ...string) { tb.presses = append(tb.presses, labels...) },
		Volume:        func(v float64, _ ...string) { tb.volumes = append(tb.volumes, v) },
	})
	if err != nil {
		t.Fatalf("failed to create button map: %v", err)
	}
	tb.bm = bm

	return tb
}

func (tb *testButtonMap) activate(t *testing.T, in board.Input) {
	t.Helper()

	if err := tb.bm.Activate(in); err != nil {
		t.Fatalf("failed to activate %s: %v", in.Address, err)
	}
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

// testWorker is a mode.Worker which records requests.
type testWorker struct {
	reqs []spotify.Request
	resC chan spotify.Result
}

func (w *testWorker) Submit(req spotify.Request) bool {
	w.reqs = append(w.reqs, req)
	return true
}

func (w *testWorker) Results() <-chan spotify.Result { return w.resC }

func testSample(t *testing.T) *audio.Sample {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.wav")
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

var errLight = errors.New("light failed")

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

package action

import (
	"math"

	"github.com/mdlayher/padboard/internal/audio"
)

const (
	// Framerate is the number of times per second Update is expected to be
	// called.
	Framerate = 60

	// fadeRate is the fraction of a sound's gain which is faded per second.
	fadeRate = 1.5
)

// SoundOptions configure the playback of a Sound.
type SoundOptions struct {
	Loop    bool
	FadeIn  bool
	FadeOut bool

	// Gain multiplies the global volume factor. Must be positive.
	Gain float64
}

// A Sound plays a Sample through its own sink with optional fades.
type Sound struct {
	sys    *audio.System
	sample *audio.Sample
	opts   SoundOptions

	state  State
	volume float64
	sink   audio.Sink
}

// NewSound creates a Sound which plays s through sys.
func NewSound(sys *audio.System, s *audio.Sample, opts SoundOptions) *Sound {
	if opts.Gain <= 0 {
		opts.Gain = 1
	}

	return &Sound{
		sys:    sys,
		sample: s,
		opts:   opts,
	}
}

// Name returns the name of the Sound's sample.
func (s *Sound) Name() string { return s.sample.Name() }

// Loop reports whether the Sound loops forever.
func (s *Sound) Loop() bool { return s.opts.Loop }

// State returns the current State of the Sound.
func (s *Sound) State() State { return s.state }

// Volume returns the Sound's current fade volume within [0, gain].
func (s *Sound) Volume() float64 { return s.volume }

// Playing reports whether the Sound holds a live sink.
func (s *Sound) Playing() bool { return s.sink != nil }

// Play starts the Sound, or applies the current repress mode if it is
// already playing.
func (s *Sound) Play() (State, error) {
	if s.sink == nil {
		return s.start()
	}

	if s.sink.Empty() {
		// The previous playback drained on its own, reuse the sink.
		if err := s.append(s.sink); err != nil {
			return s.state, err
		}

		return s.state, nil
	}

	mode, err := s.sys.RepressMode()
	if err != nil {
		return s.state, err
	}

	switch mode {
	case audio.Interrupt:
		// The current sink keeps playing if a new one cannot be started.
		return s.start()
	default:
		if s.opts.FadeOut {
			s.state = FadingOut
			return s.state, nil
		}

		s.release()
		s.state = Stopped
		return s.state, nil
	}
}

// Update advances fades and pushes the current volume to the sink. It must be
// called once per frame.
func (s *Sound) Update() (State, error) {
	if s.state == Stopped {
		// Stopped is reported for exactly one frame.
		s.state = None
		return s.state, nil
	}

	if s.sink == nil {
		s.state = None
		return s.state, nil
	}

	if s.sink.Empty() {
		s.state = Stopped
	} else {
		step := s.opts.Gain / Framerate * fadeRate
		switch s.state {
		case FadingIn:
			s.volume = math.Min(s.volume+step, s.opts.Gain)
			if s.opts.Gain-s.volume < step/1000 {
				s.volume = s.opts.Gain
				s.state = Playing
			}
		case FadingOut:
			s.volume = math.Max(s.volume-step, 0)
			if s.volume < step/1000 {
				s.volume = 0
				s.state = Stopped
			}
		}
	}

	if s.state == Stopped {
		s.release()
		return s.state, nil
	}

	f, err := s.sys.VolumeFactor()
	if err != nil {
		return s.state, err
	}

	s.sink.SetVolume(f * s.volume)
	return s.state, nil
}

// Stop immediately stops the Sound and releases its sink. It is safe to call
// Stop more than once.
func (s *Sound) Stop() {
	s.release()
	s.state = None
	s.volume = 0
}

// start allocates a new sink and begins playback on it. Any previous sink is
// released only once the new one is playing.
func (s *Sound) start() (State, error) {
	sink, err := s.sys.NewSink()
	if err != nil {
		return s.state, err
	}

	if err := s.append(sink); err != nil {
		sink.Stop()
		return s.state, err
	}

	s.release()
	s.sink = sink
	return s.state, nil
}

// append queues a fresh decode of the sample on sink and sets the initial
// volume and state.
func (s *Sound) append(sink audio.Sink) error {
	var factor float64
	if !s.opts.FadeIn {
		f, err := s.sys.VolumeFactor()
		if err != nil {
			return err
		}
		factor = f
	}

	st, err := s.sample.Stream(s.opts.Loop, s.sys.SampleRate())
	if err != nil {
		return err
	}

	sink.Append(st)

	if s.opts.FadeIn {
		s.volume = 0
		s.state = FadingIn
	} else {
		s.volume = s.opts.Gain
		s.state = Playing
	}

	sink.SetVolume(factor * s.volume)
	return nil
}

func (s *Sound) release() {
	if s.sink == nil {
		return
	}

	s.sink.Stop()
	s.sink = nil
}

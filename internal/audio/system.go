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

// Package audio implements the shared sound output of a soundboard: a global
// volume, the repress policy for still-playing sounds, and allocation of
// independent playback sinks.
package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/faiface/beep"
)

// Volume limits, in percent of unity gain.
const (
	DefaultVolume = 100
	MaxVolume     = 400
)

// ErrBusy indicates that the System lock could not be acquired without
// blocking. Callers should skip the operation for the current tick.
var ErrBusy = errors.New("audio: sound system is busy")

// A RepressMode determines what happens when a sound which is still playing
// is triggered again.
type RepressMode int

// Possible RepressMode values.
const (
	// End stops the playing sound, fading out if configured.
	End RepressMode = iota

	// Interrupt stops the playing sound and immediately starts it again.
	Interrupt
)

// String implements fmt.Stringer.
func (m RepressMode) String() string {
	switch m {
	case End:
		return "end"
	case Interrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("RepressMode(%d)", int(m))
	}
}

// Toggle returns the other RepressMode.
func (m RepressMode) Toggle() RepressMode {
	if m == End {
		return Interrupt
	}

	return End
}

// A Sink is one independent playback channel mixed into an Output.
type Sink interface {
	// Append queues s for playback after anything already queued.
	Append(s beep.Streamer)

	// SetVolume sets the linear volume applied to all queued audio.
	SetVolume(v float64)

	// Empty reports whether all queued audio has finished playing.
	Empty() bool

	// Stop discards all queued audio. Stop is idempotent.
	Stop()
}

// An Output is an audio device capable of mixing multiple Sinks.
type Output interface {
	// NewSink allocates a new Sink on the Output.
	NewSink() (Sink, error)

	// SampleRate is the rate at which streams must be appended to Sinks.
	SampleRate() beep.SampleRate
}

// A System is the shared sound output used by all sounds. All methods are
// safe for concurrent use, but none of them block on the internal lock: if
// another goroutine holds it, ErrBusy is returned.
type System struct {
	mu      sync.Mutex
	out     Output
	volume  uint32
	repress RepressMode
}

// NewSystem creates a System which allocates sinks from out.
func NewSystem(out Output) *System {
	return &System{
		out:     out,
		volume:  DefaultVolume,
		repress: End,
	}
}

// NewSink allocates a new independent playback channel.
func (s *System) NewSink() (Sink, error) {
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()

	sink, err := s.out.NewSink()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate sink: %w", err)
	}

	return sink, nil
}

// SampleRate returns the sample rate of the underlying Output.
func (s *System) SampleRate() beep.SampleRate {
	// The Output is fixed at construction time, no need to lock.
	return s.out.SampleRate()
}

// ChangeVolume adds delta to the volume, saturating at 0 and MaxVolume.
func (s *System) ChangeVolume(delta int) error {
	if !s.mu.TryLock() {
		return ErrBusy
	}
	defer s.mu.Unlock()

	v := int64(s.volume) + int64(delta)
	switch {
	case v < 0:
		v = 0
	case v > MaxVolume:
		v = MaxVolume
	}

	s.volume = uint32(v)
	return nil
}

// Volume returns the current volume in the range [0, MaxVolume].
func (s *System) Volume() (uint32, error) {
	if !s.mu.TryLock() {
		return 0, ErrBusy
	}
	defer s.mu.Unlock()
	return s.volume, nil
}

// VolumeFactor returns the volume as a multiplier where DefaultVolume is 1.0.
func (s *System) VolumeFactor() (float64, error) {
	v, err := s.Volume()
	if err != nil {
		return 0, err
	}

	return float64(v) / DefaultVolume, nil
}

// RepressMode returns the current RepressMode.
func (s *System) RepressMode() (RepressMode, error) {
	if !s.mu.TryLock() {
		return End, ErrBusy
	}
	defer s.mu.Unlock()
	return s.repress, nil
}

// ToggleRepressMode switches to the other RepressMode and returns it.
func (s *System) ToggleRepressMode() (RepressMode, error) {
	if !s.mu.TryLock() {
		return End, ErrBusy
	}
	defer s.mu.Unlock()

	s.repress = s.repress.Toggle()
	return s.repress, nil
}

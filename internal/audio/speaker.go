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

package audio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// DefaultSampleRate is the rate the speaker is opened at unless configured
// otherwise. Samples at other rates are resampled.
const DefaultSampleRate beep.SampleRate = 44100

var _ Output = &Speaker{}

// A Speaker is an Output backed by the platform's default audio device.
type Speaker struct {
	rate beep.SampleRate
}

// OpenSpeaker opens the audio output. The speaker backend can only open the
// platform default device, so a non-empty device name is logged and ignored.
// If buffer is zero, 100ms is used.
func OpenSpeaker(device string, rate beep.SampleRate, buffer time.Duration, ll *log.Logger) (*Speaker, error) {
	if rate == 0 {
		rate = DefaultSampleRate
	}
	if buffer == 0 {
		buffer = 100 * time.Millisecond
	}

	if device != "" {
		ll.Printf("audio: output device %q cannot be selected, using platform default", device)
	}

	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return nil, fmt.Errorf("failed to open audio output: %w", err)
	}

	ll.Printf("audio: opened default output at %d Hz, %s buffer", rate, buffer)

	return &Speaker{rate: rate}, nil
}

// NewSink implements Output.
func (s *Speaker) NewSink() (Sink, error) {
	qs := newQueueSink()
	speaker.Play(qs)
	return qs, nil
}

// SampleRate implements Output.
func (s *Speaker) SampleRate() beep.SampleRate { return s.rate }

// Close stops all playback and closes the audio device.
func (s *Speaker) Close() {
	speaker.Close()
}

var (
	_ Sink          = &queueSink{}
	_ beep.Streamer = &queueSink{}
)

// A queueSink plays a queue of streamers in order at a shared volume. It
// emits silence while empty so that more audio may be appended later, and
// reports itself drained to the mixer only once stopped.
type queueSink struct {
	mu      sync.Mutex
	queue   []beep.Streamer
	volume  float64
	stopped bool
}

func newQueueSink() *queueSink {
	return &queueSink{volume: 1}
}

// Append implements Sink.
func (q *queueSink) Append(s beep.Streamer) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return
	}

	q.queue = append(q.queue, s)
}

// SetVolume implements Sink.
func (q *queueSink) SetVolume(v float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.volume = v
}

// Empty implements Sink.
func (q *queueSink) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue) == 0
}

// Stop implements Sink.
func (q *queueSink) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stopped = true
	q.queue = nil
}

// Stream implements beep.Streamer.
func (q *queueSink) Stream(samples [][2]float64) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return 0, false
	}

	var filled int
	for filled < len(samples) && len(q.queue) > 0 {
		n, ok := q.queue[0].Stream(samples[filled:])
		for i := filled; i < filled+n; i++ {
			samples[i][0] *= q.volume
			samples[i][1] *= q.volume
		}
		filled += n

		if !ok {
			q.queue = q.queue[1:]
			continue
		}

		if n == 0 {
			// A live streamer produced nothing; try again next buffer.
			break
		}
	}

	for i := filled; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}

	return len(samples), true
}

// Err implements beep.Streamer.
func (q *queueSink) Err() error { return nil }

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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// resampleQuality is the quality passed to beep.Resample when a sample's rate
// does not match the output.
const resampleQuality = 4

// A Sample is an encoded audio file held in memory. A Sample is immutable and
// may be streamed any number of times concurrently: every stream decodes from
// its own reader over the same backing bytes.
type Sample struct {
	name string
	ext  string
	data []byte
}

// LoadSample reads an audio file from path and verifies that it can be
// decoded. WAV and MP3 files are supported.
func LoadSample(path string) (*Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample: %w", err)
	}

	s := &Sample{
		name: sampleName(path),
		ext:  strings.ToLower(filepath.Ext(path)),
		data: data,
	}

	// Decode once up front so a broken file is reported at load time rather
	// than on first press.
	stream, _, err := s.decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode sample %q: %w", path, err)
	}
	_ = stream.Close()

	return s, nil
}

// NewSample creates a Sample from in-memory data; ext selects the decoder
// (".wav" or ".mp3").
func NewSample(name, ext string, data []byte) *Sample {
	return &Sample{
		name: name,
		ext:  strings.ToLower(ext),
		data: data,
	}
}

// Name returns the display name of the Sample.
func (s *Sample) Name() string { return s.name }

// Stream decodes the Sample into a new Streamer at the given sample rate. If
// loop is true, the Streamer repeats indefinitely.
func (s *Sample) Stream(loop bool, rate beep.SampleRate) (beep.Streamer, error) {
	stream, format, err := s.decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode sample %q: %w", s.name, err)
	}

	var out beep.Streamer = stream
	if loop {
		out = beep.Loop(-1, stream)
	}

	if format.SampleRate != rate {
		out = beep.Resample(resampleQuality, format.SampleRate, rate, out)
	}

	return out, nil
}

func (s *Sample) decode() (beep.StreamSeekCloser, beep.Format, error) {
	r := &readSeekNopCloser{Reader: bytes.NewReader(s.data)}

	switch s.ext {
	case ".wav":
		return wav.Decode(r)
	case ".mp3":
		return mp3.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", s.ext)
	}
}

// sampleName returns the file stem of path, or "Unknown".
func sampleName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "Unknown"
	}

	return stem
}

// readSeekNopCloser keeps the io.Seeker of a bytes.Reader visible to the
// decoders, which io.NopCloser would hide.
type readSeekNopCloser struct {
	*bytes.Reader
}

func (*readSeekNopCloser) Close() error { return nil }

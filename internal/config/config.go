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

// Package config provides the padboard configuration file format, the
// actions file format and a watcher which reports actions file changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Controller kinds which may be configured in MIDIConfig.
const (
	ControllerPush      = "push"
	ControllerLaunchpad = "launchpad"
)

// Config is the top-level YAML configuration for padboard.
type Config struct {
	MIDI    MIDIConfig    `yaml:"midi"`
	Audio   AudioConfig   `yaml:"audio"`
	Buttons ButtonsConfig `yaml:"buttons"`
	Spotify SpotifyConfig `yaml:"spotify"`
	Display DisplayConfig `yaml:"display"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Actions is the path to the actions file which binds pads to sounds
	// and commands. It is watched for changes while padboard runs.
	Actions string `yaml:"actions"`

	// ReloadDelay is how long the actions file must remain unchanged before
	// it is reloaded.
	ReloadDelay time.Duration `yaml:"reload_delay"`
}

// MIDIConfig selects the pad controller and its MIDI ports.
type MIDIConfig struct {
	Controller string `yaml:"controller"`

	// Input and Output are exact MIDI port names. If empty, the first port
	// matching the controller is used.
	Input  string `yaml:"input,omitempty"`
	Output string `yaml:"output,omitempty"`
}

// AudioConfig configures the audio output.
type AudioConfig struct {
	Device string        `yaml:"device,omitempty"`
	Buffer time.Duration `yaml:"buffer"`
}

// SpotifyConfig configures the remote control mode.
type SpotifyConfig struct {
	Enabled   bool          `yaml:"enabled"`
	APIURL    string        `yaml:"api_url"`
	TokenFile string        `yaml:"token_file"`
	Poll      time.Duration `yaml:"poll_interval"`
}

// DisplayConfig configures the rendered display frames.
type DisplayConfig struct {
	// PNG is an optional path which receives each rendered frame.
	PNG string `yaml:"png,omitempty"`
	FPS int    `yaml:"fps"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		MIDI: MIDIConfig{
			Controller: ControllerPush,
		},
		Audio: AudioConfig{
			Buffer: 100 * time.Millisecond,
		},
		Buttons: DefaultButtons(ControllerPush),
		Spotify: SpotifyConfig{
			APIURL: "https://api.spotify.com",
			Poll:   5 * time.Second,
		},
		Display: DisplayConfig{
			FPS: 5,
		},
		Metrics: MetricsConfig{
			Addr: ":9741",
		},
		Actions:     "actions.yaml",
		ReloadDelay: 2 * time.Second,
	}
}

// Load reads, parses and validates a YAML config file. Relative paths in the
// file are resolved against the directory containing it.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(b)
	if err != nil {
		return Config{}, err
	}

	dir := filepath.Dir(path)
	cfg.Actions = resolve(dir, cfg.Actions)
	if cfg.Spotify.TokenFile != "" {
		cfg.Spotify.TokenFile = resolve(dir, cfg.Spotify.TokenFile)
	}
	if cfg.Display.PNG != "" {
		cfg.Display.PNG = resolve(dir, cfg.Display.PNG)
	}

	return cfg, nil
}

// Parse parses a YAML config over DefaultConfig and validates the result.
func Parse(b []byte) (Config, error) {
	// Maps are merged by the decoder, so the default layout is only applied
	// when no buttons are configured at all.
	cfg := DefaultConfig()
	cfg.Buttons = ButtonsConfig{}
	if err := decodeStrict(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Buttons.empty() {
		cfg.Buttons = DefaultButtons(cfg.MIDI.Controller)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate reports whether c is usable.
func (c Config) Validate() error {
	switch c.MIDI.Controller {
	case ControllerPush, ControllerLaunchpad:
	default:
		return fmt.Errorf("midi: unknown controller %q", c.MIDI.Controller)
	}

	if c.Audio.Buffer <= 0 {
		return fmt.Errorf("audio: buffer must be positive, got %s", c.Audio.Buffer)
	}

	if _, err := c.Buttons.Mapping(); err != nil {
		return fmt.Errorf("buttons: %w", err)
	}

	if c.Actions == "" {
		return errors.New("actions file path is empty")
	}

	if c.ReloadDelay < 0 {
		return fmt.Errorf("reload_delay must not be negative, got %s", c.ReloadDelay)
	}

	if c.Spotify.Enabled {
		u, err := url.Parse(c.Spotify.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("spotify: invalid api_url %q", c.Spotify.APIURL)
		}
		if c.Spotify.TokenFile == "" {
			return errors.New("spotify: token_file is required when enabled")
		}
		if c.Spotify.Poll <= 0 {
			return fmt.Errorf("spotify: poll_interval must be positive, got %s", c.Spotify.Poll)
		}
	}

	if c.Display.FPS <= 0 || c.Display.FPS > 60 {
		return fmt.Errorf("display: fps must be within 1-60, got %d", c.Display.FPS)
	}

	return nil
}

// decodeStrict decodes a single YAML document from b into v, rejecting
// unknown fields and trailing documents.
func decodeStrict(b []byte, v interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	// An empty document leaves v untouched.
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err != nil {
			return fmt.Errorf("unexpected trailing document: %w", err)
		}

		return errors.New("unexpected trailing document")
	}

	return nil
}

// resolve makes path relative to dir unless it is already absolute.
func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}

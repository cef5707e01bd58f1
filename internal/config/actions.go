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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// An ActionConfig binds exactly one of a sound or a command to a pad.
type ActionConfig struct {
	Pad     string
	Sound   *SoundConfig
	Command *CommandConfig
}

// SoundConfig configures a sound sample action.
type SoundConfig struct {
	Path    string
	Loop    bool
	FadeIn  bool
	FadeOut bool
	Gain    float64
}

// CommandConfig configures an external process action.
type CommandConfig struct {
	Path string
	Args []string
}

// The YAML representations of the actions file.
type (
	actionsFile struct {
		Actions []actionEntry `yaml:"actions"`
	}

	actionEntry struct {
		Pad     string        `yaml:"pad"`
		Sound   *soundEntry   `yaml:"sound"`
		Command *commandEntry `yaml:"command"`
	}

	soundEntry struct {
		Path    string   `yaml:"path"`
		Loop    bool     `yaml:"loop"`
		FadeIn  bool     `yaml:"fade_in"`
		FadeOut bool     `yaml:"fade_out"`
		Gain    *float64 `yaml:"gain"`
	}

	commandEntry struct {
		Path string   `yaml:"path"`
		Args []string `yaml:"args"`

		// Line is a complete command line split with shell quoting rules,
		// as an alternative to Path and Args.
		Line string `yaml:"line"`
	}
)

// LoadActions reads and parses an actions file. Relative sound paths are
// resolved against the directory containing the file.
func LoadActions(path string) ([]ActionConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read actions file: %w", err)
	}

	acs, err := ParseActions(b, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse actions file %q: %w", path, err)
	}

	return acs, nil
}

// ParseActions parses an actions file, resolving relative sound paths
// against dir. A later entry for the same pad replaces an earlier one.
func ParseActions(b []byte, dir string) ([]ActionConfig, error) {
	var f actionsFile
	if err := decodeStrict(b, &f); err != nil {
		return nil, fmt.Errorf("failed to decode actions: %w", err)
	}

	var (
		acs   []ActionConfig
		index = make(map[string]int)
	)

	for i, e := range f.Actions {
		ac, err := e.parse(dir)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}

		if j, ok := index[ac.Pad]; ok {
			acs[j] = ac
			continue
		}

		index[ac.Pad] = len(acs)
		acs = append(acs, ac)
	}

	return acs, nil
}

func (e actionEntry) parse(dir string) (ActionConfig, error) {
	if e.Pad == "" {
		return ActionConfig{}, errors.New("pad is empty")
	}

	switch {
	case e.Sound != nil && e.Command != nil:
		return ActionConfig{}, fmt.Errorf("pad %q: sound and command are mutually exclusive", e.Pad)
	case e.Sound != nil:
		sc, err := e.Sound.parse(dir)
		if err != nil {
			return ActionConfig{}, fmt.Errorf("pad %q: %w", e.Pad, err)
		}

		return ActionConfig{Pad: e.Pad, Sound: sc}, nil
	case e.Command != nil:
		cc, err := e.Command.parse()
		if err != nil {
			return ActionConfig{}, fmt.Errorf("pad %q: %w", e.Pad, err)
		}

		return ActionConfig{Pad: e.Pad, Command: cc}, nil
	default:
		return ActionConfig{}, fmt.Errorf("pad %q: no sound or command configured", e.Pad)
	}
}

func (e soundEntry) parse(dir string) (*SoundConfig, error) {
	if e.Path == "" {
		return nil, errors.New("sound path is empty")
	}

	gain := 1.0
	if e.Gain != nil {
		gain = *e.Gain
	}
	if gain <= 0 {
		return nil, fmt.Errorf("sound gain must be positive, got %v", gain)
	}

	return &SoundConfig{
		Path:    resolve(dir, e.Path),
		Loop:    e.Loop,
		FadeIn:  e.FadeIn,
		FadeOut: e.FadeOut,
		Gain:    gain,
	}, nil
}

func (e commandEntry) parse() (*CommandConfig, error) {
	path, args := e.Path, e.Args
	if e.Line != "" {
		if path != "" || len(args) > 0 {
			return nil, errors.New("command line is mutually exclusive with path and args")
		}

		ss, err := shlex.Split(e.Line)
		if err != nil {
			return nil, fmt.Errorf("failed to split command line: %w", err)
		}
		if len(ss) == 0 {
			return nil, errors.New("command line is empty")
		}

		path, args = ss[0], ss[1:]
	}

	if path == "" {
		return nil, errors.New("command path is empty")
	}

	trimmed := make([]string, 0, len(args))
	for _, a := range args {
		trimmed = append(trimmed, strings.TrimSpace(a))
	}

	return &CommandConfig{Path: path, Args: trimmed}, nil
}

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
	"sort"
)

// Well-known control and encoder names which carry dedicated behavior.
const (
	ControlRepress    = "repress"
	ControlSoundMode  = "sound_mode"
	ControlRemoteMode = "remote_mode"
	ControlPlay       = "play"
	ControlPause      = "pause"
	ControlSkip       = "skip"
	ControlPlaylist   = "playlist"

	EncoderVolume = "volume"
	EncoderSelect = "select"
)

// ErrUnknownButton indicates that an address is not present in the button
// mapping.
var ErrUnknownButton = errors.New("unknown button")

// A Kind is the kind of a logical button.
type Kind int

// Possible Kind values.
const (
	Pad Kind = iota
	Control
	Encoder
)

func (k Kind) String() string {
	switch k {
	case Pad:
		return "pad"
	case Control:
		return "control"
	case Encoder:
		return "encoder"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// A Button is the logical identity of a physical control, independent of its
// wire address.
type Button struct {
	Kind Kind
	Name string
}

func (b Button) String() string { return b.Kind.String() + ":" + b.Name }

// An Address is the wire address of a physical control: a note number, or a
// control change number if Control is set.
type Address struct {
	Control bool
	Number  uint8
}

func (a Address) String() string {
	if a.Control {
		return fmt.Sprintf("cc%d", a.Number)
	}

	return fmt.Sprintf("note%d", a.Number)
}

// ButtonsConfig maps note and control change numbers to logical names.
// Encoders are addressed by control change numbers and must not overlap
// Controls.
type ButtonsConfig struct {
	Pads     map[uint8]string `yaml:"pads"`
	Controls map[uint8]string `yaml:"controls"`
	Encoders map[uint8]string `yaml:"encoders"`
}

func (bc ButtonsConfig) empty() bool {
	return len(bc.Pads) == 0 && len(bc.Controls) == 0 && len(bc.Encoders) == 0
}

// PadName returns the logical name of the pad at column x and row y, with
// row 0 at the top of the grid.
func PadName(x, y int) string { return fmt.Sprintf("pad%dx%d", x, y) }

// DefaultButtons returns the default button layout for a controller kind.
func DefaultButtons(controller string) ButtonsConfig {
	if controller == ControllerLaunchpad {
		return launchpadButtons()
	}

	return pushButtons()
}

// pushButtons is the Ableton Push 2 layout: an 8x8 grid of notes 36-99
// starting at the bottom left, and the buttons around it.
func pushButtons() ButtonsConfig {
	bc := ButtonsConfig{
		Pads: make(map[uint8]string, 64),
		Controls: map[uint8]string{
			20: ControlSoundMode,
			21: ControlRemoteMode,
			24: ControlPlay,
			25: ControlPause,
			26: ControlSkip,
			27: ControlPlaylist,
			29: ControlRepress,
		},
		Encoders: map[uint8]string{
			71: EncoderSelect,
			78: EncoderVolume,
		},
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			bc.Pads[uint8(36+(7-y)*8+x)] = PadName(x, y)
		}
	}

	return bc
}

// launchpadButtons is the Novation Launchpad layout: an 8x8 grid of notes
// x+16*y and the top row of control changes starting at 0x68. It has no
// encoders.
func launchpadButtons() ButtonsConfig {
	bc := ButtonsConfig{
		Pads: make(map[uint8]string, 64),
		Controls: map[uint8]string{
			0x68: ControlSoundMode,
			0x69: ControlRemoteMode,
			0x6a: ControlRepress,
			0x6b: ControlPlay,
			0x6c: ControlPause,
			0x6d: ControlSkip,
			0x6e: ControlPlaylist,
		},
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			bc.Pads[uint8(x+16*y)] = PadName(x, y)
		}
	}

	return bc
}

// A Mapping resolves wire addresses to logical buttons.
type Mapping map[Address]Button

// Mapping validates bc and produces the address to button mapping.
func (bc ButtonsConfig) Mapping() (Mapping, error) {
	m := make(Mapping, len(bc.Pads)+len(bc.Controls)+len(bc.Encoders))
	seen := make(map[Button]Address)

	add := func(a Address, b Button) error {
		if b.Name == "" {
			return fmt.Errorf("%s has an empty name", a)
		}
		if a.Number > 0x7f {
			return fmt.Errorf("%s is not a valid MIDI number", a)
		}
		if prev, ok := m[a]; ok {
			return fmt.Errorf("%s is mapped to both %s and %s", a, prev, b)
		}
		if prev, ok := seen[b]; ok {
			return fmt.Errorf("%s is mapped to both %s and %s", b, prev, a)
		}

		m[a] = b
		seen[b] = a
		return nil
	}

	for _, n := range sortedKeys(bc.Pads) {
		if err := add(Address{Number: n}, Button{Kind: Pad, Name: bc.Pads[n]}); err != nil {
			return nil, err
		}
	}
	for _, n := range sortedKeys(bc.Controls) {
		if err := add(Address{Control: true, Number: n}, Button{Kind: Control, Name: bc.Controls[n]}); err != nil {
			return nil, err
		}
	}
	for _, n := range sortedKeys(bc.Encoders) {
		if err := add(Address{Control: true, Number: n}, Button{Kind: Encoder, Name: bc.Encoders[n]}); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Resolve looks up the logical button for a.
func (m Mapping) Resolve(a Address) (Button, error) {
	b, ok := m[a]
	if !ok {
		return Button{}, fmt.Errorf("%s: %w", a, ErrUnknownButton)
	}

	return b, nil
}

// Lookup finds the address of a logical button.
func (m Mapping) Lookup(b Button) (Address, bool) {
	for a, mb := range m {
		if mb == b {
			return a, true
		}
	}

	return Address{}, false
}

// Addresses returns every mapped address in a stable order: notes first,
// then control changes, each by number.
func (m Mapping) Addresses() []Address {
	as := make([]Address, 0, len(m))
	for a := range m {
		as = append(as, a)
	}

	sort.Slice(as, func(i, j int) bool {
		if as[i].Control != as[j].Control {
			return !as[i].Control
		}

		return as[i].Number < as[j].Number
	})

	return as
}

func sortedKeys(m map[uint8]string) []uint8 {
	ks := make([]uint8, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}

	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}

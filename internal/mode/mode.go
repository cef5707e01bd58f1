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

// Package mode implements the device modes which interpret controller input:
// a soundboard mode and a remote control mode for Spotify.
package mode

import (
	"fmt"

	"github.com/mdlayher/padboard/internal/config"
	"github.com/mdlayher/padboard/internal/display"
)

// A LightAction tells the caller how much LED state must be recomputed after
// an operation.
type LightAction int

// Possible LightAction values, ordered by the amount of work they request.
const (
	LightNone LightAction = iota
	LightReapply
	LightClearAndReapply
)

func (la LightAction) String() string {
	switch la {
	case LightNone:
		return "none"
	case LightReapply:
		return "reapply"
	case LightClearAndReapply:
		return "clear and reapply"
	default:
		return fmt.Sprintf("LightAction(%d)", int(la))
	}
}

// Max returns the LightAction which requests the most work of la and other.
func (la LightAction) Max(other LightAction) LightAction {
	if other > la {
		return other
	}

	return la
}

// Lights sets controller LEDs.
type Lights interface {
	Light(a config.Address, color uint8) error
}

// A Mode is one complete, mutually exclusive behavior set for the controller.
// Every operation returns the LightAction required by its effects.
type Mode interface {
	// Name returns a short human readable name for the Mode.
	Name() string

	// ButtonPress handles a pressed pad.
	ButtonPress(b config.Button) (LightAction, error)

	// ControlPress handles a pressed control button.
	ControlPress(b config.Button) (LightAction, error)

	// EncoderChange handles a relative encoder movement.
	EncoderChange(b config.Button, delta int) (LightAction, error)

	// ApplyLights sets the LED of every lightable address in m.
	ApplyLights(l Lights, m config.Mapping) error

	// Update advances the Mode by one frame.
	Update() (LightAction, error)

	// Display renders the Mode onto c without modifying its state.
	Display(c *display.Canvas) error

	// mode seals the interface so every variant lives in this package.
	mode()
}

// Colors of controls which are lit the same way in every Mode.
const (
	colorSoundMode  = 125
	colorRemoteMode = 123
)

// applyLights lights every non-encoder address of m with the color returned
// by fn, stopping at the first error.
func applyLights(l Lights, m config.Mapping, fn func(b config.Button) uint8) error {
	for _, a := range m.Addresses() {
		b := m[a]
		if b.Kind == config.Encoder {
			continue
		}

		color := fn(b)
		if b.Kind == config.Control {
			switch b.Name {
			case config.ControlSoundMode:
				color = colorSoundMode
			case config.ControlRemoteMode:
				color = colorRemoteMode
			}
		}

		if err := l.Light(a, color); err != nil {
			return fmt.Errorf("failed to light %s: %w", a, err)
		}
	}

	return nil
}

// Wrap moves index i by delta within n items, wrapping in either direction.
// It returns 0 if n is not positive.
func Wrap(i, delta, n int) int {
	if n <= 0 {
		return 0
	}

	return (i + (delta%n+n)%n) % n
}

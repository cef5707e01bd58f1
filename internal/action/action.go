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

// LED palette colors used for action feedback.
const (
	ColorOff = 0

	colorLoop          = 125
	colorLoopActive    = 127
	colorOneShot       = 56
	colorOneShotActive = 126
	colorCommand       = 72
	colorCommandActive = 123
)

// An Action is bound to a pad and holds exactly one of a Sound or a Command.
type Action struct {
	sound   *Sound
	command *Command
}

// FromSound creates an Action which plays s.
func FromSound(s *Sound) *Action { return &Action{sound: s} }

// FromCommand creates an Action which runs c.
func FromCommand(c *Command) *Action { return &Action{command: c} }

// Sound returns the Action's Sound, if any.
func (a *Action) Sound() (*Sound, bool) { return a.sound, a.sound != nil }

// Command returns the Action's Command, if any.
func (a *Action) Command() (*Command, bool) { return a.command, a.command != nil }

// Execute triggers the Action.
func (a *Action) Execute() (State, error) {
	if a.sound != nil {
		return a.sound.Play()
	}

	return a.command.Execute()
}

// Update advances the Action by one frame.
func (a *Action) Update() (State, error) {
	if a.sound != nil {
		return a.sound.Update()
	}

	return a.command.Update(), nil
}

// State returns the current State of the Action.
func (a *Action) State() State {
	if a.sound != nil {
		return a.sound.State()
	}

	return a.command.State()
}

// Stop stops any sound playback. Commands cannot be stopped once started.
func (a *Action) Stop() {
	if a.sound != nil {
		a.sound.Stop()
	}
}

// DefaultColor is the LED color of the Action while idle.
func (a *Action) DefaultColor() uint8 {
	switch {
	case a.sound != nil && a.sound.Loop():
		return colorLoop
	case a.sound != nil:
		return colorOneShot
	default:
		return colorCommand
	}
}

// ActiveColor is the LED color of the Action while running.
func (a *Action) ActiveColor() uint8 {
	switch {
	case a.sound != nil && a.sound.Loop():
		return colorLoopActive
	case a.sound != nil:
		return colorOneShotActive
	default:
		return colorCommandActive
	}
}

// Color is the LED color for the Action's current State.
func (a *Action) Color() uint8 {
	if a.State().Active() {
		return a.ActiveColor()
	}

	return a.DefaultColor()
}

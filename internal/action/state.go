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

// Package action implements the runtime actions which may be bound to pads:
// sound samples with fades and external commands.
package action

import "fmt"

// A State is the playback state of an action.
type State int

// Possible State values. A sound moves from None to FadingIn or Playing, and
// then through FadingOut or directly to Stopped before returning to None.
const (
	None State = iota
	Started
	FadingIn
	Playing
	FadingOut
	Stopped
)

func (s State) String() string {
	switch s {
	case None:
		return "none"
	case Started:
		return "started"
	case FadingIn:
		return "fading in"
	case Playing:
		return "playing"
	case FadingOut:
		return "fading out"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Active reports whether an action in state s should be shown as running.
func (s State) Active() bool {
	switch s {
	case Started, FadingIn, Playing, FadingOut:
		return true
	default:
		return false
	}
}

// Steady reports whether s is a state which does not require its LED to be
// refreshed.
func (s State) Steady() bool { return s == None || s == Playing }

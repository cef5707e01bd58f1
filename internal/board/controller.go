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

// Package board connects pad controllers to device modes: it resolves
// hardware input to logical buttons, dispatches them to the current mode and
// keeps the controller's LEDs and display in sync on a fixed-rate tick.
package board

import (
	"context"
	"fmt"

	"github.com/mdlayher/launchpad"
	"github.com/mdlayher/padboard/internal/config"
	"github.com/mdlayher/padboard/internal/push"
)

// An Input is a raw press, release or encoder movement from a pad
// controller. How Value is interpreted depends on the kind of button mapped
// to Address.
type Input struct {
	Address config.Address

	// Value is the raw velocity or control value. For buttons, zero
	// indicates a release. For encoders, it is a relative movement as
	// decoded by EncoderDelta.
	Value uint8
}

// EncoderDelta decodes the relative value sent by an encoder into a signed
// number of steps.
func EncoderDelta(v uint8) int { return push.EncoderDelta(v) }

// A Controller is a pad controller with addressable LEDs.
type Controller interface {
	Events(ctx context.Context) (<-chan Input, error)
	Light(a config.Address, color uint8) error
	Close() error
}

var (
	_ Controller = &Push{}
	_ Controller = &Launchpad{}
)

// Push is a Controller backed by an Ableton Push 2.
type Push struct {
	d *push.Device
}

// NewPush creates a Controller for d.
func NewPush(d *push.Device) *Push { return &Push{d: d} }

// String returns a description of the device.
func (p *Push) String() string { return p.d.String() }

// Events implements Controller.
func (p *Push) Events(ctx context.Context) (<-chan Input, error) {
	eventC, err := p.d.Events(ctx)
	if err != nil {
		return nil, err
	}

	return forward(ctx, eventC, func(e push.Event) Input {
		return Input{
			Address: config.Address{Control: e.Control, Number: e.Number},
			Value:   e.Value,
		}
	}), nil
}

// Light implements Controller.
func (p *Push) Light(a config.Address, color uint8) error {
	return p.d.Light(a.Control, a.Number, color)
}

// Close implements Controller.
func (p *Push) Close() error { return p.d.Close() }

// The first control change number of the Launchpad's top row of buttons.
const launchpadTopRow = 0x68

// Launchpad is a Controller backed by a Novation Launchpad. Its grid is
// addressed by note x+16y and its top row by control change 0x68+x.
type Launchpad struct {
	d *launchpad.Device
}

// NewLaunchpad creates a Controller for d.
func NewLaunchpad(d *launchpad.Device) *Launchpad { return &Launchpad{d: d} }

// String returns a description of the device.
func (l *Launchpad) String() string { return l.d.String() }

// Events implements Controller.
func (l *Launchpad) Events(ctx context.Context) (<-chan Input, error) {
	eventC, err := l.d.Events(ctx)
	if err != nil {
		return nil, err
	}

	return forward(ctx, eventC, func(e launchpad.Event) Input {
		in := Input{Address: launchpadAddress(e.X, e.Y)}
		if e.On {
			in.Value = 0x7f
		}

		return in
	}), nil
}

// Light implements Controller.
func (l *Launchpad) Light(a config.Address, color uint8) error {
	x, y, err := launchpadCoordinates(a)
	if err != nil {
		return err
	}

	return l.d.Light(x, y, LaunchpadColor(color))
}

// Close implements Controller.
func (l *Launchpad) Close() error { return l.d.Close() }

func launchpadAddress(x, y int) config.Address {
	if y == 8 {
		return config.Address{Control: true, Number: uint8(launchpadTopRow + x)}
	}

	return config.Address{Number: uint8(x + 16*y)}
}

func launchpadCoordinates(a config.Address) (x, y int, err error) {
	if a.Control {
		x := int(a.Number) - launchpadTopRow
		if x < 0 || x > 7 {
			return 0, 0, fmt.Errorf("launchpad: %s is not a top row button", a)
		}

		return x, 8, nil
	}

	x, y = int(a.Number%16), int(a.Number/16)
	if x > 8 || y > 7 {
		return 0, 0, fmt.Errorf("launchpad: %s is not a grid button", a)
	}

	return x, y, nil
}

// LaunchpadColor approximates a palette color with the red and green LEDs
// of a Launchpad.
func LaunchpadColor(color uint8) launchpad.Color {
	switch color {
	case 0:
		return launchpad.Off
	case 125:
		return launchpad.GreenLow
	case 127:
		return launchpad.GreenHigh
	case 56:
		return launchpad.OrangeLow
	case 126:
		return launchpad.OrangeHigh
	case 72:
		return launchpad.YellowLow
	case 123:
		return launchpad.RedHigh
	default:
		return launchpad.YellowMedium
	}
}

// forward converts events from a device into Inputs until eventC is closed
// or ctx is canceled.
func forward[T any](ctx context.Context, eventC <-chan T, fn func(T) Input) <-chan Input {
	inC := make(chan Input, cap(eventC))
	go func() {
		defer close(inC)
		for e := range eventC {
			select {
			case <-ctx.Done():
				return
			case inC <- fn(e):
			}
		}
	}()

	return inC
}

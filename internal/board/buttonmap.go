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

package board

import (
	"errors"
	"fmt"
	"log"

	"github.com/mdlayher/metricslite"
	"github.com/mdlayher/padboard/internal/audio"
	"github.com/mdlayher/padboard/internal/config"
	"github.com/mdlayher/padboard/internal/display"
	"github.com/mdlayher/padboard/internal/mode"
)

// Indices of the modes selected by the dedicated mode controls.
const (
	SoundMode  = 0
	RemoteMode = 1
)

// Metrics are the metrics reported by a ButtonMap. Nil fields are ignored.
type Metrics struct {
	ButtonPresses metricslite.Counter
	TickErrors    metricslite.Counter
	Volume        metricslite.Gauge
}

// A ButtonMap routes controller input to the current mode and applies the
// resulting light actions to the controller's LEDs.
type ButtonMap struct {
	l       mode.Lights
	mapping config.Mapping
	sys     *audio.System
	modes   []mode.Mode
	current int
	ll      *log.Logger
	mm      Metrics
}

// NewButtonMap creates a ButtonMap over modes, with mode 0 current. The
// lights are not touched until Switch or Update is called.
func NewButtonMap(
	l mode.Lights,
	mapping config.Mapping,
	sys *audio.System,
	modes []mode.Mode,
	ll *log.Logger,
	mm *Metrics,
) (*ButtonMap, error) {
	if len(modes) == 0 {
		return nil, errors.New("board: at least one mode is required")
	}

	m := Metrics{
		ButtonPresses: func(...string) {},
		TickErrors:    func(...string) {},
		Volume:        func(float64, ...string) {},
	}
	if mm != nil {
		if mm.ButtonPresses != nil {
			m.ButtonPresses = mm.ButtonPresses
		}
		if mm.TickErrors != nil {
			m.TickErrors = mm.TickErrors
		}
		if mm.Volume != nil {
			m.Volume = mm.Volume
		}
	}

	return &ButtonMap{
		l:       l,
		mapping: mapping,
		sys:     sys,
		modes:   modes,
		ll:      ll,
		mm:      m,
	}, nil
}

// Current returns the current mode.
func (bm *ButtonMap) Current() mode.Mode { return bm.modes[bm.current] }

// Activate handles a single controller input. The input is decoded as an
// encoder movement or a button press according to the kind of button mapped
// to its address. Inputs from unmapped addresses and button releases are
// ignored.
func (bm *ButtonMap) Activate(in Input) error {
	b, err := bm.mapping.Resolve(in.Address)
	if err != nil {
		if errors.Is(err, config.ErrUnknownButton) {
			return nil
		}

		return err
	}

	var delta int
	switch {
	case b.Kind == config.Encoder:
		if delta = EncoderDelta(in.Value); delta == 0 {
			return nil
		}
	case in.Value == 0:
		return nil
	}

	bm.mm.ButtonPresses(b.Kind.String())

	var (
		la mode.LightAction
		m  = bm.Current()
	)

	switch b.Kind {
	case config.Pad:
		la, err = m.ButtonPress(b)
	case config.Control:
		switch b.Name {
		case config.ControlSoundMode:
			return bm.Switch(SoundMode)
		case config.ControlRemoteMode:
			if len(bm.modes) <= RemoteMode {
				return nil
			}

			return bm.Switch(RemoteMode)
		}

		la, err = m.ControlPress(b)
	case config.Encoder:
		if b.Name == config.EncoderVolume {
			return bm.changeVolume(delta)
		}

		la, err = m.EncoderChange(b, delta)
	}
	if err != nil {
		return fmt.Errorf("%s: %s: %w", m.Name(), b, err)
	}

	return bm.apply(la)
}

// Switch makes mode i current and always clears and reapplies the lights,
// even if i is already current.
func (bm *ButtonMap) Switch(i int) error {
	if i < 0 || i >= len(bm.modes) {
		return fmt.Errorf("board: mode index %d out of range", i)
	}

	if i != bm.current {
		bm.ll.Printf("mode: %s -> %s", bm.Current().Name(), bm.modes[i].Name())
	}

	bm.current = i
	return bm.apply(mode.LightClearAndReapply)
}

// Update advances the current mode by one tick. Other modes do not advance
// until they are current again.
func (bm *ButtonMap) Update() error {
	m := bm.Current()

	var errs []error
	la, err := m.Update()
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
	}

	if err := bm.apply(la); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ApplyLights recomputes every LED from the current mode.
func (bm *ButtonMap) ApplyLights() error {
	return bm.Current().ApplyLights(bm.l, bm.mapping)
}

// ClearLights turns off every mapped LED.
func (bm *ButtonMap) ClearLights() error {
	for _, a := range bm.mapping.Addresses() {
		if bm.mapping[a].Kind == config.Encoder {
			// Encoders have no LEDs.
			continue
		}

		if err := bm.l.Light(a, 0); err != nil {
			return fmt.Errorf("failed to clear %s: %w", a, err)
		}
	}

	return nil
}

// Display draws the current mode onto c.
func (bm *ButtonMap) Display(c *display.Canvas) error {
	c.Clear(display.Black)
	return bm.Current().Display(c)
}

func (bm *ButtonMap) apply(la mode.LightAction) error {
	switch la {
	case mode.LightNone:
		return nil
	case mode.LightClearAndReapply:
		if err := bm.ClearLights(); err != nil {
			return err
		}
	}

	return bm.ApplyLights()
}

func (bm *ButtonMap) changeVolume(delta int) error {
	if err := bm.sys.ChangeVolume(delta); err != nil {
		return fmt.Errorf("failed to change volume: %w", err)
	}

	v, err := bm.sys.Volume()
	if err != nil {
		return fmt.Errorf("failed to get volume: %w", err)
	}

	bm.mm.Volume(float64(v))
	return nil
}

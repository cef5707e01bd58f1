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

package mode

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sort"

	"github.com/mdlayher/padboard/internal/action"
	"github.com/mdlayher/padboard/internal/audio"
	"github.com/mdlayher/padboard/internal/config"
	"github.com/mdlayher/padboard/internal/display"
)

// Repress control LED colors.
const (
	colorRepressEnd       = 127
	colorRepressInterrupt = 126
)

var _ Mode = &Sound{}

// Sound is the soundboard Mode: pads trigger their bound Actions.
type Sound struct {
	sys     *audio.System
	actions action.Set
	setC    <-chan action.Set
	ll      *log.Logger
}

// NewSound creates a soundboard Mode with an initial Set of actions. Each Set
// received on setC replaces the current one. setC may be nil.
func NewSound(sys *audio.System, set action.Set, setC <-chan action.Set, ll *log.Logger) *Sound {
	if set == nil {
		set = make(action.Set)
	}

	return &Sound{
		sys:     sys,
		actions: set,
		setC:    setC,
		ll:      ll,
	}
}

func (*Sound) mode() {}

// Name implements Mode.
func (*Sound) Name() string { return "sound" }

// ButtonPress implements Mode.
func (m *Sound) ButtonPress(b config.Button) (LightAction, error) {
	a, ok := m.actions[b.Name]
	if !ok {
		return LightNone, nil
	}

	st, err := a.Execute()
	if err != nil {
		return LightNone, fmt.Errorf("pad %q: %w", b.Name, err)
	}

	if st == action.FadingOut || st == action.Stopped {
		m.ll.Printf("pad %q: stopping", b.Name)
	}

	return LightReapply, nil
}

// ControlPress implements Mode.
func (m *Sound) ControlPress(b config.Button) (LightAction, error) {
	if b.Name != config.ControlRepress {
		return LightNone, nil
	}

	rm, err := m.sys.ToggleRepressMode()
	if err != nil {
		return LightNone, err
	}

	m.ll.Printf("repress mode: %s", rm)
	return LightReapply, nil
}

// EncoderChange implements Mode.
func (*Sound) EncoderChange(config.Button, int) (LightAction, error) {
	return LightNone, nil
}

// ApplyLights implements Mode.
func (m *Sound) ApplyLights(l Lights, mapping config.Mapping) error {
	rm, err := m.sys.RepressMode()
	if err != nil {
		return err
	}

	return applyLights(l, mapping, func(b config.Button) uint8 {
		switch b.Kind {
		case config.Pad:
			if a, ok := m.actions[b.Name]; ok {
				return a.Color()
			}
		case config.Control:
			if b.Name == config.ControlRepress {
				if rm == audio.Interrupt {
					return colorRepressInterrupt
				}

				return colorRepressEnd
			}
		}

		return action.ColorOff
	})
}

// Update implements Mode. A newly loaded Set replaces every current Action
// only after all of them have been stopped.
func (m *Sound) Update() (LightAction, error) {
	la := LightNone

	if set := m.latest(); set != nil {
		m.actions.Stop()
		m.actions = set
		la = LightClearAndReapply
	}

	var errs []error
	for _, pad := range m.actions.Pads() {
		st, err := m.actions[pad].Update()
		if err != nil {
			errs = append(errs, fmt.Errorf("pad %q: %w", pad, err))
			continue
		}

		if !st.Steady() {
			la = la.Max(LightReapply)
		}
	}

	return la, errors.Join(errs...)
}

// latest drains setC and returns the most recent Set, or nil if none arrived.
func (m *Sound) latest() action.Set {
	var set action.Set
	for {
		select {
		case s := <-m.setC:
			if set != nil {
				set.Stop()
			}
			set = s
		default:
			return set
		}
	}
}

// A PlayingSound is the name of a Sound with a live sink.
type PlayingSound struct {
	Name string
	Loop bool
}

// Playing returns every Sound which currently holds a live sink, sorted by
// name.
func (m *Sound) Playing() []PlayingSound {
	var ps []PlayingSound
	for _, pad := range m.actions.Pads() {
		s, ok := m.actions[pad].Sound()
		if !ok || !s.Playing() {
			continue
		}

		ps = append(ps, PlayingSound{Name: s.Name(), Loop: s.Loop()})
	}

	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	return ps
}

// Layout of the sound mode display.
const (
	oneShotX   = 50
	loopX      = 400
	headerY    = 15
	rowY       = 40
	rowSpacing = 15

	gaugeX      = 880
	gaugeY      = 10
	gaugeWidth  = 30
	gaugeHeight = 140
)

// Display implements Mode.
func (m *Sound) Display(c *display.Canvas) error {
	headers := []struct {
		x     int
		text  string
		width int
	}{
		{x: oneShotX, text: "One-Shots", width: 90},
		{x: loopX, text: "Loops", width: 50},
	}

	for _, h := range headers {
		if err := c.Text(h.x, headerY, h.text, display.White); err != nil {
			return err
		}
		c.FillRect(image.Rect(h.x, headerY+5, h.x+h.width, headerY+7), display.White)
	}

	var oneShots, loops int
	for _, p := range m.Playing() {
		x, row := oneShotX, &oneShots
		if p.Loop {
			x, row = loopX, &loops
		}

		name := c.Truncate(p.Name, loopX-oneShotX-10)
		if err := c.Text(x, rowY+*row*rowSpacing, name, display.White); err != nil {
			return err
		}
		*row++
	}

	return m.displayVolume(c)
}

// displayVolume draws the global volume gauge with markers at 0%, 100% and
// the maximum volume.
func (m *Sound) displayVolume(c *display.Canvas) error {
	v, err := m.sys.Volume()
	if err != nil {
		return err
	}

	// y returns the gauge height for volume v.
	y := func(v uint32) int {
		return gaugeY + gaugeHeight - int(float64(gaugeHeight)*float64(v)/audio.MaxVolume)
	}

	c.StrokeRect(image.Rect(gaugeX, gaugeY, gaugeX+gaugeWidth, gaugeY+gaugeHeight), 2, display.White)
	c.FillRect(image.Rect(gaugeX, y(v), gaugeX+gaugeWidth, gaugeY+gaugeHeight), display.White)

	markers := []uint32{0, audio.DefaultVolume, audio.MaxVolume}
	for _, mv := range markers {
		my := y(mv)
		c.FillRect(image.Rect(gaugeX-5, my, gaugeX, my+2), display.White)

		label := fmt.Sprintf("%d%%", mv*100/audio.DefaultVolume)
		if err := c.Text(gaugeX-10-c.TextWidth(label), my+5, label, display.White); err != nil {
			return err
		}
	}

	return nil
}

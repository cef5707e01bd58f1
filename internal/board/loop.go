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
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mdlayher/padboard/internal/action"
	"github.com/mdlayher/padboard/internal/display"
)

// FontSize is the size in points of text drawn on the display.
const FontSize = 14

// Run drives bm from c at action.Framerate ticks per second until ctx is
// canceled, at which point every LED is cleared. Each tick handles pending
// input and then updates the current mode. If s is not nil, the current mode
// is drawn onto it and flushed fps times per second.
//
// Errors during a tick are logged and counted, and never stop the loop.
func Run(ctx context.Context, c Controller, bm *ButtonMap, s display.Surface, fps int, ll *log.Logger) error {
	inC, err := c.Events(ctx)
	if err != nil {
		return fmt.Errorf("failed to listen for events: %w", err)
	}

	var canvas *display.Canvas
	if s != nil {
		canvas, err = display.NewCanvas(s, FontSize)
		if err != nil {
			return fmt.Errorf("failed to create canvas: %w", err)
		}
	}

	every := 1
	if fps > 0 && fps < action.Framerate {
		every = action.Framerate / fps
	}

	if err := bm.Switch(SoundMode); err != nil {
		return fmt.Errorf("failed to apply initial lights: %w", err)
	}

	t := time.NewTicker(time.Second / action.Framerate)
	defer t.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			if err := bm.ClearLights(); err != nil {
				return fmt.Errorf("failed to clear lights: %w", err)
			}

			return nil
		case <-t.C:
		}

		inC = drain(inC, func(in Input) {
			bm.tickError(ll, "input", bm.Activate(in))
		})

		bm.tickError(ll, "update", bm.Update())

		if canvas == nil || n%every != 0 {
			continue
		}

		if err := bm.Display(canvas); err != nil {
			bm.tickError(ll, "display", err)
			continue
		}

		bm.tickError(ll, "flush", s.Flush())
	}
}

// drain handles every Input currently buffered on inC without blocking. It
// returns nil once inC is closed so later ticks skip it.
func drain(inC <-chan Input, fn func(in Input)) <-chan Input {
	for {
		select {
		case in, ok := <-inC:
			if !ok {
				return nil
			}

			fn(in)
		default:
			return inC
		}
	}
}

func (bm *ButtonMap) tickError(ll *log.Logger, stage string, err error) {
	if err == nil {
		return
	}

	bm.mm.TickErrors(stage)
	ll.Printf("tick: %s: %v", stage, err)
}

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

// Command padprobe prints the resolved address and logical button of each
// control pressed on a pad controller, and briefly lights it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/mdlayher/launchpad"
	"github.com/mdlayher/padboard/internal/board"
	"github.com/mdlayher/padboard/internal/config"
	"github.com/mdlayher/padboard/internal/push"
	"github.com/mdlayher/schedgroup"
	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

func main() {
	var (
		kind  = flag.String("controller", config.ControllerPush, "kind of controller to probe: push or launchpad")
		in    = flag.String("input", "", "exact MIDI input port name")
		out   = flag.String("output", "", "exact MIDI output port name")
		list  = flag.Bool("list", false, "list MIDI ports and exit")
		color = flag.Uint("color", 127, "palette color used to light pressed controls")
	)
	flag.Parse()

	ll := log.New(os.Stderr, "", log.LstdFlags)

	// Use a context to handle cancelation on signal.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	defer wg.Wait()

	go func() {
		defer wg.Done()

		// Wait for signals to cancel the context and indicate that the process
		// should shut down.
		sigC := make(chan os.Signal, 1)
		signal.Notify(sigC, os.Interrupt)
		defer signal.Stop(sigC)

		select {
		case s := <-sigC:
			ll.Printf("received %s, shutting down", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	drv, err := rtmididrv.New()
	if err != nil {
		ll.Fatalf("failed to open driver: %v", err)
	}
	defer drv.Close()

	if *list {
		if err := listPorts(drv); err != nil {
			ll.Fatalf("failed to list ports: %v", err)
		}

		cancel()
		return
	}

	c, err := open(drv, *kind, *in, *out)
	if err != nil {
		ll.Fatalf("failed to open %s: %v", *kind, err)
	}

	mapping, err := config.DefaultButtons(*kind).Mapping()
	if err != nil {
		ll.Fatalf("failed to build button mapping: %v", err)
	}

	if err := run(ctx, c, mapping, uint8(*color), ll); err != nil && !errors.Is(err, context.Canceled) {
		ll.Fatalf("failed to run: %v", err)
	}

	if err := c.Close(); err != nil {
		ll.Fatalf("failed to close controller: %v", err)
	}
}

// open opens a board.Controller of the given kind.
func open(drv midi.Driver, kind, in, out string) (board.Controller, error) {
	switch kind {
	case config.ControllerPush:
		d, err := push.Find(drv, in, out)
		if err != nil {
			return nil, err
		}

		return board.NewPush(d), nil
	case config.ControllerLaunchpad:
		devices, err := launchpad.Devices(drv)
		if err != nil {
			return nil, err
		}
		if len(devices) == 0 {
			return nil, errors.New("no Launchpad devices detected")
		}

		return board.NewLaunchpad(devices[0]), nil
	default:
		return nil, fmt.Errorf("unknown controller %q", kind)
	}
}

// run logs every input from c until ctx is canceled. Pressed controls are
// lit with color and dimmed again shortly after.
func run(ctx context.Context, c board.Controller, mapping config.Mapping, color uint8, ll *log.Logger) error {
	inC, err := c.Events(ctx)
	if err != nil {
		return fmt.Errorf("failed to listen for events: %v", err)
	}

	sg := schedgroup.New(ctx)

	for in := range inC {
		// Capture range variable for schedgroup goroutine.
		in := in

		ll.Println(describe(in, mapping))

		if b, err := mapping.Resolve(in.Address); (err == nil && b.Kind == config.Encoder) || in.Value == 0 {
			continue
		}

		if err := c.Light(in.Address, color); err != nil {
			ll.Printf("failed to light %s: %v", in.Address, err)
			continue
		}

		sg.Delay(time.Second, func() {
			if err := c.Light(in.Address, 0); err != nil {
				ll.Printf("failed to dim %s: %v", in.Address, err)
			}
		})
	}

	// Don't care about context cancelation error.
	_ = sg.Wait()
	return nil
}

// describe formats an Input along with its logical button, if any. Inputs
// mapped to encoders are shown as relative movements.
func describe(in board.Input, mapping config.Mapping) string {
	name := "unmapped"
	b, err := mapping.Resolve(in.Address)
	if err == nil {
		name = b.String()
	}

	if err == nil && b.Kind == config.Encoder {
		return fmt.Sprintf("input: %s (%s): delta %+d", in.Address, name, board.EncoderDelta(in.Value))
	}

	state := "off"
	if in.Value != 0 {
		state = "on"
	}

	return fmt.Sprintf("input: %s (%s): %s, value %d", in.Address, name, state, in.Value)
}

// listPorts prints every MIDI input and output port known to drv.
func listPorts(drv midi.Driver) error {
	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("failed to get inputs: %v", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		return fmt.Errorf("failed to get outputs: %v", err)
	}

	for _, in := range ins {
		fmt.Printf("input:  %02d: %q\n", in.Number(), in.String())
	}
	for _, out := range outs {
		fmt.Printf("output: %02d: %q\n", out.Number(), out.String())
	}

	return nil
}

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

// Package push implements the MIDI transport for an Ableton Push 2 pad
// controller: decoded input events in, raw LED messages out.
package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi"
)

// Constants from the MIDI and/or Push 2-specific protocol.
const (
	noteOn           = 0x90 // Pad presses and pad LEDs.
	controllerChange = 0xb0 // Buttons, encoders and button LEDs.

	// The substring used to look for Push 2 MIDI devices when no explicit
	// port names are configured.
	name = "Ableton Push 2"
)

// Encoders is the set of control change numbers which a Push 2 reports for
// its relative rotary encoders: tempo, swing, the eight track encoders and
// the master encoder.
var Encoders = map[uint8]bool{
	14: true, 15: true,
	71: true, 72: true, 73: true, 74: true,
	75: true, 76: true, 77: true, 78: true,
	79: true,
}

var (
	// ErrDevice indicates that a MIDI input and/or output device is not a
	// Push 2 device.
	ErrDevice = errors.New("device is not a push 2")

	// ErrBusy indicates that the MIDI output was in use by another caller.
	ErrBusy = errors.New("push: midi output is busy")
)

// A Device is an Ableton Push 2 MIDI device.
type Device struct {
	// mu guards the input listener and outMu guards writes to the output,
	// so LEDs may be written while the listener is torn down.
	mu    sync.Mutex
	in    midi.In
	outMu sync.Mutex
	out   midi.Out
	wg    sync.WaitGroup
}

// Find detects and opens the Push 2 device attached to this system. If inName
// and outName are set, ports must match them exactly. Otherwise the first
// pair of ports whose names mention a Push 2 is used. If no matching ports
// are found, an error wrapping ErrDevice is returned.
func Find(drv midi.Driver, inName, outName string) (*Device, error) {
	inputs, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to get inputs: %w", err)
	}

	outputs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("failed to get outputs: %w", err)
	}

	in, err := pick(inputs, inName)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}

	out, err := pick(outputs, outName)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}

	return Open(in, out)
}

// A port is the common subset of midi.In and midi.Out used to match ports.
type port interface {
	String() string
}

// pick finds the port named want, or the first Push 2 port when want is empty.
func pick[T port](ports []T, want string) (T, error) {
	for _, p := range ports {
		if want != "" && p.String() == want {
			return p, nil
		}
		if want == "" && strings.Contains(p.String(), name) {
			return p, nil
		}
	}

	var zero T
	if want == "" {
		return zero, ErrDevice
	}

	return zero, fmt.Errorf("port %q not found: %w", want, ErrDevice)
}

// Open initializes a Device using MIDI input and output devices.
func Open(in midi.In, out midi.Out) (*Device, error) {
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}

	return &Device{
		in:  in,
		out: out,
	}, nil
}

// String returns a description of a Device's underlying MIDI devices.
func (d *Device) String() string {
	return fmt.Sprintf("push: input: %q, output: %q", d.in, d.out)
}

// Close closes the input and output MIDI channels for a Device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer func() {
		d.mu.Unlock()
		d.wg.Wait()
	}()

	if err := d.in.Close(); err != nil {
		return fmt.Errorf("failed to close input: %w", err)
	}

	d.outMu.Lock()
	defer d.outMu.Unlock()

	if err := d.out.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	return nil
}

// An Event is a decoded input message from a Push 2 device.
type Event struct {
	// Control reports whether the message was a control change rather than
	// a pad note.
	Control bool

	// Number is the note or control change number of the input.
	Number uint8

	// Value is the raw velocity or control value.
	Value uint8

	// Encoder reports whether Number is one of the Push 2's relative
	// encoders, in which case Delta holds the movement decoded from Value.
	Encoder bool
	Delta   int
}

// Events immediately opens and returns a channel of input events from a
// Push 2 device. The channel is closed when ctx is canceled. The context
// must be canceled when listening for Events is no longer necessary.
func (d *Device) Events(ctx context.Context) (<-chan Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Buffer up events to try to avoid dropping them. Encoders can produce
	// bursts of messages, so leave some headroom.
	eventC := make(chan Event, 64)

	fn := func(b []byte, _ int64) {
		e, ok := decode(b)
		if !ok {
			return
		}

		// Cancelation takes priority over further events.
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case eventC <- e:
		}
	}

	if err := d.in.SetListener(fn); err != nil {
		return nil, fmt.Errorf("failed to listen for inputs: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer func() {
			d.mu.Unlock()
			d.wg.Done()
		}()

		<-ctx.Done()

		// Now that the context is canceled, clean up the listener.
		d.mu.Lock()
		_ = d.in.StopListening()
		close(eventC)
	}()

	return eventC, nil
}

// decode parses a 3 byte MIDI message into an Event.
func decode(b []byte) (Event, bool) {
	if len(b) != 3 {
		return Event{}, false
	}

	switch b[0] {
	case noteOn:
		return Event{Number: b[1], Value: b[2]}, true
	case controllerChange:
		if Encoders[b[1]] {
			return Event{
				Control: true,
				Number:  b[1],
				Value:   b[2],
				Encoder: true,
				Delta:   EncoderDelta(b[2]),
			}, true
		}

		return Event{Control: true, Number: b[1], Value: b[2]}, true
	default:
		// Unrecognized message, ignore in this Event API.
		return Event{}, false
	}
}

// EncoderDelta decodes the two's complement style relative value sent by a
// Push 2 encoder into a signed number of steps.
func EncoderDelta(v uint8) int {
	if v&0x40 == 0 {
		return int(v & 0x3f)
	}

	return -(64 - int(v&0x3f))
}

// Light sets the LED for a pad note or, if control is set, a button control
// change number to the specified palette color. Zero turns the LED off.
//
// If another caller is writing to the device, ErrBusy is returned.
func (d *Device) Light(control bool, number, color uint8) error {
	if !d.outMu.TryLock() {
		return ErrBusy
	}
	defer d.outMu.Unlock()

	status := byte(noteOn)
	if control {
		status = controllerChange
	}

	return d.writeLocked([...]byte{status, number, color})
}

// writeLocked writes b to a Push 2 device. The caller must acquire d.outMu
// before invoking writeLocked.
func (d *Device) writeLocked(b [3]byte) error {
	n, err := d.out.Write(b[:])
	if err != nil {
		return err
	}

	if n != len(b) {
		return io.ErrShortWrite
	}

	return nil
}

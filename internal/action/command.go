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

import (
	"bytes"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"
)

// Cooldown is how long a Command reports itself as running after it is
// started. Commands are not waited on, so this only approximates whether the
// process is still running.
const Cooldown = 1 * time.Second

// A Command starts an external process without waiting for it to exit.
type Command struct {
	path string
	args []string
	ll   *log.Logger

	// Swappable for tests.
	now   func() time.Time
	spawn func() error

	state State
	last  time.Time
}

// NewCommand creates a Command which runs path with args. Output from the
// process is logged to ll when it exits.
func NewCommand(path string, args []string, ll *log.Logger) *Command {
	c := &Command{
		path: path,
		args: args,
		ll:   ll,
		now:  time.Now,
	}
	c.spawn = c.start

	return c
}

// String returns the command line of the Command.
func (c *Command) String() string {
	return strings.Join(append([]string{c.path}, c.args...), " ")
}

// State returns the current State of the Command.
func (c *Command) State() State { return c.state }

// Execute starts the process unless the Command is within its cooldown, in
// which case it reports Playing without starting another process.
func (c *Command) Execute() (State, error) {
	if c.cooling() {
		return Playing, nil
	}

	if err := c.spawn(); err != nil {
		return c.state, fmt.Errorf("failed to start command %q: %w", c.path, err)
	}

	c.last = c.now()
	c.state = Started
	return c.state, nil
}

// Update reports Playing during the cooldown, Stopped for the frame in which
// it elapses and None afterward.
func (c *Command) Update() State {
	switch {
	case c.last.IsZero():
		c.state = None
	case c.cooling():
		c.state = Playing
	default:
		c.last = time.Time{}
		c.state = Stopped
	}

	return c.state
}

func (c *Command) cooling() bool {
	return !c.last.IsZero() && c.now().Sub(c.last) < Cooldown
}

// start runs the process and reaps it in the background.
func (c *Command) start() error {
	cmd := exec.Command(c.path, c.args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		err := cmd.Wait()
		output := strings.TrimSpace(out.String())

		if err != nil {
			c.ll.Printf("command %q failed: %v: %q", c, err, output)
			return
		}

		if output != "" {
			c.ll.Printf("command %q: %s", c, output)
		}
	}()

	return nil
}

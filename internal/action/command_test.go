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
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCommandCooldown(t *testing.T) {
	var (
		now    = time.Unix(0, 0)
		spawns int
	)

	c := NewCommand("true", nil, log.New(os.Stderr, "", 0))
	c.now = func() time.Time { return now }
	c.spawn = func() error {
		spawns++
		return nil
	}

	type step struct {
		advance time.Duration
		execute bool
		want    State
	}

	steps := []step{
		{want: None},
		{execute: true, want: Started},
		{advance: 100 * time.Millisecond, want: Playing},
		// Repeated triggers within the cooldown do not start a process.
		{execute: true, want: Playing},
		{advance: 800 * time.Millisecond, want: Playing},
		{advance: 100 * time.Millisecond, want: Stopped},
		{want: None},
		{execute: true, want: Started},
	}

	for i, s := range steps {
		now = now.Add(s.advance)

		var got State
		if s.execute {
			st, err := c.Execute()
			if err != nil {
				t.Fatalf("step %d: failed to execute: %v", i, err)
			}
			got = st
		} else {
			got = c.Update()
		}

		if diff := cmp.Diff(s.want, got); diff != "" {
			t.Fatalf("step %d: unexpected state (-want +got):\n%s", i, diff)
		}
	}

	if diff := cmp.Diff(2, spawns); diff != "" {
		t.Fatalf("unexpected number of spawns (-want +got):\n%s", diff)
	}
}

func TestCommandSpawnError(t *testing.T) {
	c := NewCommand("/nonexistent/padboard-test", nil, log.New(os.Stderr, "", 0))

	st, err := c.Execute()
	if err == nil {
		t.Fatal("an error was expected, but none occurred")
	}
	if diff := cmp.Diff(None, st); diff != "" {
		t.Fatalf("unexpected state (-want +got):\n%s", diff)
	}

	// A failed start does not begin a cooldown.
	c.spawn = func() error { return errors.New("still failing") }
	if _, err := c.Execute(); err == nil {
		t.Fatal("expected the command to be started again")
	}
}

func TestCommandString(t *testing.T) {
	c := NewCommand("amixer", []string{"set", "Master", "5%+"}, nil)
	if diff := cmp.Diff("amixer set Master 5%+", c.String()); diff != "" {
		t.Fatalf("unexpected string (-want +got):\n%s", diff)
	}
}

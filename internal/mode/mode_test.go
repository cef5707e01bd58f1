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

package mode_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/padboard/internal/mode"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		i, delta, n int
		want        int
	}{
		{i: 0, delta: -1, n: 5, want: 4},
		{i: 0, delta: 7, n: 5, want: 2},
		{i: 4, delta: 1, n: 5, want: 0},
		{i: 3, delta: -13, n: 5, want: 0},
		{i: 2, delta: 0, n: 5, want: 2},
		{i: 0, delta: 3, n: 1, want: 0},
		{i: 0, delta: -1, n: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d%+d mod %d", tt.i, tt.delta, tt.n), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, mode.Wrap(tt.i, tt.delta, tt.n)); diff != "" {
				t.Fatalf("unexpected index (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrapAlwaysValid(t *testing.T) {
	for n := 1; n < 8; n++ {
		for i := 0; i < n; i++ {
			for d := -20; d <= 20; d++ {
				if got := mode.Wrap(i, d, n); got < 0 || got >= n {
					t.Fatalf("Wrap(%d, %d, %d) = %d is out of range", i, d, n, got)
				}
			}
		}
	}
}

func TestLightActionMax(t *testing.T) {
	tests := []struct {
		a, b, want mode.LightAction
	}{
		{a: mode.LightNone, b: mode.LightNone, want: mode.LightNone},
		{a: mode.LightNone, b: mode.LightReapply, want: mode.LightReapply},
		{a: mode.LightClearAndReapply, b: mode.LightReapply, want: mode.LightClearAndReapply},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, tt.a.Max(tt.b)); diff != "" {
			t.Fatalf("unexpected light action for %s, %s (-want +got):\n%s", tt.a, tt.b, diff)
		}
	}
}

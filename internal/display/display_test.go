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

package display_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/padboard/internal/display"
)

func TestCanvasRects(t *testing.T) {
	f := display.NewFrame("")
	c := testCanvas(t, f)

	c.Clear(display.Black)
	c.FillRect(image.Rect(10, 10, 20, 20), display.White)
	c.StrokeRect(image.Rect(100, 100, 110, 110), 2, display.White)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{x: 0, y: 0, want: display.Black},
		{x: 10, y: 10, want: display.White},
		{x: 19, y: 19, want: display.White},
		{x: 20, y: 20, want: display.Black},
		{x: 101, y: 105, want: display.White},
		{x: 105, y: 108, want: display.White},
		{x: 105, y: 105, want: display.Black},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, f.RGBAAt(tt.x, tt.y)); diff != "" {
			t.Fatalf("unexpected color at (%d, %d) (-want +got):\n%s", tt.x, tt.y, diff)
		}
	}
}

func TestCanvasText(t *testing.T) {
	f := display.NewFrame("")
	c := testCanvas(t, f)
	c.Clear(display.Black)

	if err := c.Text(10, 30, "Spotify", display.White); err != nil {
		t.Fatalf("failed to draw text: %v", err)
	}

	w := c.TextWidth("Spotify")
	if w <= 0 {
		t.Fatalf("unexpected text width: %d", w)
	}

	// Some pixel underneath the text must have been drawn on.
	var lit bool
	for y := 30 - c.LineHeight(); y <= 30 && !lit; y++ {
		for x := 10; x < 10+w; x++ {
			if f.RGBAAt(x, y) != display.Black {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Fatal("text did not draw any pixels")
	}
}

func TestCanvasTruncate(t *testing.T) {
	c := testCanvas(t, display.NewFrame(""))

	const s = "A rather long playlist name which does not fit"
	if diff := cmp.Diff("short", c.Truncate("short", 500)); diff != "" {
		t.Fatalf("unexpected short text (-want +got):\n%s", diff)
	}

	got := c.Truncate(s, 100)
	if c.TextWidth(got) > 100 {
		t.Fatalf("truncated text %q is too wide: %d", got, c.TextWidth(got))
	}
	if got == s || got[len(got)-3:] != "..." {
		t.Fatalf("text was not truncated with an ellipsis: %q", got)
	}
}

func TestFrameFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	f := display.NewFrame(path)
	testCanvas(t, f).FillRect(image.Rect(0, 0, 1, 1), display.White)

	if err := f.Flush(); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open frame: %v", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}

	want := image.Rect(0, 0, display.Width, display.Height)
	if diff := cmp.Diff(want, img.Bounds()); diff != "" {
		t.Fatalf("unexpected frame bounds (-want +got):\n%s", diff)
	}

	r, g, b, a := img.At(0, 0).RGBA()
	if diff := cmp.Diff([]uint32{0xffff, 0xffff, 0xffff, 0xffff}, []uint32{r, g, b, a}); diff != "" {
		t.Fatalf("unexpected pixel (-want +got):\n%s", diff)
	}

	if err := display.NewFrame("").Flush(); err != nil {
		t.Fatalf("failed to flush frame without output: %v", err)
	}
}

func testCanvas(t *testing.T, f *display.Frame) *display.Canvas {
	t.Helper()

	c, err := display.NewCanvas(f, 16)
	if err != nil {
		t.Fatalf("failed to create canvas: %v", err)
	}

	return c
}

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

// Package display renders padboard status onto a fixed-size bitmap surface.
package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// The size of the Ableton Push 2 display in pixels.
const (
	Width  = 960
	Height = 160
)

// Colors used by padboard renderings.
var (
	White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Black = color.RGBA{A: 0xff}
)

// A Surface is a drawable image which can be flushed to its output once a
// frame is complete.
type Surface interface {
	draw.Image
	Flush() error
}

// A Canvas provides drawing primitives over a Surface.
type Canvas struct {
	dst  draw.Image
	ctx  *freetype.Context
	face font.Face
}

// NewCanvas creates a Canvas which draws text in the Go regular font at size
// points.
func NewCanvas(dst draw.Image, size float64) (*Canvas, error) {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	const dpi = 72

	ctx := freetype.NewContext()
	ctx.SetFont(f)
	ctx.SetFontSize(size)
	ctx.SetDPI(dpi)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)

	return &Canvas{
		dst:  dst,
		ctx:  ctx,
		face: truetype.NewFace(f, &truetype.Options{Size: size, DPI: dpi}),
	}, nil
}

// Bounds returns the bounds of the underlying image.
func (c *Canvas) Bounds() image.Rectangle { return c.dst.Bounds() }

// Clear fills the whole Canvas with col.
func (c *Canvas) Clear(col color.Color) {
	c.FillRect(c.dst.Bounds(), col)
}

// FillRect fills r with col.
func (c *Canvas) FillRect(r image.Rectangle, col color.Color) {
	draw.Draw(c.dst, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// StrokeRect draws the outline of r with the given line width.
func (c *Canvas) StrokeRect(r image.Rectangle, width int, col color.Color) {
	if width <= 0 {
		return
	}

	c.FillRect(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), col)
	c.FillRect(image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), col)
	c.FillRect(image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), col)
	c.FillRect(image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), col)
}

// Text draws s with its baseline starting at (x, y).
func (c *Canvas) Text(x, y int, s string, col color.Color) error {
	c.ctx.SetSrc(image.NewUniform(col))
	if _, err := c.ctx.DrawString(s, freetype.Pt(x, y)); err != nil {
		return fmt.Errorf("failed to draw text %q: %w", s, err)
	}

	return nil
}

// TextWidth returns the width of s in pixels.
func (c *Canvas) TextWidth(s string) int {
	return font.MeasureString(c.face, s).Round()
}

// LineHeight returns the distance between baselines in pixels.
func (c *Canvas) LineHeight() int {
	m := c.face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// Truncate shortens s with a trailing ellipsis so it fits in width pixels.
func (c *Canvas) Truncate(s string, width int) string {
	if c.TextWidth(s) <= width {
		return s
	}

	const ellipsis = "..."
	w := fixed.I(width) - font.MeasureString(c.face, ellipsis)

	rs := []rune(s)
	for len(rs) > 0 && font.MeasureString(c.face, string(rs)) > w {
		rs = rs[:len(rs)-1]
	}

	return string(rs) + ellipsis
}

// A Frame is an in-memory Surface which optionally writes each flushed frame
// to a PNG file.
type Frame struct {
	*image.RGBA
	path string
}

var _ Surface = &Frame{}

// NewFrame creates a display-sized Frame. If path is empty, Flush is a no-op.
func NewFrame(path string) *Frame {
	return &Frame{
		RGBA: image.NewRGBA(image.Rect(0, 0, Width, Height)),
		path: path,
	}
}

// Flush writes the Frame to its PNG file. The file is replaced atomically so
// readers never observe a partial frame.
func (f *Frame) Flush() error {
	if f.path == "" {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, f.RGBA); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close frame file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace frame file: %w", err)
	}

	return nil
}

package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/nfnt/resize"

	"github.com/dgallion1/figops/internal/screens"
)

// ErrNoCover is returned when there is nothing to render.
var ErrNoCover = errors.New("export: no cover data")

const (
	maxPreviewWidth = 3840
	textBoxAlpha    = 0.35
)

// RenderCoverPNG draws a layout preview of a cover slide: the background
// color with each text box filled in its text color. width scales the
// image keeping the aspect ratio; 0 keeps the frame size.
func RenderCoverPNG(w io.Writer, cover *screens.CoverData, width uint) error {
	if cover == nil {
		return ErrNoCover
	}
	fw := int(math.Round(cover.Width))
	fh := int(math.Round(cover.Height))
	if fw <= 0 || fh <= 0 {
		return fmt.Errorf("render cover: invalid frame size %vx%v", cover.Width, cover.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, fw, fh))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(toNRGBA(cover.BackgroundColor, 1)), image.Point{}, draw.Src)

	for _, tn := range cover.TextNodes {
		if tn.Position == nil {
			continue
		}
		box := image.Rect(
			int(math.Round(tn.Position.X)),
			int(math.Round(tn.Position.Y)),
			int(math.Round(tn.Position.X+tn.Position.Width)),
			int(math.Round(tn.Position.Y+tn.Position.Height)),
		).Intersect(canvas.Bounds())
		if box.Empty() {
			continue
		}
		fill := image.NewUniform(toNRGBA(tn.Color, textBoxAlpha))
		draw.Draw(canvas, box, fill, image.Point{}, draw.Over)

		// Baseline strip in the full text color.
		strip := box
		strip.Min.Y = max(box.Max.Y-max(box.Dy()/8, 1), box.Min.Y)
		draw.Draw(canvas, strip, image.NewUniform(toNRGBA(tn.Color, 1)), image.Point{}, draw.Over)
	}

	var out image.Image = canvas
	if width > 0 && int(width) != fw {
		out = resize.Resize(min(width, maxPreviewWidth), 0, canvas, resize.Lanczos3)
	}
	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// toNRGBA converts a 0..1 color, scaling its alpha by alphaScale.
func toNRGBA(c screens.RGBA, alphaScale float64) color.NRGBA {
	return color.NRGBA{
		R: channel(c.R),
		G: channel(c.G),
		B: channel(c.B),
		A: channel(c.A * alphaScale),
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(min(max(v, 0), 1) * 255))
}

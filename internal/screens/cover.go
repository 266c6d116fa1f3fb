package screens

import (
	"regexp"
	"strings"

	"github.com/dgallion1/figops/internal/figma"
)

// CoverFrameName is the exact name of a cover slide frame.
const CoverFrameName = "표지"

const (
	defaultCoverWidth  = 1920
	defaultCoverHeight = 1080
	defaultFontWeight  = 400
	defaultFontSize    = 16
	defaultTextAlign   = "LEFT"
)

// RGBA channels are in the 0..1 range.
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

var opaqueBlack = RGBA{A: 1}

// Position is relative to the cover frame's bounding box origin.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextStyleData is one text element of a cover slide.
type TextStyleData struct {
	Characters string    `json:"characters"`
	FontFamily string    `json:"fontFamily"`
	FontWeight float64   `json:"fontWeight"`
	FontSize   float64   `json:"fontSize"`
	Color      RGBA      `json:"color"`
	TextAlign  string    `json:"textAlign"`
	Position   *Position `json:"position,omitempty"`
}

// CoverData is the render data of a cover slide.
type CoverData struct {
	BackgroundColor RGBA            `json:"backgroundColor"`
	Width           float64         `json:"width"`
	Height          float64         `json:"height"`
	TextNodes       []TextStyleData `json:"textNodes"`
}

// ResolveCover finds the cover slide for the prefix of screenName. It
// returns nil when the name is not a screen name, no cover references the
// prefix, or the matching cover has no text.
func ResolveCover(root *figma.Node, screenName string) *CoverData {
	sn, ok := ParseScreenName(screenName)
	if !ok {
		return nil
	}
	return resolveCoverForPrefix(root, sn.Prefix)
}

func resolveCoverForPrefix(root *figma.Node, prefix string) *CoverData {
	quoted := regexp.QuoteMeta(prefix)
	namePattern := regexp.MustCompile(`^` + quoted + `_[0-9]+`)
	textPattern := regexp.MustCompile(`(?i)` + quoted + `_[0-9]+`)

	var cover *figma.Node
	figma.Walk(root, func(n *figma.Node) bool {
		if n.Type != figma.TypeFrame || strings.TrimSpace(n.Name) != CoverFrameName {
			return true
		}
		if coverMentions(n, namePattern, textPattern) {
			cover = n
			return false
		}
		return true
	})
	if cover == nil {
		return nil
	}
	return buildCoverData(cover)
}

func coverMentions(cover *figma.Node, namePattern, textPattern *regexp.Regexp) bool {
	matched := false
	for _, c := range cover.Children {
		figma.Walk(c, func(n *figma.Node) bool {
			if namePattern.MatchString(n.Name) ||
				(n.Type == figma.TypeText && textPattern.MatchString(n.Characters)) {
				matched = true
				return false
			}
			return true
		})
		if matched {
			return true
		}
	}
	return false
}

func buildCoverData(cover *figma.Node) *CoverData {
	data := &CoverData{
		BackgroundColor: opaqueBlack,
		Width:           defaultCoverWidth,
		Height:          defaultCoverHeight,
	}
	if c := cover.FirstSolidFill(); c != nil {
		data.BackgroundColor = RGBA(*c)
	}

	var originX, originY float64
	if box := cover.AbsoluteBoundingBox; box != nil {
		data.Width, data.Height = box.Width, box.Height
		originX, originY = box.X, box.Y
	}

	for _, c := range cover.Children {
		figma.Walk(c, func(n *figma.Node) bool {
			if n.Type == figma.TypeText && n.Characters != "" {
				data.TextNodes = append(data.TextNodes, textStyle(n, originX, originY))
			}
			return true
		})
	}
	if len(data.TextNodes) == 0 {
		return nil
	}
	return data
}

func textStyle(n *figma.Node, originX, originY float64) TextStyleData {
	ts := TextStyleData{
		Characters: n.Characters,
		FontWeight: defaultFontWeight,
		FontSize:   defaultFontSize,
		Color:      opaqueBlack,
		TextAlign:  defaultTextAlign,
	}
	if s := n.Style; s != nil {
		ts.FontFamily = s.FontFamily
		if s.FontWeight > 0 {
			ts.FontWeight = s.FontWeight
		}
		if s.FontSize > 0 {
			ts.FontSize = s.FontSize
		}
		if s.TextAlignHorizontal != "" {
			ts.TextAlign = s.TextAlignHorizontal
		}
	}
	if c := n.FirstSolidFill(); c != nil {
		ts.Color = RGBA(*c)
	}
	if box := n.AbsoluteBoundingBox; box != nil {
		ts.Position = &Position{
			X:      box.X - originX,
			Y:      box.Y - originY,
			Width:  box.Width,
			Height: box.Height,
		}
	}
	return ts
}

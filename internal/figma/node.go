package figma

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
)

// Node types referenced by the extraction pipeline. The type tag is an open
// enum; unknown values pass through untouched.
const (
	TypeDocument  = "DOCUMENT"
	TypeCanvas    = "CANVAS"
	TypeSection   = "SECTION"
	TypeFrame     = "FRAME"
	TypeGroup     = "GROUP"
	TypeText      = "TEXT"
	TypeComponent = "COMPONENT"
	TypeInstance  = "INSTANCE"
)

// ErrEmptyDocument is returned when the payload contains no node tree.
var ErrEmptyDocument = errors.New("figma: document has no root node")

// Node is one element of a Figma document tree.
type Node struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Type                string     `json:"type"`
	Children            []*Node    `json:"children,omitempty"`
	Characters          string     `json:"characters,omitempty"`
	Fills               []Paint    `json:"fills,omitempty"`
	AbsoluteBoundingBox *Rect      `json:"absoluteBoundingBox,omitempty"`
	Style               *TypeStyle `json:"style,omitempty"`
}

// Paint is a single fill entry.
type Paint struct {
	Type    string   `json:"type"`
	Visible *bool    `json:"visible,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Color   *Color   `json:"color,omitempty"`
}

// Color channels are in the 0..1 range, as Figma sends them.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Rect is an absolute bounding box in document coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TypeStyle is the subset of text styling the cover renderer consumes.
type TypeStyle struct {
	FontFamily          string  `json:"fontFamily,omitempty"`
	FontWeight          float64 `json:"fontWeight,omitempty"`
	FontSize            float64 `json:"fontSize,omitempty"`
	TextAlignHorizontal string  `json:"textAlignHorizontal,omitempty"`
}

// FirstSolidFill returns the first visible SOLID fill color, or nil.
func (n *Node) FirstSolidFill() *Color {
	for _, p := range n.Fills {
		if p.Type != "SOLID" || p.Color == nil {
			continue
		}
		if p.Visible != nil && !*p.Visible {
			continue
		}
		c := *p.Color
		if p.Opacity != nil {
			c.A *= *p.Opacity
		}
		return &c
	}
	return nil
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// stops the walk.
func Walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// Decode reads a node tree from r. It accepts a bare node, a files
// response ({"document": ...}) or a nodes response
// ({"nodes": {"<id>": {"document": ...}}}). Multiple roots in a nodes
// response are wrapped under a synthetic DOCUMENT node.
func Decode(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory payload.
func DecodeBytes(data []byte) (*Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decode document: invalid json")
	}
	parsed := gjson.ParseBytes(data)

	if doc := parsed.Get("document"); doc.IsObject() {
		return decodeNode(doc.Raw)
	}

	if nodes := parsed.Get("nodes"); nodes.IsObject() {
		var roots []*Node
		var decodeErr error
		nodes.ForEach(func(key, value gjson.Result) bool {
			doc := value.Get("document")
			if !doc.IsObject() {
				return true
			}
			n, err := decodeNode(doc.Raw)
			if err != nil {
				decodeErr = fmt.Errorf("node %s: %w", key.String(), err)
				return false
			}
			roots = append(roots, n)
			return true
		})
		if decodeErr != nil {
			return nil, decodeErr
		}
		switch len(roots) {
		case 0:
			return nil, ErrEmptyDocument
		case 1:
			return roots[0], nil
		default:
			return &Node{ID: "0:0", Name: parsed.Get("name").String(), Type: TypeDocument, Children: roots}, nil
		}
	}

	if parsed.Get("type").Exists() || parsed.Get("children").IsArray() {
		return decodeNode(parsed.Raw)
	}
	return nil, ErrEmptyDocument
}

func decodeNode(raw string) (*Node, error) {
	var n Node
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	return &n, nil
}

// LoadFile decodes a document stored on disk.
func LoadFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

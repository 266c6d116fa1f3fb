package screens

import (
	"strings"

	"github.com/dgallion1/figops/internal/figma"
)

// HarvestedText is a text leaf flattened out of a subtree.
type HarvestedText struct {
	Name       string `json:"name"`
	Characters string `json:"characters,omitempty"`
	Type       string `json:"type"`
	ParentName string `json:"parentName"`
}

// Text is the trimmed characters, or the trimmed name when characters are
// absent.
func (h HarvestedText) Text() string {
	if c := strings.TrimSpace(h.Characters); c != "" {
		return c
	}
	return strings.TrimSpace(h.Name)
}

// Harvest collects every TEXT node with non-empty characters under root,
// in pre-order.
func Harvest(root *figma.Node) []HarvestedText {
	var out []HarvestedText
	var walk func(n *figma.Node, parentName string)
	walk = func(n *figma.Node, parentName string) {
		if n.Type == figma.TypeText && n.Characters != "" {
			out = append(out, HarvestedText{
				Name:       n.Name,
				Characters: n.Characters,
				Type:       n.Type,
				ParentName: parentName,
			})
		}
		for _, c := range n.Children {
			walk(c, n.Name)
		}
	}
	if root != nil {
		walk(root, "")
	}
	return out
}

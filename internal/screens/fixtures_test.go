package screens

import (
	"strconv"

	"github.com/dgallion1/figops/internal/figma"
)

var nodeSeq int

func node(typ, name string, children ...*figma.Node) *figma.Node {
	nodeSeq++
	return &figma.Node{
		ID:       "n" + strconv.Itoa(nodeSeq),
		Name:     name,
		Type:     typ,
		Children: children,
	}
}

func text(name, chars string) *figma.Node {
	n := node(figma.TypeText, name)
	n.Characters = chars
	return n
}

func frame(name string, children ...*figma.Node) *figma.Node {
	return node(figma.TypeFrame, name, children...)
}

func items(texts ...string) []HarvestedText {
	out := make([]HarvestedText, len(texts))
	for i, t := range texts {
		out[i] = HarvestedText{Name: t, Characters: t, Type: figma.TypeText}
	}
	return out
}

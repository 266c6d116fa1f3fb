package screens

import (
	"strings"

	"github.com/dgallion1/figops/internal/figma"
)

// ContainerSource records which fallback tier produced a container.
type ContainerSource string

const (
	ContainerNamedFrame  ContainerSource = "named_frame"
	ContainerGrandparent ContainerSource = "grandparent"
	ContainerSelf        ContainerSource = "self"
)

// ResolveContainer finds the node holding a screen's annotation text: the
// first FRAME anywhere in the document named exactly screenName other than
// the screen node, else the screen node's grandparent, else the screen node
// itself. It returns nil
// when neither a named FRAME nor a screen node with that name exists.
func ResolveContainer(root *figma.Node, screenName string) *figma.Node {
	screenName = strings.TrimSpace(screenName)
	screen, ancestors := findScreen(root, screenName)
	if screen == nil {
		return findFrame(root, screenName, nil)
	}
	container, _ := resolveContainer(root, screen, ancestors)
	return container
}

func resolveContainer(root, screen *figma.Node, ancestors []*figma.Node) (*figma.Node, ContainerSource) {
	if frame := findFrame(root, strings.TrimSpace(screen.Name), screen); frame != nil {
		return frame, ContainerNamedFrame
	}
	if len(ancestors) >= 2 {
		return ancestors[len(ancestors)-2], ContainerGrandparent
	}
	return screen, ContainerSelf
}

// findFrame returns the first FRAME named name in pre-order, skipping skip.
func findFrame(root *figma.Node, name string, skip *figma.Node) *figma.Node {
	var found *figma.Node
	figma.Walk(root, func(n *figma.Node) bool {
		if n != skip && n.Type == figma.TypeFrame && strings.TrimSpace(n.Name) == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// findScreen returns the first screen node named name in pre-order along
// with its ancestor chain, root first.
func findScreen(root *figma.Node, name string) (*figma.Node, []*figma.Node) {
	var path []*figma.Node
	var search func(n *figma.Node) *figma.Node
	search = func(n *figma.Node) *figma.Node {
		if IsScreen(n) && strings.TrimSpace(n.Name) == name {
			return n
		}
		path = append(path, n)
		for _, c := range n.Children {
			if hit := search(c); hit != nil {
				return hit
			}
		}
		path = path[:len(path)-1]
		return nil
	}
	if root == nil {
		return nil, nil
	}
	hit := search(root)
	if hit == nil {
		return nil, nil
	}
	return hit, path
}

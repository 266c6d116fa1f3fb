package screens

import (
	"regexp"
	"strings"

	"github.com/dgallion1/figops/internal/figma"
)

// Screen names look like PREFIX_NNNN or PREFIX_NNNN_SUFFIX. The suffix may
// hold any characters, Hangul included.
var screenNamePattern = regexp.MustCompile(`^([A-Z]+_[0-9]+)(?:_(.+))?$`)

var screenTypes = map[string]bool{
	figma.TypeFrame:     true,
	figma.TypeComponent: true,
	figma.TypeInstance:  true,
	figma.TypeSection:   true,
	figma.TypeGroup:     true,
	figma.TypeText:      true,
}

// ScreenName is a parsed screen node name.
type ScreenName struct {
	Full      string
	BaseID    string
	Prefix    string
	Suffix    string
	HasSuffix bool
}

// ParseScreenName matches the trimmed name against the screen convention.
func ParseScreenName(name string) (ScreenName, bool) {
	name = strings.TrimSpace(name)
	m := screenNamePattern.FindStringSubmatch(name)
	if m == nil {
		return ScreenName{}, false
	}
	return ScreenName{
		Full:      name,
		BaseID:    m[1],
		Prefix:    prefixOf(m[1]),
		Suffix:    m[2],
		HasSuffix: m[2] != "",
	}, true
}

// IsScreen reports whether n is a screen: a screen-typed node whose name
// follows the convention.
func IsScreen(n *figma.Node) bool {
	if n == nil || !screenTypes[n.Type] {
		return false
	}
	_, ok := ParseScreenName(n.Name)
	return ok
}

func prefixOf(baseID string) string {
	prefix, _, _ := strings.Cut(baseID, "_")
	return prefix
}
